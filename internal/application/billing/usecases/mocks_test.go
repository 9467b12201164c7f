package usecases

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"amica/internal/application/access"
	accessusecases "amica/internal/application/access/usecases"
	"amica/internal/application/billing/paymentgateway"
	"amica/internal/domain/grant"
	"amica/internal/domain/order"
	"amica/internal/shared/config"
	apperrors "amica/internal/shared/errors"
	"amica/internal/shared/logger"
)

func testLogger() logger.Interface {
	return logger.NewLoggerWithSlog(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testPlans() map[string]config.PlanConfig {
	return map[string]config.PlanConfig{
		"monthly": {Days: 31, Amount: 9.99, Currency: "USD"},
		"yearly":  {Days: 366, Amount: 79.99, Currency: "USD"},
	}
}

type grantRow struct {
	id        uint
	key       grant.SubjectKey
	accountID *string
	trial     int
	paid      *time.Time
	promo     *time.Time
}

type fakeGrantRepo struct {
	rows   map[grant.SubjectKey]*grantRow
	nextID uint
}

func newFakeGrantRepo() *fakeGrantRepo {
	return &fakeGrantRepo{rows: make(map[grant.SubjectKey]*grantRow)}
}

func (r *fakeGrantRepo) seed(key grant.SubjectKey, trial int, paid *time.Time) *grantRow {
	r.nextID++
	row := &grantRow{id: r.nextID, key: key, trial: trial, paid: paid}
	r.rows[key] = row
	return row
}

func (r *fakeGrantRepo) GetBySubjectKey(ctx context.Context, key grant.SubjectKey) (*grant.Grant, error) {
	row, ok := r.rows[key]
	if !ok {
		return nil, nil
	}
	now := time.Now().UTC()
	return grant.ReconstructGrant(grant.ReconstructParams{
		ID:             row.id,
		SubjectKey:     row.key,
		AccountID:      row.accountID,
		TrialQuestions: row.trial,
		TrialCeiling:   5,
		PaidUntil:      row.paid,
		PromoUntil:     row.promo,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
}

func (r *fakeGrantRepo) Create(ctx context.Context, g *grant.Grant) error {
	if _, exists := r.rows[g.SubjectKey()]; exists {
		return apperrors.NewConflictError("grant already exists")
	}
	r.nextID++
	r.rows[g.SubjectKey()] = &grantRow{
		id:        r.nextID,
		key:       g.SubjectKey(),
		accountID: g.AccountID(),
		trial:     g.TrialQuestions(),
		paid:      g.PaidUntil(),
		promo:     g.PromoUntil(),
	}
	return g.SetID(r.nextID)
}

func (r *fakeGrantRepo) byID(id uint) *grantRow {
	for _, row := range r.rows {
		if row.id == id {
			return row
		}
	}
	return nil
}

func (r *fakeGrantRepo) SyncEntitlement(ctx context.Context, id uint, trialQuestions int, paidUntil, promoUntil *time.Time) error {
	if row := r.byID(id); row != nil {
		row.trial = trialQuestions
		row.paid = paidUntil
		row.promo = promoUntil
	}
	return nil
}

func (r *fakeGrantRepo) SetAccountID(ctx context.Context, id uint, accountID string) error {
	if row := r.byID(id); row != nil {
		row.accountID = &accountID
	}
	return nil
}

func (r *fakeGrantRepo) SetTrialQuestions(ctx context.Context, id uint, trialQuestions int) error {
	if row := r.byID(id); row != nil {
		row.trial = trialQuestions
	}
	return nil
}

func (r *fakeGrantRepo) ReKeySubject(ctx context.Context, from, to grant.SubjectKey) error {
	row, ok := r.rows[from]
	if !ok {
		return nil
	}
	if _, exists := r.rows[to]; exists {
		return nil
	}
	delete(r.rows, from)
	row.key = to
	r.rows[to] = row
	return nil
}

type fakeOrderRepo struct {
	orders    map[string]*order.Order
	updateErr error
	updates   int
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[string]*order.Order)}
}

func (r *fakeOrderRepo) Create(ctx context.Context, o *order.Order) error {
	if _, exists := r.orders[o.Reference()]; exists {
		return apperrors.NewConflictError("order already exists")
	}
	if o.ID() == 0 {
		if err := o.SetID(uint(len(r.orders) + 1)); err != nil {
			return err
		}
	}
	r.orders[o.Reference()] = o
	return nil
}

func (r *fakeOrderRepo) GetByReference(ctx context.Context, reference string) (*order.Order, error) {
	o, ok := r.orders[reference]
	if !ok {
		return nil, nil
	}
	return o, nil
}

func (r *fakeOrderRepo) Update(ctx context.Context, o *order.Order) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.updates++
	r.orders[o.Reference()] = o
	return nil
}

type fakeGateway struct {
	statusResult *paymentgateway.StatusResult
	statusErr    error
	statusCalls  int
}

func (g *fakeGateway) ParseCallback(req *http.Request) (*paymentgateway.CallbackData, error) {
	return nil, nil
}

func (g *fakeGateway) AckResponse(orderReference string, now time.Time) paymentgateway.AckResponse {
	return paymentgateway.AckResponse{OrderReference: orderReference, Status: "accept", Time: now.Unix()}
}

func (g *fakeGateway) CheckStatus(ctx context.Context, orderReference string) (*paymentgateway.StatusResult, error) {
	g.statusCalls++
	if g.statusErr != nil {
		return nil, g.statusErr
	}
	return g.statusResult, nil
}

func (g *fakeGateway) BuildPurchase(req paymentgateway.PurchaseRequest) paymentgateway.PurchaseForm {
	return paymentgateway.PurchaseForm{
		OrderReference: req.OrderReference,
		OrderDate:      req.OrderDate,
		Amount:         "9.99",
		Currency:       req.Amount.Currency(),
		ProductName:    req.ProductName,
	}
}

type fakeProfiles struct {
	profiles map[string]*access.ProfileEntitlement
	updates  int
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{profiles: make(map[string]*access.ProfileEntitlement)}
}

func (p *fakeProfiles) Get(ctx context.Context, accountID string) (*access.ProfileEntitlement, error) {
	prof, ok := p.profiles[accountID]
	if !ok {
		return nil, nil
	}
	cp := *prof
	return &cp, nil
}

func (p *fakeProfiles) Update(ctx context.Context, accountID string, paidUntil, promoUntil *time.Time) error {
	p.updates++
	p.profiles[accountID] = &access.ProfileEntitlement{PaidUntil: paidUntil, PromoUntil: promoUntil}
	return nil
}

func newTestFulfillment(orderRepo *fakeOrderRepo, grantRepo *fakeGrantRepo, profiles *fakeProfiles) *FulfillmentService {
	var mirror access.ProfileMirror
	if profiles != nil {
		mirror = profiles
	}
	merge := accessusecases.NewMergeGrantsUseCase(grantRepo, mirror, 5, testLogger())
	return NewFulfillmentService(orderRepo, merge, grantRepo, mirror, nil, testPlans(), testLogger())
}

func approvedCallback(reference string) *paymentgateway.CallbackData {
	return &paymentgateway.CallbackData{
		OrderReference:    reference,
		Amount:            "9.99",
		Currency:          "USD",
		TransactionStatus: "Approved",
		SignatureState:    paymentgateway.SignatureOK,
		Raw:               json.RawMessage(`{"transactionStatus":"Approved"}`),
	}
}
