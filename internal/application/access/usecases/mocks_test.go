package usecases

import (
	"context"
	"io"
	"log/slog"
	"time"

	"amica/internal/application/access"
	"amica/internal/domain/grant"
	apperrors "amica/internal/shared/errors"
	"amica/internal/shared/logger"
)

func testLogger() logger.Interface {
	return logger.NewLoggerWithSlog(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type grantRow struct {
	id        uint
	key       grant.SubjectKey
	accountID *string
	trial     int
	paid      *time.Time
	promo     *time.Time
}

// fakeGrantRepo mimics the real repository's contract: reads reconstruct a
// fresh aggregate, (nil, nil) for absent rows, conflict on duplicate create.
type fakeGrantRepo struct {
	rows    map[grant.SubjectKey]*grantRow
	nextID  uint
	ceiling int

	unavailable bool
	onCreate    func(g *grant.Grant) error
}

func newFakeGrantRepo(ceiling int) *fakeGrantRepo {
	return &fakeGrantRepo{
		rows:    make(map[grant.SubjectKey]*grantRow),
		ceiling: ceiling,
	}
}

func (r *fakeGrantRepo) seed(key grant.SubjectKey, accountID *string, trial int, paid, promo *time.Time) *grantRow {
	r.nextID++
	row := &grantRow{
		id:        r.nextID,
		key:       key,
		accountID: accountID,
		trial:     trial,
		paid:      paid,
		promo:     promo,
	}
	r.rows[key] = row
	return row
}

func (r *fakeGrantRepo) GetBySubjectKey(ctx context.Context, key grant.SubjectKey) (*grant.Grant, error) {
	if r.unavailable {
		return nil, apperrors.NewStoreUnavailableError(nil)
	}
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
		TrialCeiling:   r.ceiling,
		PaidUntil:      row.paid,
		PromoUntil:     row.promo,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
}

func (r *fakeGrantRepo) Create(ctx context.Context, g *grant.Grant) error {
	if r.unavailable {
		return apperrors.NewStoreUnavailableError(nil)
	}
	if r.onCreate != nil {
		if err := r.onCreate(g); err != nil {
			return err
		}
	}
	if _, exists := r.rows[g.SubjectKey()]; exists {
		return apperrors.NewConflictError("grant already exists")
	}
	row := r.seed(g.SubjectKey(), g.AccountID(), g.TrialQuestions(), g.PaidUntil(), g.PromoUntil())
	return g.SetID(row.id)
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
	if r.unavailable {
		return apperrors.NewStoreUnavailableError(nil)
	}
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
	if r.unavailable {
		return apperrors.NewStoreUnavailableError(nil)
	}
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

type fakeProfiles struct {
	profiles map[string]*access.ProfileEntitlement
	updates  int
	getErr   error
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{profiles: make(map[string]*access.ProfileEntitlement)}
}

func (p *fakeProfiles) Get(ctx context.Context, accountID string) (*access.ProfileEntitlement, error) {
	if p.getErr != nil {
		return nil, p.getErr
	}
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
