package usecases

import (
	"context"
	"encoding/json"
	"time"

	"amica/internal/application/access"
	accessusecases "amica/internal/application/access/usecases"
	"amica/internal/application/billing"
	"amica/internal/domain/grant"
	"amica/internal/domain/order"
	vo "amica/internal/domain/order/valueobjects"
	"amica/internal/shared/biztime"
	"amica/internal/shared/config"
	"amica/internal/shared/logger"
)

const receiptSendTimeout = 15 * time.Second

// FulfillmentService applies a gateway-reported status to an order and, on
// the first transition into paid, extends the grants of the order's
// subjects. The webhook handler and the status poller both go through this
// one path so their status-mapping and extension behavior cannot drift.
type FulfillmentService struct {
	orderRepo order.Repository
	ensure    *accessusecases.MergeGrantsUseCase
	grantRepo grant.Repository
	profiles  access.ProfileMirror    // optional
	notifier  billing.ReceiptNotifier // optional
	plans     map[string]config.PlanConfig
	logger    logger.Interface
}

func NewFulfillmentService(
	orderRepo order.Repository,
	ensure *accessusecases.MergeGrantsUseCase,
	grantRepo grant.Repository,
	profiles access.ProfileMirror,
	notifier billing.ReceiptNotifier,
	plans map[string]config.PlanConfig,
	logger logger.Interface,
) *FulfillmentService {
	return &FulfillmentService{
		orderRepo: orderRepo,
		ensure:    ensure,
		grantRepo: grantRepo,
		profiles:  profiles,
		notifier:  notifier,
		plans:     plans,
		logger:    logger,
	}
}

// Apply records the status plus raw payload on the order and runs grant
// extension when the order just became paid. The order row is persisted
// before any grant is touched: a failed order write returns without
// extending, so the gateway's retry (or the next poll) re-runs the whole
// step instead of double-crediting.
func (s *FulfillmentService) Apply(ctx context.Context, ord *order.Order, status vo.OrderStatus, raw json.RawMessage) error {
	becamePaid := ord.ApplyGatewayStatus(status, raw)

	if err := s.orderRepo.Update(ctx, ord); err != nil {
		return err
	}

	if !becamePaid {
		return nil
	}

	s.logger.Infow("order confirmed paid",
		"reference", ord.Reference(), "plan_id", ord.PlanID(), "amount", ord.Amount().String())

	s.extendGrants(ctx, ord)

	if s.notifier != nil && ord.UserID() != nil {
		s.sendReceiptAsync(*ord.UserID(), ord)
	}

	return nil
}

// extendGrants pushes the paid window of every subject the order credits.
// Failures here are reconciliation gaps, not request failures: the order is
// already marked paid and a support path can re-credit from it.
func (s *FulfillmentService) extendGrants(ctx context.Context, ord *order.Order) {
	plan, ok := s.plans[ord.PlanID()]
	if !ok || plan.Days <= 0 {
		s.logger.Errorw("paid order references an unconfigured plan, grant not extended",
			"reference", ord.Reference(), "plan_id", ord.PlanID())
		return
	}

	now := biztime.NowUTC()
	for _, key := range s.subjectKeys(ord) {
		g, err := s.ensure.EnsureGrant(ctx, key, ord.UserID())
		if err != nil {
			s.logger.Errorw("failed to load grant for paid order",
				"reference", ord.Reference(), "subject_key", key.String(), "error", err)
			continue
		}

		until := g.ExtendPaid(plan.Days, now)
		if err := s.grantRepo.SyncEntitlement(ctx, g.ID(), g.TrialQuestions(), g.PaidUntil(), g.PromoUntil()); err != nil {
			s.logger.Errorw("failed to persist paid extension",
				"reference", ord.Reference(), "grant_id", g.ID(), "error", err)
			continue
		}

		s.logger.Infow("paid window extended",
			"reference", ord.Reference(), "subject_key", key.String(),
			"plan_days", plan.Days, "paid_until", until)

		// Attach the window to the account immediately instead of waiting
		// for the next merge to write through.
		if accountID, isAccount := key.AccountID(); isAccount && s.profiles != nil {
			if err := access.MirrorWindows(ctx, s.profiles, accountID, g.PaidUntil(), g.PromoUntil()); err != nil {
				s.logger.Warnw("failed to mirror paid extension onto profile",
					"reference", ord.Reference(), "account_id", accountID, "error", err)
			}
		}
	}
}

func (s *FulfillmentService) subjectKeys(ord *order.Order) []grant.SubjectKey {
	var keys []grant.SubjectKey
	if dh := ord.DeviceHash(); dh != nil && *dh != "" {
		keys = append(keys, grant.DeviceSubjectKey(*dh))
	}
	if uid := ord.UserID(); uid != nil && *uid != "" {
		keys = append(keys, grant.AccountSubjectKey(*uid))
	}
	return keys
}

func (s *FulfillmentService) sendReceiptAsync(accountID string, ord *order.Order) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), receiptSendTimeout)
		defer cancel()
		if err := s.notifier.SendReceipt(ctx, accountID, ord); err != nil {
			s.logger.Warnw("failed to send payment receipt",
				"reference", ord.Reference(), "account_id", accountID, "error", err)
		}
	}()
}
