package usecases

import (
	"context"
	"time"

	"amica/internal/application/access"
	"amica/internal/domain/grant"
	apperrors "amica/internal/shared/errors"
	"amica/internal/shared/logger"
)

// GrantPromoCommand extends a subject's promo window. Used by support
// tooling; there is no public route for it.
type GrantPromoCommand struct {
	SubjectKey grant.SubjectKey
	Until      time.Time
}

// GrantPromoUseCase extends the promo window of one grant. Promo windows
// only ever extend; shrinking is a separate explicit operation this
// service does not offer.
type GrantPromoUseCase struct {
	ensure    *MergeGrantsUseCase
	grantRepo grant.Repository
	profiles  access.ProfileMirror // optional
	logger    logger.Interface
}

func NewGrantPromoUseCase(
	ensure *MergeGrantsUseCase,
	grantRepo grant.Repository,
	profiles access.ProfileMirror,
	logger logger.Interface,
) *GrantPromoUseCase {
	return &GrantPromoUseCase{
		ensure:    ensure,
		grantRepo: grantRepo,
		profiles:  profiles,
		logger:    logger,
	}
}

func (uc *GrantPromoUseCase) Execute(ctx context.Context, cmd GrantPromoCommand) error {
	if cmd.SubjectKey == "" {
		return apperrors.NewValidationError("subject key is required")
	}

	g, err := uc.ensure.EnsureGrant(ctx, cmd.SubjectKey, nil)
	if err != nil {
		return err
	}

	if !g.GrantPromo(cmd.Until) {
		return nil // existing window already covers the requested one
	}

	if err := uc.grantRepo.SyncEntitlement(ctx, g.ID(), g.TrialQuestions(), g.PaidUntil(), g.PromoUntil()); err != nil {
		return err
	}

	if accountID, ok := cmd.SubjectKey.AccountID(); ok && uc.profiles != nil {
		if err := access.MirrorWindows(ctx, uc.profiles, accountID, g.PaidUntil(), g.PromoUntil()); err != nil {
			uc.logger.Warnw("failed to mirror promo grant onto profile",
				"account_id", accountID, "error", err)
		}
	}

	uc.logger.Infow("promo window extended",
		"subject_key", cmd.SubjectKey.String(), "promo_until", cmd.Until)
	return nil
}
