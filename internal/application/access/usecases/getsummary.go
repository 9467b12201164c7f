package usecases

import (
	"context"
	"time"

	"amica/internal/domain/grant"
	"amica/internal/shared/biztime"
	apperrors "amica/internal/shared/errors"
	"amica/internal/shared/logger"
)

// SummaryCommand identifies the requesting subject.
type SummaryCommand struct {
	DeviceToken string
	AccountID   *string
}

// AccessSummary is the read model the rest of the application consumes.
type AccessSummary struct {
	Access             grant.AccessLevel
	HasAccess          bool
	TrialQuestionsLeft int
	PaidUntil          *time.Time
	PromoUntil         *time.Time
	AccessUntil        *time.Time
	IsLoggedIn         bool

	// Degraded is true when the store was unreachable and the summary is
	// the fixed trial-only fallback.
	Degraded bool
}

// GetAccessSummaryUseCase composes the merge engine and the verdict
// derivation into the point-in-time access summary.
type GetAccessSummaryUseCase struct {
	merge        *MergeGrantsUseCase
	trialCeiling int
	logger       logger.Interface
}

func NewGetAccessSummaryUseCase(merge *MergeGrantsUseCase, trialCeiling int, logger logger.Interface) *GetAccessSummaryUseCase {
	return &GetAccessSummaryUseCase{
		merge:        merge,
		trialCeiling: trialCeiling,
		logger:       logger,
	}
}

func (uc *GetAccessSummaryUseCase) Execute(ctx context.Context, cmd SummaryCommand) (*AccessSummary, error) {
	merged, err := uc.merge.Execute(ctx, MergeCommand{
		DeviceToken: cmd.DeviceToken,
		AccountID:   cmd.AccountID,
	})
	if err != nil {
		if apperrors.IsStoreUnavailableError(err) {
			// Entitlement reads stay available even when reconciliation
			// writes cannot happen: fall back to a fixed trial-only
			// verdict instead of failing the page load.
			uc.logger.Errorw("grant store unavailable, serving trial-only summary", "error", err)
			return uc.degradedSummary(cmd), nil
		}
		return nil, err
	}

	now := biztime.NowUTC()
	verdict := grant.DeriveVerdict(merged.TrialQuestions, merged.PaidUntil, merged.PromoUntil, now)

	return &AccessSummary{
		Access:             verdict.Access,
		HasAccess:          verdict.HasAccess,
		TrialQuestionsLeft: verdict.TrialQuestionsLeft,
		PaidUntil:          merged.PaidUntil,
		PromoUntil:         merged.PromoUntil,
		AccessUntil:        verdict.AccessUntil,
		IsLoggedIn:         cmd.AccountID != nil,
	}, nil
}

func (uc *GetAccessSummaryUseCase) degradedSummary(cmd SummaryCommand) *AccessSummary {
	return &AccessSummary{
		Access:             grant.AccessTrial,
		HasAccess:          uc.trialCeiling > 0,
		TrialQuestionsLeft: uc.trialCeiling,
		IsLoggedIn:         cmd.AccountID != nil,
		Degraded:           true,
	}
}
