package usecases

import (
	"context"

	"amica/internal/domain/grant"
	"amica/internal/shared/biztime"
	"amica/internal/shared/logger"
)

// ConsumeTrialUseCase burns one free question for the current subject.
// The decrement runs on the merged counter and is written to every grant
// row of the pair, so usage from either identity depletes both.
type ConsumeTrialUseCase struct {
	merge     *MergeGrantsUseCase
	grantRepo grant.Repository
	logger    logger.Interface
}

func NewConsumeTrialUseCase(merge *MergeGrantsUseCase, grantRepo grant.Repository, logger logger.Interface) *ConsumeTrialUseCase {
	return &ConsumeTrialUseCase{
		merge:     merge,
		grantRepo: grantRepo,
		logger:    logger,
	}
}

// Execute returns the trial counter after consumption. Paid or promo
// subjects are not charged trial questions.
func (uc *ConsumeTrialUseCase) Execute(ctx context.Context, cmd MergeCommand) (int, error) {
	merged, err := uc.merge.Execute(ctx, cmd)
	if err != nil {
		return 0, err
	}

	now := biztime.NowUTC()
	if grant.IsActive(merged.PaidUntil, now) || grant.IsActive(merged.PromoUntil, now) {
		return merged.TrialQuestions, nil
	}

	if merged.TrialQuestions == 0 {
		return 0, nil
	}

	remaining := merged.TrialQuestions - 1

	for _, g := range []*grant.Grant{merged.Guest, merged.Account} {
		if g == nil {
			continue
		}
		if err := uc.grantRepo.SetTrialQuestions(ctx, g.ID(), remaining); err != nil {
			uc.logger.Warnw("failed to persist trial consumption",
				"grant_id", g.ID(), "subject_key", g.SubjectKey().String(), "error", err)
		}
	}

	return remaining, nil
}
