package usecases

import (
	"context"
	"time"

	"amica/internal/application/access"
	"amica/internal/domain/grant"
	apperrors "amica/internal/shared/errors"
	"amica/internal/shared/logger"
)

// MergeCommand identifies the subject(s) to reconcile.
type MergeCommand struct {
	DeviceToken string
	AccountID   *string
}

// MergeResult is the reconciled view of a guest/account grant pair.
type MergeResult struct {
	Guest   *grant.Grant
	Account *grant.Grant // nil when not authenticated

	TrialQuestions int
	PaidUntil      *time.Time
	PromoUntil     *time.Time
}

// MergeGrantsUseCase reconciles a guest grant and an account grant into a
// single consistent view and writes the merged values back to both rows.
//
// Trial is a shared consumable budget, so the smaller remaining count wins;
// paid/promo are additive grants of time, so the later expiry wins. The
// merge is convergent (idempotent and monotonic), so two concurrent merges
// for the same pair converge to the same result without locking.
type MergeGrantsUseCase struct {
	grantRepo    grant.Repository
	profiles     access.ProfileMirror // optional
	trialCeiling int
	logger       logger.Interface
}

func NewMergeGrantsUseCase(
	grantRepo grant.Repository,
	profiles access.ProfileMirror,
	trialCeiling int,
	logger logger.Interface,
) *MergeGrantsUseCase {
	return &MergeGrantsUseCase{
		grantRepo:    grantRepo,
		profiles:     profiles,
		trialCeiling: trialCeiling,
		logger:       logger,
	}
}

func (uc *MergeGrantsUseCase) Execute(ctx context.Context, cmd MergeCommand) (*MergeResult, error) {
	if cmd.DeviceToken == "" && cmd.AccountID == nil {
		return nil, apperrors.NewValidationError("identity unresolved", "no device token and not logged in")
	}

	guest, err := uc.EnsureGrant(ctx, grant.DeviceSubjectKey(cmd.DeviceToken), cmd.AccountID)
	if err != nil {
		return nil, err
	}

	var account *grant.Grant
	if cmd.AccountID != nil {
		account, err = uc.ensureAccountGrant(ctx, *cmd.AccountID)
		if err != nil {
			// Best-effort: the guest row alone still yields a verdict.
			uc.logger.Warnw("failed to ensure account grant, continuing with guest only",
				"account_id", *cmd.AccountID, "error", err)
		}

		// Identity promotion: a guest grant discovered to belong to a
		// now-known account gets its account reference filled in. The
		// subject key stays the device token.
		if guest.PromoteAccount(*cmd.AccountID) {
			if err := uc.grantRepo.SetAccountID(ctx, guest.ID(), *cmd.AccountID); err != nil {
				uc.logger.Warnw("failed to promote guest grant",
					"grant_id", guest.ID(), "error", err)
			}
		}
	}

	mergedTrial := grant.ClampTrial(guest.TrialQuestions(), uc.trialCeiling)
	mergedPaid := guest.PaidUntil()
	mergedPromo := guest.PromoUntil()

	if account != nil {
		accountTrial := grant.ClampTrial(account.TrialQuestions(), uc.trialCeiling)
		if accountTrial < mergedTrial {
			mergedTrial = accountTrial
		}
		mergedPaid = grant.LaterOf(mergedPaid, account.PaidUntil())
		mergedPromo = grant.LaterOf(mergedPromo, account.PromoUntil())
	}

	// The profile mirror participates in the same expansive merge.
	var profile *access.ProfileEntitlement
	if cmd.AccountID != nil && uc.profiles != nil {
		profile, err = uc.profiles.Get(ctx, *cmd.AccountID)
		if err != nil {
			uc.logger.Warnw("failed to read profile mirror, skipping",
				"account_id", *cmd.AccountID, "error", err)
			profile = nil
		}
		if profile != nil {
			mergedPaid = grant.LaterOf(mergedPaid, profile.PaidUntil)
			mergedPromo = grant.LaterOf(mergedPromo, profile.PromoUntil)
		}
	}

	// Write-back symmetry: both rows carry identical merged values. Row
	// writes are independent; a failed write is a reconciliation gap the
	// next merge closes, not a reason to fail the read.
	uc.writeBack(ctx, guest, mergedTrial, mergedPaid, mergedPromo)
	if account != nil {
		uc.writeBack(ctx, account, mergedTrial, mergedPaid, mergedPromo)
	}

	if profile != nil && cmd.AccountID != nil {
		uc.writeThroughProfile(ctx, *cmd.AccountID, profile, mergedPaid, mergedPromo)
	}

	return &MergeResult{
		Guest:          guest,
		Account:        account,
		TrialQuestions: mergedTrial,
		PaidUntil:      mergedPaid,
		PromoUntil:     mergedPromo,
	}, nil
}

// EnsureGrant guarantees a grant row exists for the subject key. A create
// race resolves through the unique constraint: the loser re-reads the
// surviving row.
func (uc *MergeGrantsUseCase) EnsureGrant(ctx context.Context, key grant.SubjectKey, accountID *string) (*grant.Grant, error) {
	existing, err := uc.grantRepo.GetBySubjectKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	fresh, err := grant.NewGrant(key, accountID, uc.trialCeiling)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid grant", err.Error())
	}

	if err := uc.grantRepo.Create(ctx, fresh); err != nil {
		if apperrors.IsConflictError(err) {
			// Lost the create race; the surviving row wins.
			return uc.grantRepo.GetBySubjectKey(ctx, key)
		}
		return nil, err
	}

	uc.logger.Infow("grant created", "subject_key", key.String(), "trial_questions", fresh.TrialQuestions())
	return fresh, nil
}

// ensureAccountGrant resolves the account-scoped grant, migrating a legacy
// row keyed by the bare account id if one exists. The migration is
// idempotent: once re-keyed, later calls find the account-scoped row.
func (uc *MergeGrantsUseCase) ensureAccountGrant(ctx context.Context, accountID string) (*grant.Grant, error) {
	key := grant.AccountSubjectKey(accountID)

	existing, err := uc.grantRepo.GetBySubjectKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	legacyKey := grant.LegacyAccountSubjectKey(accountID)
	legacy, err := uc.grantRepo.GetBySubjectKey(ctx, legacyKey)
	if err != nil {
		return nil, err
	}
	if legacy != nil {
		if err := uc.grantRepo.ReKeySubject(ctx, legacyKey, key); err != nil {
			return nil, err
		}
		uc.logger.Infow("legacy account grant re-keyed",
			"account_id", accountID, "grant_id", legacy.ID())
		return uc.grantRepo.GetBySubjectKey(ctx, key)
	}

	return uc.EnsureGrant(ctx, key, &accountID)
}

func (uc *MergeGrantsUseCase) writeBack(ctx context.Context, g *grant.Grant, trial int, paid, promo *time.Time) {
	if !g.ApplyMerged(trial, paid, promo) {
		return
	}
	if err := uc.grantRepo.SyncEntitlement(ctx, g.ID(), trial, paid, promo); err != nil {
		uc.logger.Warnw("merge write-back failed, next merge will retry",
			"grant_id", g.ID(), "subject_key", g.SubjectKey().String(), "error", err)
	}
}

// writeThroughProfile pushes merged windows onto the profile mirror when
// the merge produced a later value than the mirror holds.
func (uc *MergeGrantsUseCase) writeThroughProfile(ctx context.Context, accountID string, profile *access.ProfileEntitlement, paid, promo *time.Time) {
	if !access.WindowAdvanced(profile.PaidUntil, paid) && !access.WindowAdvanced(profile.PromoUntil, promo) {
		return
	}

	if err := uc.profiles.Update(ctx, accountID, paid, promo); err != nil {
		uc.logger.Warnw("profile mirror write-through failed, next merge will retry",
			"account_id", accountID, "error", err)
	}
}
