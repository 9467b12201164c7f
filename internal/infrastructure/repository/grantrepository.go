package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"amica/internal/domain/grant"
	"amica/internal/infrastructure/persistence/mappers"
	"amica/internal/infrastructure/persistence/models"
	"amica/internal/shared/biztime"
	apperrors "amica/internal/shared/errors"
)

// GrantRepository is the gorm-backed grant store. Every write is a targeted
// update of known columns, never a blind save of the full row, so two
// concurrent writers cannot clobber each other's unrelated fields.
type GrantRepository struct {
	db           *gorm.DB
	trialCeiling int
}

func NewGrantRepository(db *gorm.DB, trialCeiling int) *GrantRepository {
	return &GrantRepository{db: db, trialCeiling: trialCeiling}
}

func (r *GrantRepository) GetBySubjectKey(ctx context.Context, key grant.SubjectKey) (*grant.Grant, error) {
	var model models.GrantModel

	err := r.db.WithContext(ctx).
		Where("subject_key = ?", key.String()).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.NewStoreUnavailableError(err)
	}

	return mappers.GrantToDomain(&model, r.trialCeiling)
}

func (r *GrantRepository) Create(ctx context.Context, g *grant.Grant) error {
	model := mappers.GrantToModel(g)

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if apperrors.IsDuplicateError(err) {
			return apperrors.NewConflictError("grant already exists", g.SubjectKey().String())
		}
		return apperrors.NewStoreUnavailableError(err)
	}

	return g.SetID(model.ID)
}

// SyncEntitlement writes the reconciled counter and windows onto one row.
func (r *GrantRepository) SyncEntitlement(ctx context.Context, id uint, trialQuestions int, paidUntil, promoUntil *time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&models.GrantModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"trial_questions": trialQuestions,
			"paid_until":      paidUntil,
			"promo_until":     promoUntil,
			"updated_at":      biztime.NowUTC(),
		}).Error
	if err != nil {
		return apperrors.NewStoreUnavailableError(err)
	}
	return nil
}

func (r *GrantRepository) SetAccountID(ctx context.Context, id uint, accountID string) error {
	err := r.db.WithContext(ctx).
		Model(&models.GrantModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"account_id": accountID,
			"updated_at": biztime.NowUTC(),
		}).Error
	if err != nil {
		return apperrors.NewStoreUnavailableError(err)
	}
	return nil
}

func (r *GrantRepository) SetTrialQuestions(ctx context.Context, id uint, trialQuestions int) error {
	err := r.db.WithContext(ctx).
		Model(&models.GrantModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"trial_questions": trialQuestions,
			"updated_at":      biztime.NowUTC(),
		}).Error
	if err != nil {
		return apperrors.NewStoreUnavailableError(err)
	}
	return nil
}

// ReKeySubject migrates a legacy row to a new subject key. Running it again
// after the migration happened is a no-op: zero rows match the old key, and
// a unique collision means the target row already exists.
func (r *GrantRepository) ReKeySubject(ctx context.Context, from, to grant.SubjectKey) error {
	err := r.db.WithContext(ctx).
		Model(&models.GrantModel{}).
		Where("subject_key = ?", from.String()).
		Updates(map[string]interface{}{
			"subject_key": to.String(),
			"updated_at":  biztime.NowUTC(),
		}).Error
	if err != nil {
		if apperrors.IsDuplicateError(err) {
			return nil
		}
		return apperrors.NewStoreUnavailableError(err)
	}
	return nil
}
