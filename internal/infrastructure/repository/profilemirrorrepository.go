package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"amica/internal/application/access"
	"amica/internal/infrastructure/persistence/models"
	"amica/internal/shared/biztime"
	apperrors "amica/internal/shared/errors"
)

// ProfileMirrorRepository persists the account-level entitlement windows on
// the user profile record. It also resolves receipt recipient addresses.
type ProfileMirrorRepository struct {
	db *gorm.DB
}

func NewProfileMirrorRepository(db *gorm.DB) *ProfileMirrorRepository {
	return &ProfileMirrorRepository{db: db}
}

func (r *ProfileMirrorRepository) Get(ctx context.Context, accountID string) (*access.ProfileEntitlement, error) {
	var model models.UserProfileModel

	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.NewStoreUnavailableError(err)
	}

	return &access.ProfileEntitlement{
		PaidUntil:  model.PaidUntil,
		PromoUntil: model.PromoUntil,
	}, nil
}

// Update writes the entitlement windows onto the profile, creating the row
// when the account has none yet.
func (r *ProfileMirrorRepository) Update(ctx context.Context, accountID string, paidUntil, promoUntil *time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.UserProfileModel{}).
		Where("account_id = ?", accountID).
		Updates(map[string]interface{}{
			"paid_until":  paidUntil,
			"promo_until": promoUntil,
			"updated_at":  biztime.NowUTC(),
		})
	if result.Error != nil {
		return apperrors.NewStoreUnavailableError(result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	now := biztime.NowUTC()
	model := models.UserProfileModel{
		AccountID:  accountID,
		PaidUntil:  paidUntil,
		PromoUntil: promoUntil,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if apperrors.IsDuplicateError(err) {
			// A concurrent writer created the row; retry the targeted update.
			return r.Update(ctx, accountID, paidUntil, promoUntil)
		}
		return apperrors.NewStoreUnavailableError(err)
	}
	return nil
}

// GetEmail resolves the account's email address for receipts. Returns empty
// when the profile has no address on file.
func (r *ProfileMirrorRepository) GetEmail(ctx context.Context, accountID string) (string, error) {
	var model models.UserProfileModel

	err := r.db.WithContext(ctx).
		Select("email").
		Where("account_id = ?", accountID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", apperrors.NewStoreUnavailableError(err)
	}

	if model.Email == nil {
		return "", nil
	}
	return *model.Email, nil
}
