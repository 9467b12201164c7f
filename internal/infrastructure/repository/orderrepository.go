package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"amica/internal/domain/order"
	"amica/internal/infrastructure/persistence/mappers"
	"amica/internal/infrastructure/persistence/models"
	apperrors "amica/internal/shared/errors"
)

// OrderRepository is the gorm-backed billing-order store. Reference is the
// natural key enforced by a unique index.
type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	model := mappers.OrderToModel(o)

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if apperrors.IsDuplicateError(err) {
			return apperrors.NewConflictError("order reference already exists", o.Reference())
		}
		return apperrors.NewStoreUnavailableError(err)
	}

	return o.SetID(model.ID)
}

func (r *OrderRepository) GetByReference(ctx context.Context, reference string) (*order.Order, error) {
	var model models.BillingOrderModel

	err := r.db.WithContext(ctx).
		Where("reference = ?", reference).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.NewStoreUnavailableError(err)
	}

	return mappers.OrderToDomain(&model)
}

// Update writes the order's mutable fields: status, subject backfills and
// the raw payload audit trail. Immutable columns (reference, plan, amount)
// stay untouched.
func (r *OrderRepository) Update(ctx context.Context, o *order.Order) error {
	model := mappers.OrderToModel(o)

	err := r.db.WithContext(ctx).
		Model(&models.BillingOrderModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"status":      model.Status,
			"device_hash": model.DeviceHash,
			"user_id":     model.UserID,
			"raw":         model.Raw,
			"updated_at":  model.UpdatedAt,
		}).Error
	if err != nil {
		return apperrors.NewStoreUnavailableError(err)
	}
	return nil
}
