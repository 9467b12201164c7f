package mappers

import (
	"gorm.io/datatypes"

	"amica/internal/domain/order"
	vo "amica/internal/domain/order/valueobjects"
	"amica/internal/infrastructure/persistence/models"
)

// OrderToModel converts an order aggregate to its persistence model.
func OrderToModel(o *order.Order) *models.BillingOrderModel {
	return &models.BillingOrderModel{
		ID:          o.ID(),
		Reference:   o.Reference(),
		PlanID:      o.PlanID(),
		AmountCents: o.Amount().AmountInCents(),
		Currency:    o.Amount().Currency(),
		Status:      o.Status().String(),
		DeviceHash:  o.DeviceHash(),
		UserID:      o.UserID(),
		Raw:         datatypes.JSON(o.Raw()),
		CreatedAt:   o.CreatedAt(),
		UpdatedAt:   o.UpdatedAt(),
	}
}

// OrderToDomain converts a persistence model back to the aggregate.
func OrderToDomain(m *models.BillingOrderModel) (*order.Order, error) {
	return order.ReconstructOrder(order.ReconstructParams{
		ID:         m.ID,
		Reference:  m.Reference,
		PlanID:     m.PlanID,
		Amount:     vo.NewMoney(m.AmountCents, m.Currency),
		Status:     vo.OrderStatus(m.Status),
		DeviceHash: m.DeviceHash,
		UserID:     m.UserID,
		Raw:        []byte(m.Raw),
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	})
}
