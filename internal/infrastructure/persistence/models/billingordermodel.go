package models

import (
	"time"

	"gorm.io/datatypes"

	"amica/internal/shared/constants"
)

// BillingOrderModel is the persistence shape of a billing order. Raw keeps
// the last-seen gateway payload verbatim for audit.
type BillingOrderModel struct {
	ID          uint    `gorm:"primaryKey"`
	Reference   string  `gorm:"uniqueIndex;size:64;not null"`
	PlanID      string  `gorm:"size:32;not null;index"`
	AmountCents int64   `gorm:"not null"`
	Currency    string  `gorm:"size:10;not null"`
	Status      string  `gorm:"size:32;not null;index"`
	DeviceHash  *string `gorm:"size:128;index"`
	UserID      *string `gorm:"size:64;index"`
	Raw         datatypes.JSON
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (BillingOrderModel) TableName() string {
	return constants.TableBillingOrders
}
