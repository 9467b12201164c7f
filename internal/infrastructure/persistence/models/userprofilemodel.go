package models

import (
	"time"

	"amica/internal/shared/constants"
)

// UserProfileModel mirrors the account-level entitlement windows. The
// profile is the store of record for logged-in users; grant rows and this
// mirror deliberately carry the same windows.
type UserProfileModel struct {
	ID         uint    `gorm:"primaryKey"`
	AccountID  string  `gorm:"uniqueIndex;size:64;not null"`
	Email      *string `gorm:"size:255"`
	PaidUntil  *time.Time
	PromoUntil *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (UserProfileModel) TableName() string {
	return constants.TableUserProfiles
}
