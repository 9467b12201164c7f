package models

import (
	"time"

	"amica/internal/shared/constants"
)

// GrantModel is the persistence shape of an access grant. SubjectKey is the
// natural key; the unique index is what makes concurrent creates for the
// same subject resolve to a single row.
type GrantModel struct {
	ID             uint    `gorm:"primaryKey"`
	SubjectKey     string  `gorm:"uniqueIndex;size:128;not null"`
	AccountID      *string `gorm:"index;size:64"`
	TrialQuestions int     `gorm:"not null;default:0"`
	PaidUntil      *time.Time
	PromoUntil     *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (GrantModel) TableName() string {
	return constants.TableAccessGrants
}
