package grant

import (
	"context"
	"time"
)

// Repository defines the interface for grant persistence operations.
//
// Writes are targeted updates of known fields, never blind row overwrites,
// so concurrent writers cannot clobber each other's unrelated fields.
type Repository interface {
	// GetBySubjectKey retrieves the grant for a subject key.
	// Returns (nil, nil) when no grant exists.
	GetBySubjectKey(ctx context.Context, key SubjectKey) (*Grant, error)

	// Create persists a new grant and assigns its ID. Creation is guarded
	// by a unique constraint on the subject key; a duplicate create fails
	// with a conflict error and the caller re-reads the surviving row.
	Create(ctx context.Context, g *Grant) error

	// SyncEntitlement writes the reconciled trial counter and access
	// windows for one row.
	SyncEntitlement(ctx context.Context, id uint, trialQuestions int, paidUntil, promoUntil *time.Time) error

	// SetAccountID fills in the account reference on a guest grant
	// (identity promotion). The subject key is untouched.
	SetAccountID(ctx context.Context, id uint, accountID string) error

	// SetTrialQuestions writes only the trial counter.
	SetTrialQuestions(ctx context.Context, id uint, trialQuestions int) error

	// ReKeySubject migrates a legacy grant row to a new subject key. Safe
	// to call when the source row no longer exists (idempotent).
	ReKeySubject(ctx context.Context, from, to SubjectKey) error
}
