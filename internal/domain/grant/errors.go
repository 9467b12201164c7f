package grant

import "errors"

var (
	// ErrGrantNotFound is returned when a grant is not found
	ErrGrantNotFound = errors.New("grant not found")

	// ErrSubjectKeyRequired is returned when the subject key is missing
	ErrSubjectKeyRequired = errors.New("subject key is required")

	// ErrDuplicateSubjectKey is returned when a grant already exists for a
	// subject key. Exactly one grant exists per distinct subject key.
	ErrDuplicateSubjectKey = errors.New("grant already exists for subject key")
)
