package order

import "errors"

var (
	// ErrOrderNotFound is returned when no order exists for a reference
	ErrOrderNotFound = errors.New("order not found")

	// ErrDuplicateReference is returned when an order reference collides
	ErrDuplicateReference = errors.New("order reference already exists")
)
