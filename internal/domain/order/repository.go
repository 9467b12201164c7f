package order

import "context"

// Repository defines the interface for billing-order persistence.
type Repository interface {
	// Create persists a new order and assigns its ID. The reference is the
	// natural key; duplicates fail with a conflict error.
	Create(ctx context.Context, o *Order) error

	// GetByReference retrieves an order by its reference.
	// Returns (nil, nil) when no order exists.
	GetByReference(ctx context.Context, reference string) (*Order, error)

	// Update writes the order's mutable fields (status, subject backfill,
	// raw payload audit trail).
	Update(ctx context.Context, o *Order) error
}
