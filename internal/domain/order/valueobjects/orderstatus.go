package valueobjects

// OrderStatus is the internal billing-order status vocabulary. Gateway
// statuses are mapped into this set at the edge; unrecognized values map
// to Unknown, never to a success state.
type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "pending"
	OrderStatusPaid     OrderStatus = "paid"
	OrderStatusFailed   OrderStatus = "failed"
	OrderStatusRefunded OrderStatus = "refunded"
	OrderStatusUnknown  OrderStatus = "unknown"

	// Callback bookkeeping statuses: the notification arrived but could
	// not be trusted. Recorded for audit, never extends a grant.
	OrderStatusCallbackReceived         OrderStatus = "callback_received"
	OrderStatusCallbackSignatureInvalid OrderStatus = "callback_signature_invalid"
	OrderStatusCallbackSecretMissing    OrderStatus = "callback_secret_missing"
)

func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the status is part of the internal vocabulary.
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusFailed, OrderStatusRefunded,
		OrderStatusUnknown, OrderStatusCallbackReceived,
		OrderStatusCallbackSignatureInvalid, OrderStatusCallbackSecretMissing:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are expected.
// Re-delivery of the same terminal status must be a safe no-op.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusPaid, OrderStatusFailed, OrderStatusRefunded:
		return true
	}
	return false
}

// Message returns the human-readable status line surfaced to callers of
// the status poll.
func (s OrderStatus) Message() string {
	switch s {
	case OrderStatusPaid:
		return "Payment received, access extended"
	case OrderStatusPending:
		return "Payment is still being processed, try again shortly"
	case OrderStatusFailed:
		return "Payment was declined"
	case OrderStatusRefunded:
		return "Payment was refunded"
	default:
		return "Payment status is unknown, contact support if this persists"
	}
}
