package billing

import (
	"context"

	"amica/internal/domain/order"
)

// ReceiptNotifier sends the purchase receipt once an order is confirmed
// paid. Implementations resolve the recipient address from the account id;
// a nil notifier disables receipts entirely.
type ReceiptNotifier interface {
	SendReceipt(ctx context.Context, accountID string, o *order.Order) error
}
