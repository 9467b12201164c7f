package paymentgateway

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	vo "amica/internal/domain/order/valueobjects"
)

// SignatureState classifies the authenticity check of an inbound callback.
// Anything but SignatureOK means the notification is recorded but never
// extends a grant.
type SignatureState string

const (
	SignatureOK            SignatureState = "ok"
	SignatureInvalid       SignatureState = "invalid"
	SignatureSecretMissing SignatureState = "secret_missing"
)

// CallbackData is the parsed payment notification from the gateway.
// String fields keep the exact wire form: the signature is computed over
// the values as the gateway sent them.
type CallbackData struct {
	MerchantAccount   string
	OrderReference    string
	Amount            string
	Currency          string
	AuthCode          string
	CardPan           string
	TransactionStatus string
	ReasonCode        string
	Signature         string

	SignatureState SignatureState
	Raw            json.RawMessage
}

// AckResponse is the acknowledgement shape the gateway expects back.
// Returned regardless of internal outcome to stop gateway-side retries.
type AckResponse struct {
	OrderReference string `json:"orderReference"`
	Status         string `json:"status"`
	Time           int64  `json:"time"`
	Signature      string `json:"signature"`
}

// StatusResult is the outcome of an on-demand status query.
type StatusResult struct {
	OrderReference    string
	TransactionStatus string
	MappedStatus      vo.OrderStatus
	Recognized        bool
	Raw               json.RawMessage
}

// PurchaseRequest describes the checkout the purchase form is built for.
type PurchaseRequest struct {
	OrderReference string
	OrderDate      int64
	Amount         vo.Money
	ProductName    string
}

// PurchaseForm carries the signed fields the client posts to the gateway's
// payment page.
type PurchaseForm struct {
	MerchantAccount    string `json:"merchantAccount"`
	MerchantDomainName string `json:"merchantDomainName"`
	OrderReference     string `json:"orderReference"`
	OrderDate          int64  `json:"orderDate"`
	Amount             string `json:"amount"`
	Currency           string `json:"currency"`
	ProductName        string `json:"productName"`
	ProductCount       string `json:"productCount"`
	ProductPrice       string `json:"productPrice"`
	Signature          string `json:"merchantSignature"`
}

// PaymentGateway defines the integration surface with the payment provider.
type PaymentGateway interface {
	// ParseCallback parses and authenticates an inbound notification.
	// A bad or missing signature is reported in CallbackData.SignatureState,
	// not as an error: the handler still has to acknowledge the gateway.
	ParseCallback(req *http.Request) (*CallbackData, error)

	// AckResponse builds the signed acknowledgement for a callback.
	AckResponse(orderReference string, now time.Time) AckResponse

	// CheckStatus actively queries the gateway for an order's current
	// status. The outbound call is bounded by the configured timeout.
	CheckStatus(ctx context.Context, orderReference string) (*StatusResult, error)

	// BuildPurchase assembles the signed purchase-form fields for checkout.
	BuildPurchase(req PurchaseRequest) PurchaseForm
}

// MapStatus translates the gateway's transaction-status vocabulary into the
// internal order status. The second return is false for values outside the
// documented vocabulary; those map to Unknown and are never treated as
// success.
func MapStatus(transactionStatus string) (vo.OrderStatus, bool) {
	switch transactionStatus {
	case "Approved":
		return vo.OrderStatusPaid, true
	case "Declined", "Expired":
		return vo.OrderStatusFailed, true
	case "Refunded", "Voided", "RefundInProcessing":
		return vo.OrderStatusRefunded, true
	case "InProcessing", "Pending", "WaitingAuthComplete":
		return vo.OrderStatusPending, true
	default:
		return vo.OrderStatusUnknown, false
	}
}
