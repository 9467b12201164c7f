package order

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	vo "amica/internal/domain/order/valueobjects"
	"amica/internal/shared/biztime"
	"amica/internal/shared/id"
)

// referencePrefix starts every order reference this service issues.
const referencePrefix = "ta"

// Order records one payment-gateway transaction attempt, tracked
// independently of the grant it may eventually extend.
type Order struct {
	id        uint
	reference string
	planID    string
	amount    vo.Money
	status    vo.OrderStatus

	// Subject the order credits once confirmed paid. Either may be nil;
	// userID is backfilled if the purchaser signs in later.
	deviceHash *string
	userID     *string

	raw       json.RawMessage
	createdAt time.Time
	updatedAt time.Time
}

// NewOrder creates a pending order at checkout time and assigns it a fresh
// reference embedding the plan id.
func NewOrder(planID string, amount vo.Money, deviceHash, userID *string) (*Order, error) {
	if planID == "" {
		return nil, fmt.Errorf("plan ID is required")
	}
	if strings.Contains(planID, "_") {
		return nil, fmt.Errorf("plan ID must not contain underscores: %q", planID)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("amount must be positive")
	}
	if deviceHash == nil && userID == nil {
		return nil, fmt.Errorf("order needs a device hash or a user id to credit")
	}

	now := biztime.NowUTC()
	return &Order{
		reference:  NewReference(planID, now),
		planID:     planID,
		amount:     amount,
		status:     vo.OrderStatusPending,
		deviceHash: deviceHash,
		userID:     userID,
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

// NewOrderFromCallback creates an order row for a notification whose
// reference we never issued locally (or whose row was lost). The plan id is
// recovered from the reference; there is no subject to credit, so the row is
// an audit record only.
func NewOrderFromCallback(reference string, amount vo.Money) (*Order, error) {
	planID, err := ParseReference(reference)
	if err != nil {
		return nil, err
	}

	now := biztime.NowUTC()
	return &Order{
		reference: reference,
		planID:    planID,
		amount:    amount,
		status:    vo.OrderStatusCallbackReceived,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// NewReference builds an order reference: prefix_{planId}_{unixts}_{random}.
func NewReference(planID string, now time.Time) string {
	suffix := strings.ToLower(id.MustGenerate(4))
	return fmt.Sprintf("%s_%s_%d_%s", referencePrefix, planID, now.Unix(), suffix)
}

// ParseReference extracts the plan id from an order reference.
func ParseReference(reference string) (planID string, err error) {
	parts := strings.Split(reference, "_")
	if len(parts) != 4 || parts[0] != referencePrefix {
		return "", fmt.Errorf("malformed order reference: %q", reference)
	}
	if parts[1] == "" {
		return "", fmt.Errorf("order reference carries no plan id: %q", reference)
	}
	if _, err := strconv.ParseInt(parts[2], 10, 64); err != nil {
		return "", fmt.Errorf("order reference timestamp is not numeric: %q", reference)
	}
	return parts[1], nil
}

// ReconstructParams carries persisted state back into the aggregate.
type ReconstructParams struct {
	ID         uint
	Reference  string
	PlanID     string
	Amount     vo.Money
	Status     vo.OrderStatus
	DeviceHash *string
	UserID     *string
	Raw        json.RawMessage
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ReconstructOrder rebuilds an order from persistence.
func ReconstructOrder(p ReconstructParams) (*Order, error) {
	if p.ID == 0 {
		return nil, fmt.Errorf("order ID cannot be zero")
	}
	if p.Reference == "" {
		return nil, fmt.Errorf("order reference is required")
	}
	status := p.Status
	if !status.IsValid() {
		status = vo.OrderStatusUnknown
	}

	return &Order{
		id:         p.ID,
		reference:  p.Reference,
		planID:     p.PlanID,
		amount:     p.Amount,
		status:     status,
		deviceHash: p.DeviceHash,
		userID:     p.UserID,
		raw:        p.Raw,
		createdAt:  p.CreatedAt,
		updatedAt:  p.UpdatedAt,
	}, nil
}

func (o *Order) ID() uint               { return o.id }
func (o *Order) Reference() string      { return o.reference }
func (o *Order) PlanID() string         { return o.planID }
func (o *Order) Amount() vo.Money       { return o.amount }
func (o *Order) Status() vo.OrderStatus { return o.status }
func (o *Order) DeviceHash() *string    { return o.deviceHash }
func (o *Order) UserID() *string        { return o.userID }
func (o *Order) Raw() json.RawMessage   { return o.raw }
func (o *Order) CreatedAt() time.Time   { return o.createdAt }
func (o *Order) UpdatedAt() time.Time   { return o.updatedAt }

// SetID sets the order ID (only for persistence layer use)
func (o *Order) SetID(orderID uint) error {
	if o.id != 0 {
		return fmt.Errorf("order ID is already set")
	}
	if orderID == 0 {
		return fmt.Errorf("order ID cannot be zero")
	}
	o.id = orderID
	return nil
}

// ApplyGatewayStatus records a gateway-reported status plus the raw payload
// it arrived in. It returns true only when the order transitions into paid
// for the first time; that single edge gates grant extension, which is how
// re-delivered notifications stay no-ops.
func (o *Order) ApplyGatewayStatus(status vo.OrderStatus, raw json.RawMessage) bool {
	if !status.IsValid() {
		status = vo.OrderStatusUnknown
	}

	if len(raw) > 0 {
		o.raw = raw
	}

	if o.status.IsTerminal() {
		// Terminal orders only record the redelivered payload.
		o.updatedAt = biztime.NowUTC()
		return false
	}

	becamePaid := status == vo.OrderStatusPaid && o.status != vo.OrderStatusPaid
	o.status = status
	o.updatedAt = biztime.NowUTC()
	return becamePaid
}

// BackfillDevice attaches a device to an order created without one, such
// as a row recovered from an orphan callback. No-op when already set.
func (o *Order) BackfillDevice(deviceToken string) bool {
	if deviceToken == "" || o.deviceHash != nil {
		return false
	}
	o.deviceHash = &deviceToken
	o.updatedAt = biztime.NowUTC()
	return true
}

// BackfillUser attaches the purchaser's account id once they have signed
// in. No-op when already set.
func (o *Order) BackfillUser(accountID string) bool {
	if accountID == "" || o.userID != nil {
		return false
	}
	o.userID = &accountID
	o.updatedAt = biztime.NowUTC()
	return true
}
