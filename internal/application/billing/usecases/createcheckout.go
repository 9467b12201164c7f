package usecases

import (
	"context"
	"fmt"

	"amica/internal/application/billing/paymentgateway"
	"amica/internal/domain/order"
	vo "amica/internal/domain/order/valueobjects"
	"amica/internal/shared/config"
	apperrors "amica/internal/shared/errors"
	"amica/internal/shared/logger"
)

// CheckoutCommand starts a purchase for the current subject.
type CheckoutCommand struct {
	PlanID      string
	DeviceToken string
	AccountID   *string
}

// CheckoutSession is what the client needs to hand the purchaser over to
// the gateway's payment page.
type CheckoutSession struct {
	Reference string
	Form      paymentgateway.PurchaseForm
}

// CreateCheckoutUseCase creates a pending order and builds the signed
// purchase form for it.
type CreateCheckoutUseCase struct {
	orderRepo order.Repository
	gateway   paymentgateway.PaymentGateway
	plans     map[string]config.PlanConfig
	logger    logger.Interface
}

func NewCreateCheckoutUseCase(
	orderRepo order.Repository,
	gateway paymentgateway.PaymentGateway,
	plans map[string]config.PlanConfig,
	logger logger.Interface,
) *CreateCheckoutUseCase {
	return &CreateCheckoutUseCase{
		orderRepo: orderRepo,
		gateway:   gateway,
		plans:     plans,
		logger:    logger,
	}
}

func (uc *CreateCheckoutUseCase) Execute(ctx context.Context, cmd CheckoutCommand) (*CheckoutSession, error) {
	plan, ok := uc.plans[cmd.PlanID]
	if !ok {
		return nil, apperrors.NewValidationError("unknown plan", cmd.PlanID)
	}
	if cmd.DeviceToken == "" && cmd.AccountID == nil {
		return nil, apperrors.NewValidationError("identity unresolved", "no device token and not logged in")
	}

	var deviceHash *string
	if cmd.DeviceToken != "" {
		deviceHash = &cmd.DeviceToken
	}

	amount := vo.NewMoneyFromFloat(plan.Amount, plan.Currency)

	ord, err := order.NewOrder(cmd.PlanID, amount, deviceHash, cmd.AccountID)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid order", err.Error())
	}

	if err := uc.orderRepo.Create(ctx, ord); err != nil {
		if apperrors.IsConflictError(err) {
			// Reference collision within the same second; one retry with a
			// fresh random suffix is enough.
			ord, err = order.NewOrder(cmd.PlanID, amount, deviceHash, cmd.AccountID)
			if err != nil {
				return nil, apperrors.NewValidationError("invalid order", err.Error())
			}
			if err := uc.orderRepo.Create(ctx, ord); err != nil {
				return nil, err
			}
		} else {
			return nil, err
		}
	}

	form := uc.gateway.BuildPurchase(paymentgateway.PurchaseRequest{
		OrderReference: ord.Reference(),
		OrderDate:      ord.CreatedAt().Unix(),
		Amount:         amount,
		ProductName:    fmt.Sprintf("%s plan", cmd.PlanID),
	})

	uc.logger.Infow("checkout created",
		"reference", ord.Reference(), "plan_id", cmd.PlanID, "amount", amount.String())

	return &CheckoutSession{
		Reference: ord.Reference(),
		Form:      form,
	}, nil
}
