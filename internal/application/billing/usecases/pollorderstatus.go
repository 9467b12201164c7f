package usecases

import (
	"context"

	"amica/internal/application/billing/paymentgateway"
	"amica/internal/domain/order"
	vo "amica/internal/domain/order/valueobjects"
	apperrors "amica/internal/shared/errors"
	"amica/internal/shared/logger"
)

// PollStatusCommand asks what happened to an order, typically when the
// purchaser returns from the payment page before the callback lands.
type PollStatusCommand struct {
	OrderReference string
	DeviceToken    string
	AccountID      *string
}

// PollStatusResult reports the order's status after the gateway query.
// Final tells callers whether polling again could change the answer.
type PollStatusResult struct {
	Reference string
	Status    vo.OrderStatus
	Final     bool
	Message   string
}

// PollOrderStatusUseCase is the pull counterpart of the callback handler:
// it queries the gateway for the order's current status and runs the same
// fulfillment step the callback path uses.
type PollOrderStatusUseCase struct {
	orderRepo   order.Repository
	gateway     paymentgateway.PaymentGateway
	fulfillment *FulfillmentService
	logger      logger.Interface
}

func NewPollOrderStatusUseCase(
	orderRepo order.Repository,
	gateway paymentgateway.PaymentGateway,
	fulfillment *FulfillmentService,
	logger logger.Interface,
) *PollOrderStatusUseCase {
	return &PollOrderStatusUseCase{
		orderRepo:   orderRepo,
		gateway:     gateway,
		fulfillment: fulfillment,
		logger:      logger,
	}
}

func (uc *PollOrderStatusUseCase) Execute(ctx context.Context, cmd PollStatusCommand) (*PollStatusResult, error) {
	if cmd.OrderReference == "" {
		return nil, apperrors.NewValidationError("order reference is required")
	}

	ord, err := uc.orderRepo.GetByReference(ctx, cmd.OrderReference)
	if err != nil {
		return nil, err
	}
	if ord == nil {
		// Never fabricate an order (or a grant) for a reference we did not
		// issue.
		return nil, apperrors.NewOrderNotFoundError(cmd.OrderReference)
	}

	// The purchaser may have signed in since checkout; attach their account
	// so the paid window lands on the account grant too. An order recovered
	// from an orphan callback has no device either; the polling device
	// claims it.
	changed := ord.BackfillDevice(cmd.DeviceToken)
	if cmd.AccountID != nil && ord.BackfillUser(*cmd.AccountID) {
		changed = true
	}
	if changed {
		if err := uc.orderRepo.Update(ctx, ord); err != nil {
			uc.logger.Warnw("failed to backfill order subjects",
				"reference", ord.Reference(), "error", err)
		}
	}

	if !ord.Status().IsTerminal() {
		res, err := uc.gateway.CheckStatus(ctx, ord.Reference())
		if err != nil {
			return nil, err
		}

		if err := uc.fulfillment.Apply(ctx, ord, res.MappedStatus, res.Raw); err != nil {
			return nil, err
		}
	}

	status := ord.Status()
	return &PollStatusResult{
		Reference: ord.Reference(),
		Status:    status,
		Final:     status.IsTerminal(),
		Message:   status.Message(),
	}, nil
}
