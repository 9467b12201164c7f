package usecases

import (
	"context"
	"strconv"

	"amica/internal/application/billing/paymentgateway"
	"amica/internal/domain/order"
	vo "amica/internal/domain/order/valueobjects"
	apperrors "amica/internal/shared/errors"
	"amica/internal/shared/logger"
)

// HandleCallbackUseCase processes one inbound payment notification. The
// caller acknowledges the gateway regardless of the outcome here; an error
// from Execute means "log it", never "reject the callback".
type HandleCallbackUseCase struct {
	orderRepo   order.Repository
	fulfillment *FulfillmentService
	logger      logger.Interface
}

func NewHandleCallbackUseCase(
	orderRepo order.Repository,
	fulfillment *FulfillmentService,
	logger logger.Interface,
) *HandleCallbackUseCase {
	return &HandleCallbackUseCase{
		orderRepo:   orderRepo,
		fulfillment: fulfillment,
		logger:      logger,
	}
}

func (uc *HandleCallbackUseCase) Execute(ctx context.Context, cb *paymentgateway.CallbackData) error {
	ord, err := uc.findOrCreateOrder(ctx, cb)
	if err != nil {
		return err
	}

	status := uc.resolveStatus(cb)

	return uc.fulfillment.Apply(ctx, ord, status, cb.Raw)
}

// resolveStatus picks the status to record. An untrusted signature pins the
// order to a bookkeeping status; the reported transaction status is never
// applied, so a forged "Approved" cannot elevate access.
func (uc *HandleCallbackUseCase) resolveStatus(cb *paymentgateway.CallbackData) vo.OrderStatus {
	switch cb.SignatureState {
	case paymentgateway.SignatureSecretMissing:
		uc.logger.Errorw("callback arrived but no merchant secret is configured",
			"reference", cb.OrderReference)
		return vo.OrderStatusCallbackSecretMissing
	case paymentgateway.SignatureInvalid:
		uc.logger.Warnw("callback signature mismatch",
			"reference", cb.OrderReference, "transaction_status", cb.TransactionStatus)
		return vo.OrderStatusCallbackSignatureInvalid
	}

	status, recognized := paymentgateway.MapStatus(cb.TransactionStatus)
	if !recognized {
		uc.logger.Warnw("unrecognized gateway transaction status",
			"reference", cb.OrderReference, "transaction_status", cb.TransactionStatus)
	}
	return status
}

// findOrCreateOrder resolves the order the callback refers to. A reference
// we have no row for still gets recorded for audit, with no subject to
// credit.
func (uc *HandleCallbackUseCase) findOrCreateOrder(ctx context.Context, cb *paymentgateway.CallbackData) (*order.Order, error) {
	ord, err := uc.orderRepo.GetByReference(ctx, cb.OrderReference)
	if err != nil {
		return nil, err
	}
	if ord != nil {
		return ord, nil
	}

	uc.logger.Warnw("callback for unknown order reference, recording orphan order",
		"reference", cb.OrderReference)

	amount, parseErr := strconv.ParseFloat(cb.Amount, 64)
	if parseErr != nil {
		amount = 0
	}

	ord, err = order.NewOrderFromCallback(cb.OrderReference, vo.NewMoneyFromFloat(amount, cb.Currency))
	if err != nil {
		return nil, apperrors.NewValidationError("malformed order reference", err.Error())
	}

	if err := uc.orderRepo.Create(ctx, ord); err != nil {
		if apperrors.IsConflictError(err) {
			// A concurrent delivery created the row first.
			return uc.orderRepo.GetByReference(ctx, cb.OrderReference)
		}
		return nil, err
	}
	return ord, nil
}
