package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"amica/internal/application/billing/paymentgateway"
	"amica/internal/application/billing/usecases"
	"amica/internal/interfaces/http/middleware"
	"amica/internal/shared/biztime"
	"amica/internal/shared/logger"
	"amica/internal/shared/utils"
)

// BillingHandler handles checkout creation, the inbound payment callback
// and the client-side status poll.
type BillingHandler struct {
	createCheckoutUC *usecases.CreateCheckoutUseCase
	handleCallbackUC *usecases.HandleCallbackUseCase
	pollStatusUC     *usecases.PollOrderStatusUseCase
	gateway          paymentgateway.PaymentGateway
	logger           logger.Interface
}

func NewBillingHandler(
	createCheckoutUC *usecases.CreateCheckoutUseCase,
	handleCallbackUC *usecases.HandleCallbackUseCase,
	pollStatusUC *usecases.PollOrderStatusUseCase,
	gateway paymentgateway.PaymentGateway,
	logger logger.Interface,
) *BillingHandler {
	return &BillingHandler{
		createCheckoutUC: createCheckoutUC,
		handleCallbackUC: handleCallbackUC,
		pollStatusUC:     pollStatusUC,
		gateway:          gateway,
		logger:           logger,
	}
}

type checkoutRequest struct {
	PlanID string `json:"planId" binding:"required,alphanum"`
}

// CreateCheckout handles POST /api/billing/checkout
func (h *BillingHandler) CreateCheckout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	session, err := h.createCheckoutUC.Execute(c.Request.Context(), usecases.CheckoutCommand{
		PlanID:      req.PlanID,
		DeviceToken: middleware.DeviceToken(c),
		AccountID:   middleware.AccountID(c),
	})
	if err != nil {
		h.logger.Errorw("failed to create checkout", "plan_id", req.PlanID, "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", gin.H{
		"reference": session.Reference,
		"form":      session.Form,
	})
}

// HandleCallback handles POST /api/billing/callback.
//
// The response is the gateway's expected acknowledgement shape, not the API
// envelope: anything else and the gateway keeps retrying. Internal failures
// are logged and still acknowledged.
func (h *BillingHandler) HandleCallback(c *gin.Context) {
	cb, err := h.gateway.ParseCallback(c.Request)
	if err != nil {
		h.logger.Warnw("unparseable payment callback", "error", err)
		c.String(http.StatusBadRequest, "bad request")
		return
	}

	if err := h.handleCallbackUC.Execute(c.Request.Context(), cb); err != nil {
		h.logger.Errorw("payment callback processing failed",
			"reference", cb.OrderReference, "error", err)
	}

	c.JSON(http.StatusOK, h.gateway.AckResponse(cb.OrderReference, biztime.NowUTC()))
}

// PollStatus handles GET /api/billing/orders/:reference/status
func (h *BillingHandler) PollStatus(c *gin.Context) {
	result, err := h.pollStatusUC.Execute(c.Request.Context(), usecases.PollStatusCommand{
		OrderReference: c.Param("reference"),
		DeviceToken:    middleware.DeviceToken(c),
		AccountID:      middleware.AccountID(c),
	})
	if err != nil {
		h.logger.Warnw("order status poll failed",
			"reference", c.Param("reference"), "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", gin.H{
		"reference": result.Reference,
		"status":    result.Status.String(),
		"final":     result.Final,
		"message":   result.Message,
	})
}
