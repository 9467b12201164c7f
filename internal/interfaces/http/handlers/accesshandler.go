package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"amica/internal/application/access/usecases"
	"amica/internal/interfaces/http/middleware"
	"amica/internal/shared/logger"
	"amica/internal/shared/utils"
)

// AccessHandler handles HTTP requests for the entitlement read model and
// trial consumption.
type AccessHandler struct {
	getSummaryUC   *usecases.GetAccessSummaryUseCase
	consumeTrialUC *usecases.ConsumeTrialUseCase
	logger         logger.Interface
}

func NewAccessHandler(
	getSummaryUC *usecases.GetAccessSummaryUseCase,
	consumeTrialUC *usecases.ConsumeTrialUseCase,
	logger logger.Interface,
) *AccessHandler {
	return &AccessHandler{
		getSummaryUC:   getSummaryUC,
		consumeTrialUC: consumeTrialUC,
		logger:         logger,
	}
}

// summaryResponse is the read model consumed by the UI.
type summaryResponse struct {
	Access             string  `json:"access"`
	HasAccess          bool    `json:"hasAccess"`
	TrialQuestionsLeft int     `json:"trialQuestionsLeft"`
	PaidUntil          *string `json:"paidUntil"`
	PromoUntil         *string `json:"promoUntil"`
	AccessUntil        *string `json:"accessUntil"`
	IsLoggedIn         bool    `json:"isLoggedIn"`
}

// GetSummary handles GET /api/access/summary
func (h *AccessHandler) GetSummary(c *gin.Context) {
	summary, err := h.getSummaryUC.Execute(c.Request.Context(), usecases.SummaryCommand{
		DeviceToken: middleware.DeviceToken(c),
		AccountID:   middleware.AccountID(c),
	})
	if err != nil {
		h.logger.Errorw("failed to build access summary", "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", summaryResponse{
		Access:             string(summary.Access),
		HasAccess:          summary.HasAccess,
		TrialQuestionsLeft: summary.TrialQuestionsLeft,
		PaidUntil:          formatTime(summary.PaidUntil),
		PromoUntil:         formatTime(summary.PromoUntil),
		AccessUntil:        formatTime(summary.AccessUntil),
		IsLoggedIn:         summary.IsLoggedIn,
	})
}

// ConsumeTrial handles POST /api/access/consume
func (h *AccessHandler) ConsumeTrial(c *gin.Context) {
	remaining, err := h.consumeTrialUC.Execute(c.Request.Context(), usecases.MergeCommand{
		DeviceToken: middleware.DeviceToken(c),
		AccountID:   middleware.AccountID(c),
	})
	if err != nil {
		h.logger.Errorw("failed to consume trial question", "error", err)
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", gin.H{
		"trialQuestionsLeft": remaining,
	})
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
