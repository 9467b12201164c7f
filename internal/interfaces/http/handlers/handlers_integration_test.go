package handlers

import (
	"crypto/hmac"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	accessusecases "amica/internal/application/access/usecases"
	"amica/internal/application/billing/paymentgateway"
	billingusecases "amica/internal/application/billing/usecases"
	"amica/internal/infrastructure/persistence/models"
	"amica/internal/infrastructure/repository"
	"amica/internal/shared/config"
	"amica/internal/shared/constants"
	"amica/internal/shared/logger"
)

const (
	testMerchantSecret = "flk3409refn54t54t*FNJRET"
	testTrialCeiling   = 5
)

type testEnv struct {
	router    *gin.Engine
	grantRepo *repository.GrantRepository
	orderRepo *repository.OrderRepository
}

// stubIdentity replaces the identity middleware: tests pass the subject via
// headers instead of cookies and session tokens.
func stubIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if device := c.GetHeader("X-Test-Device"); device != "" {
			c.Set(constants.ContextKeyDeviceToken, device)
		}
		if account := c.GetHeader("X-Test-Account"); account != "" {
			c.Set(constants.ContextKeyAccountID, account)
		}
		c.Next()
	}
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.GrantModel{}, &models.BillingOrderModel{}, &models.UserProfileModel{}))

	log := logger.NewLogger()
	grantRepo := repository.NewGrantRepository(db, testTrialCeiling)
	orderRepo := repository.NewOrderRepository(db)
	profileRepo := repository.NewProfileMirrorRepository(db)

	gateway := paymentgateway.NewWayForPayGateway(paymentgateway.WayForPayConfig{
		MerchantAccount: "test_merch",
		MerchantDomain:  "amica.example",
		MerchantSecret:  testMerchantSecret,
	}, log)

	plans := map[string]config.PlanConfig{
		"monthly": {Days: 31, Amount: 9.99, Currency: "USD"},
	}

	mergeUC := accessusecases.NewMergeGrantsUseCase(grantRepo, profileRepo, testTrialCeiling, log)
	summaryUC := accessusecases.NewGetAccessSummaryUseCase(mergeUC, testTrialCeiling, log)
	consumeUC := accessusecases.NewConsumeTrialUseCase(mergeUC, grantRepo, log)

	fulfillment := billingusecases.NewFulfillmentService(orderRepo, mergeUC, grantRepo, profileRepo, nil, plans, log)
	checkoutUC := billingusecases.NewCreateCheckoutUseCase(orderRepo, gateway, plans, log)
	callbackUC := billingusecases.NewHandleCallbackUseCase(orderRepo, fulfillment, log)
	pollUC := billingusecases.NewPollOrderStatusUseCase(orderRepo, gateway, fulfillment, log)

	accessHandler := NewAccessHandler(summaryUC, consumeUC, log)
	billingHandler := NewBillingHandler(checkoutUC, callbackUC, pollUC, gateway, log)

	r := gin.New()
	api := r.Group("/api", stubIdentity())
	api.GET("/access/summary", accessHandler.GetSummary)
	api.POST("/access/consume", accessHandler.ConsumeTrial)
	api.POST("/billing/checkout", billingHandler.CreateCheckout)
	api.POST("/billing/callback", billingHandler.HandleCallback)
	api.GET("/billing/orders/:reference/status", billingHandler.PollStatus)

	return &testEnv{router: r, grantRepo: grantRepo, orderRepo: orderRepo}
}

func (e *testEnv) do(t *testing.T, method, path, device, account string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if device != "" {
		req.Header.Set("X-Test-Device", device)
	}
	if account != "" {
		req.Header.Set("X-Test-Account", account)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope struct {
		Success bool           `json:"success"`
		Data    map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.True(t, envelope.Success)
	return envelope.Data
}

func signedCallbackBody(t *testing.T, reference, transactionStatus string) string {
	t.Helper()
	fields := []string{"test_merch", reference, "9.99", "USD", "123456", "41****1111", transactionStatus, "1100"}
	mac := hmac.New(md5.New, []byte(testMerchantSecret))
	mac.Write([]byte(strings.Join(fields, ";")))
	signature := hex.EncodeToString(mac.Sum(nil))

	body, err := json.Marshal(map[string]string{
		"merchantAccount":   "test_merch",
		"orderReference":    reference,
		"amount":            "9.99",
		"currency":          "USD",
		"authCode":          "123456",
		"cardPan":           "41****1111",
		"transactionStatus": transactionStatus,
		"reasonCode":        "1100",
		"merchantSignature": signature,
	})
	require.NoError(t, err)
	return string(body)
}

func TestAccessSummary_FreshGuest(t *testing.T) {
	env := setupEnv(t)

	w := env.do(t, http.MethodGet, "/api/access/summary", "dev-1", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	data := decodeData(t, w)
	assert.Equal(t, "Trial", data["access"])
	assert.Equal(t, true, data["hasAccess"])
	assert.Equal(t, float64(testTrialCeiling), data["trialQuestionsLeft"])
	assert.Equal(t, false, data["isLoggedIn"])
	assert.Nil(t, data["paidUntil"])
}

func TestConsumeTrial_EndToEnd(t *testing.T) {
	env := setupEnv(t)

	w := env.do(t, http.MethodPost, "/api/access/consume", "dev-1", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(4), decodeData(t, w)["trialQuestionsLeft"])

	w = env.do(t, http.MethodGet, "/api/access/summary", "dev-1", "", "")
	assert.Equal(t, float64(4), decodeData(t, w)["trialQuestionsLeft"])
}

func TestAccessSummary_LoginMergesGrants(t *testing.T) {
	env := setupEnv(t)

	// Burn two questions as a guest, then sign in.
	env.do(t, http.MethodPost, "/api/access/consume", "dev-1", "", "")
	env.do(t, http.MethodPost, "/api/access/consume", "dev-1", "", "")

	w := env.do(t, http.MethodGet, "/api/access/summary", "dev-1", "acct-1", "")
	data := decodeData(t, w)
	assert.Equal(t, float64(3), data["trialQuestionsLeft"], "the account inherits the depleted guest counter")
	assert.Equal(t, true, data["isLoggedIn"])

	// A second device under the same account sees the shared counter.
	w = env.do(t, http.MethodGet, "/api/access/summary", "dev-2", "acct-1", "")
	assert.Equal(t, float64(3), decodeData(t, w)["trialQuestionsLeft"])
}

func TestCheckout_Validation(t *testing.T) {
	env := setupEnv(t)

	w := env.do(t, http.MethodPost, "/api/billing/checkout", "dev-1", "", `{"planId":"no such plan!"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/billing/checkout", "dev-1", "", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPurchaseFlow_EndToEnd(t *testing.T) {
	env := setupEnv(t)

	// Checkout.
	w := env.do(t, http.MethodPost, "/api/billing/checkout", "dev-1", "", `{"planId":"monthly"}`)
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	reference, ok := data["reference"].(string)
	require.True(t, ok)
	form, ok := data["form"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "9.99", form["amount"])
	assert.NotEmpty(t, form["merchantSignature"])

	// Gateway confirms the payment.
	w = env.do(t, http.MethodPost, "/api/billing/callback", "", "", signedCallbackBody(t, reference, "Approved"))
	require.Equal(t, http.StatusOK, w.Code)

	var ack paymentgateway.AckResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ack))
	assert.Equal(t, reference, ack.OrderReference)
	assert.Equal(t, "accept", ack.Status)
	assert.NotEmpty(t, ack.Signature, "the ack is the gateway's shape, not the API envelope")

	// The summary now reports paid access.
	w = env.do(t, http.MethodGet, "/api/access/summary", "dev-1", "", "")
	data = decodeData(t, w)
	assert.Equal(t, "Paid", data["access"])
	require.NotNil(t, data["paidUntil"])

	paidUntil, err := time.Parse(time.RFC3339, data["paidUntil"].(string))
	require.NoError(t, err)
	assert.True(t, paidUntil.After(time.Now().UTC().AddDate(0, 0, 30)))

	// Poll reports the settled order without hitting the gateway.
	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/billing/orders/%s/status", reference), "dev-1", "", "")
	data = decodeData(t, w)
	assert.Equal(t, "paid", data["status"])
	assert.Equal(t, true, data["final"])
}

func TestCallback_RedeliveryIsIdempotent(t *testing.T) {
	env := setupEnv(t)

	w := env.do(t, http.MethodPost, "/api/billing/checkout", "dev-1", "", `{"planId":"monthly"}`)
	reference := decodeData(t, w)["reference"].(string)

	body := signedCallbackBody(t, reference, "Approved")
	env.do(t, http.MethodPost, "/api/billing/callback", "", "", body)

	w = env.do(t, http.MethodGet, "/api/access/summary", "dev-1", "", "")
	first := decodeData(t, w)["paidUntil"]

	env.do(t, http.MethodPost, "/api/billing/callback", "", "", body)

	w = env.do(t, http.MethodGet, "/api/access/summary", "dev-1", "", "")
	assert.Equal(t, first, decodeData(t, w)["paidUntil"], "the replayed callback does not extend again")
}

func TestCallback_ForgedSignatureNeverElevates(t *testing.T) {
	env := setupEnv(t)

	w := env.do(t, http.MethodPost, "/api/billing/checkout", "dev-1", "", `{"planId":"monthly"}`)
	reference := decodeData(t, w)["reference"].(string)

	body := signedCallbackBody(t, reference, "Approved")
	forged := strings.Replace(body, `"merchantSignature":"`, `"merchantSignature":"00`, 1)

	w = env.do(t, http.MethodPost, "/api/billing/callback", "", "", forged)
	assert.Equal(t, http.StatusOK, w.Code, "the gateway is still acknowledged")

	w = env.do(t, http.MethodGet, "/api/access/summary", "dev-1", "", "")
	data := decodeData(t, w)
	assert.Equal(t, "Trial", data["access"], "a forged Approved grants nothing")
	assert.Nil(t, data["paidUntil"])
}

func TestPollStatus_UnknownReference(t *testing.T) {
	env := setupEnv(t)

	w := env.do(t, http.MethodGet, "/api/billing/orders/ta_monthly_1717243200_zz12/status", "dev-1", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
