package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amica/internal/infrastructure/auth"
	"amica/internal/shared/config"
	"amica/internal/shared/constants"
	"amica/internal/shared/logger"
)

const testSessionSecret = "test-session-secret"

func identityRouter() (*gin.Engine, *captured) {
	gin.SetMode(gin.TestMode)

	m := NewIdentityMiddleware(
		auth.NewSessionVerifier(testSessionSecret),
		config.CookieConfig{Path: "/", SameSite: "Lax"},
		logger.NewLogger(),
	)

	cap := &captured{}
	r := gin.New()
	r.GET("/whoami", m.Resolve(), func(c *gin.Context) {
		cap.deviceToken = DeviceToken(c)
		cap.accountID = AccountID(c)
		c.Status(http.StatusNoContent)
	})
	return r, cap
}

type captured struct {
	deviceToken string
	accountID   *string
}

func TestIdentity_MintsDeviceCookieOnce(t *testing.T) {
	r, cap := identityRouter()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))

	assert.NotEmpty(t, cap.deviceToken)
	assert.Nil(t, cap.accountID)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, constants.DeviceCookieName, cookies[0].Name)
	assert.Equal(t, cap.deviceToken, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)

	// A request that carries the cookie gets no new one.
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, cookies[0].Value, cap.deviceToken)
	assert.Empty(t, w.Result().Cookies(), "the device token is set exactly once")
}

func TestIdentity_ResolvesSessionToken(t *testing.T) {
	r, cap := identityRouter()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.SessionClaims{
		AccountID: "acct-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(testSessionSecret))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: "session_token", Value: token})
	r.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, cap.accountID)
	assert.Equal(t, "acct-1", *cap.accountID)
}

func TestIdentity_BearerHeaderFallback(t *testing.T) {
	r, cap := identityRouter()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.SessionClaims{
		AccountID: "acct-2",
	}).SignedString([]byte(testSessionSecret))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, cap.accountID)
	assert.Equal(t, "acct-2", *cap.accountID)
}

func TestIdentity_BadSessionTokenDegradesToGuest(t *testing.T) {
	r, cap := identityRouter()

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: "session_token", Value: "tampered.token.value"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code, "a bad session never fails the request")
	assert.Nil(t, cap.accountID)
	assert.NotEmpty(t, cap.deviceToken)
}
