package middleware

import (
	"github.com/gin-gonic/gin"

	"amica/internal/infrastructure/auth"
	"amica/internal/shared/config"
	"amica/internal/shared/constants"
	"amica/internal/shared/id"
	"amica/internal/shared/logger"
	"amica/internal/shared/utils"
)

// IdentityMiddleware resolves who is making the request: the device token
// from the long-lived cookie (minted here on first visit, set exactly
// once), and the account id from the identity provider's session token when
// one is present and valid.
type IdentityMiddleware struct {
	verifier *auth.SessionVerifier
	cookie   config.CookieConfig
	logger   logger.Interface
}

func NewIdentityMiddleware(verifier *auth.SessionVerifier, cookie config.CookieConfig, logger logger.Interface) *IdentityMiddleware {
	return &IdentityMiddleware{
		verifier: verifier,
		cookie:   cookie,
		logger:   logger,
	}
}

func (m *IdentityMiddleware) Resolve() gin.HandlerFunc {
	return func(c *gin.Context) {
		deviceToken := utils.GetDeviceToken(c)
		if deviceToken == "" {
			deviceToken = id.NewDeviceToken()
			utils.SetDeviceCookie(c, m.cookie, deviceToken)
			m.logger.Debugw("issued device cookie", "client_ip", c.ClientIP())
		}
		c.Set(constants.ContextKeyDeviceToken, deviceToken)

		// A bad session token degrades to guest, it never fails the request.
		if sessionToken := utils.GetSessionToken(c); sessionToken != "" {
			claims, err := m.verifier.Verify(sessionToken)
			if err != nil {
				m.logger.Debugw("session token rejected, continuing as guest", "error", err)
			} else {
				c.Set(constants.ContextKeyAccountID, claims.AccountID)
				if claims.Email != "" {
					c.Set(constants.ContextKeyAccountEmail, claims.Email)
				}
			}
		}

		c.Next()
	}
}

// DeviceToken reads the resolved device token from the request context.
func DeviceToken(c *gin.Context) string {
	return c.GetString(constants.ContextKeyDeviceToken)
}

// AccountID reads the resolved account id, nil when not logged in.
func AccountID(c *gin.Context) *string {
	v, exists := c.Get(constants.ContextKeyAccountID)
	if !exists {
		return nil
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	return &s
}
