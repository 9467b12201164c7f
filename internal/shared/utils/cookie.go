package utils

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"amica/internal/shared/config"
	"amica/internal/shared/constants"
)

// GetDeviceToken reads the device identity cookie. Empty string when absent.
func GetDeviceToken(c *gin.Context) string {
	token, err := c.Cookie(constants.DeviceCookieName)
	if err != nil {
		return ""
	}
	return token
}

// SetDeviceCookie issues the long-lived device identity cookie. Callers must
// only do this when the cookie is absent; the token is set once per device.
func SetDeviceCookie(c *gin.Context, cookieConfig config.CookieConfig, token string) {
	c.SetSameSite(parseSameSite(cookieConfig.SameSite))
	c.SetCookie(
		constants.DeviceCookieName,
		token,
		constants.DeviceCookieMaxAge,
		cookieConfig.Path,
		cookieConfig.Domain,
		cookieConfig.Secure,
		true, // HttpOnly
	)
}

// GetSessionToken reads the identity provider's session token from the
// session cookie, falling back to the Authorization header.
func GetSessionToken(c *gin.Context) string {
	if token, err := c.Cookie("session_token"); err == nil && token != "" {
		return token
	}

	authHeader := c.GetHeader(constants.HeaderAuthorization)
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

func parseSameSite(value string) http.SameSite {
	switch value {
	case "Strict", "strict":
		return http.SameSiteStrictMode
	case "None", "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
