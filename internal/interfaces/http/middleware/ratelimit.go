package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"amica/internal/infrastructure/ratelimit"
	"amica/internal/shared/logger"
	"amica/internal/shared/utils"
)

// RateLimit enforces a per-IP request budget on routes that fan out to the
// payment gateway, so a polling client cannot hammer the gateway through
// us. An unavailable limiter admits the request rather than blocking all
// traffic.
func RateLimit(limiter ratelimit.RateLimiter, cfg ratelimit.RateLimitConfig, log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()

		allowed, err := limiter.Allow(c.Request.Context(), key, cfg)
		if err != nil {
			log.Warnw("rate limiter unavailable, admitting request", "error", err)
			c.Next()
			return
		}

		if !allowed {
			utils.ErrorResponse(c, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
			c.Abort()
			return
		}

		c.Next()
	}
}
