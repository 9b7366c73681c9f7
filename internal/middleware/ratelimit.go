package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"favlinks/internal/services"

	"github.com/gin-gonic/gin"
)

// RateLimitMessage is the body returned with HTTP 429 by the request limiter.
const RateLimitMessage = "Too many requests from this IP, please try again after 15 minutes"

// RateLimit admits requests through limiter, keyed by client IP, and
// advertises the window state in RateLimit-* headers.
func RateLimit(limiter services.WindowLimiter, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		d, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			logger.Debug("Rate limiter degraded", "error", err)
		}

		reset := secondsUntil(d.ResetAt)
		c.Header("RateLimit-Limit", strconv.Itoa(d.Limit))
		c.Header("RateLimit-Remaining", strconv.Itoa(d.Remaining))
		c.Header("RateLimit-Reset", strconv.Itoa(reset))

		if !d.Allowed {
			c.Header("Retry-After", strconv.Itoa(reset))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": RateLimitMessage,
			})
			return
		}
		c.Next()
	}
}

// Throttle guards credential endpoints with a per-IP token bucket.
func Throttle(limiter *services.IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many attempts. Please try again later.",
			})
			return
		}
		c.Next()
	}
}

func secondsUntil(t time.Time) int {
	s := int(math.Ceil(time.Until(t).Seconds()))
	if s < 0 {
		return 0
	}
	return s
}
