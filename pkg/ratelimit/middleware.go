package ratelimit

import (
	"fmt"
	"net/http"
	"strings"

	"ticketd/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

// Middleware applies per-route-class rate limits to every request.
func Middleware(rateLimiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		limitType := getRateLimitType(c.FullPath())

		result, err := rateLimiter.IsAllowed(c.Request.Context(), clientIP, limitType)
		if err != nil {
			// Fail open: a broken limiter must not take the booking flow down.
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", result.Limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", result.Remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", result.ResetTime))

		if !result.Allowed {
			response.RespondJSON(c, "error", http.StatusTooManyRequests,
				"Rate limit exceeded", nil, map[string]interface{}{
					"limit":      result.Limit,
					"reset_time": result.ResetTime,
				})
			c.Abort()
			return
		}

		c.Next()
	}
}

// getRateLimitType classifies a route path into a limit class. The reserve,
// confirm, and cancel endpoints get the strictest budget.
func getRateLimitType(path string) RateLimitType {
	switch {
	case strings.HasPrefix(path, "/health"),
		strings.HasPrefix(path, "/ping"),
		strings.HasPrefix(path, "/status"):
		return RateLimitTypeHealth

	case strings.Contains(path, "/admin/"):
		return RateLimitTypeAdmin

	case strings.Contains(path, "/bookings/reserve"),
		strings.Contains(path, "/confirm"),
		strings.Contains(path, "/cancel"):
		return RateLimitTypeBooking

	case strings.Contains(path, "/events"),
		strings.Contains(path, "/availability"):
		return RateLimitTypePublic

	default:
		return RateLimitTypeDefault
	}
}
