package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	limiter "github.com/sethvargo/go-limiter"
)

// RateLimit limits requests per client IP using the given token store.
// Rejected requests get 429 with Retry-After.
func RateLimit(store limiter.Store, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()

		limit, remaining, reset, ok, err := store.Take(c.Request.Context(), key)
		if err != nil {
			// Fail open, the limiter only guards vendor API usage
			logger.Error("Rate limiter failed",
				"component", "api",
				"request_id", c.GetString(RequestIDKey),
				"error", err,
			)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatUint(limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatUint(remaining, 10))

		if !ok {
			retryAfter := time.Until(time.Unix(0, int64(reset)))
			if retryAfter < time.Second {
				retryAfter = time.Second
			}
			c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests",
				"code":  "RATE_LIMITED",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
