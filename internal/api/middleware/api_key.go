package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// APIKeyHeader carries the hub API key
	APIKeyHeader = "X-Ecobeehub-Key"
	// AuthenticatedKey is set in the context once the key is accepted
	AuthenticatedKey = "authenticated"
)

// APIKey validates the hub API key from the X-Ecobeehub-Key header or an
// Authorization Bearer header.
func APIKey(apiKey string) gin.HandlerFunc {
	expected := []byte(apiKey)

	return func(c *gin.Context) {
		provided := c.GetHeader(APIKeyHeader)
		if provided == "" {
			// Fall back to Bearer scheme
			const bearerPrefix = "Bearer "
			if authHeader := c.GetHeader("Authorization"); strings.HasPrefix(authHeader, bearerPrefix) {
				provided = strings.TrimPrefix(authHeader, bearerPrefix)
			}
		}

		if provided == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "API key required",
				"code":  "AUTH_REQUIRED",
			})
			c.Abort()
			return
		}

		if len(expected) == 0 || subtle.ConstantTimeCompare([]byte(provided), expected) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Unauthorized",
				"code":  "UNAUTHORIZED",
			})
			c.Abort()
			return
		}

		c.Set(AuthenticatedKey, true)
		c.Next()
	}
}
