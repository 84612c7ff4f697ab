package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newKeyRouter(apiKey string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(APIKey(apiKey))
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"authenticated": c.GetBool(AuthenticatedKey)})
	})
	return router
}

func TestAPIKey(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		headers    map[string]string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "key header",
			configured: "secret",
			headers:    map[string]string{APIKeyHeader: "secret"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "bearer token",
			configured: "secret",
			headers:    map[string]string{"Authorization": "Bearer secret"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing key",
			configured: "secret",
			wantStatus: http.StatusUnauthorized,
			wantCode:   "AUTH_REQUIRED",
		},
		{
			name:       "non bearer authorization",
			configured: "secret",
			headers:    map[string]string{"Authorization": "Basic c2VjcmV0"},
			wantStatus: http.StatusUnauthorized,
			wantCode:   "AUTH_REQUIRED",
		},
		{
			name:       "wrong key",
			configured: "secret",
			headers:    map[string]string{APIKeyHeader: "guess"},
			wantStatus: http.StatusUnauthorized,
			wantCode:   "UNAUTHORIZED",
		},
		{
			name:       "no key configured",
			configured: "",
			headers:    map[string]string{APIKeyHeader: "anything"},
			wantStatus: http.StatusUnauthorized,
			wantCode:   "UNAUTHORIZED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newKeyRouter(tt.configured)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode != "" {
				assert.Contains(t, w.Body.String(), tt.wantCode)
			} else {
				assert.JSONEq(t, `{"authenticated": true}`, w.Body.String())
			}
		})
	}
}
