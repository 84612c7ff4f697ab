package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	auth AuthState
}

// NewHealthHandler creates a new health handler. auth may be nil.
func NewHealthHandler(auth AuthState) *HealthHandler {
	return &HealthHandler{auth: auth}
}

// GetHealth returns the health status of the service
// GET /health
func (h *HealthHandler) GetHealth(c *gin.Context) {
	response := gin.H{
		"status":  "UP",
		"service": "ecobeehub",
	}
	if h.auth != nil {
		response["authorized"] = h.auth.Status().Authorized
	}
	c.JSON(http.StatusOK, response)
}
