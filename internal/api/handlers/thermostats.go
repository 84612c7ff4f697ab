package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"ecobeehub/internal/core"
	"ecobeehub/internal/ecobee"

	"github.com/gin-gonic/gin"
)

// Orchestrator is the hub-side control surface for thermostats
type Orchestrator interface {
	Poll(ctx context.Context) (*core.PollResult, error)
	Discover(ctx context.Context) (*core.DiscoveryResult, error)
	UpdateThermostat(ctx context.Context, thermostatID string, body map[string]any) error
}

// ThermostatsHandler handles poll, discovery and command requests
type ThermostatsHandler struct {
	orchestrator Orchestrator
	logger       *slog.Logger
}

// NewThermostatsHandler creates a new thermostats handler
func NewThermostatsHandler(orchestrator Orchestrator, logger *slog.Logger) *ThermostatsHandler {
	return &ThermostatsHandler{
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// Poll runs one poll cycle immediately
// POST /poll
func (h *ThermostatsHandler) Poll(c *gin.Context) {
	result, err := h.orchestrator.Poll(c.Request.Context())
	if err != nil {
		h.respondError(c, "poll", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Discover enumerates thermostats and registers new nodes
// POST /discover
func (h *ThermostatsHandler) Discover(c *gin.Context) {
	result, err := h.orchestrator.Discover(c.Request.Context())
	if err != nil {
		h.respondError(c, "discover", err)
		return
	}
	if result.Busy {
		c.JSON(http.StatusAccepted, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// UpdateThermostat submits a command body (functions, thermostat
// settings) to one thermostat
// POST /thermostats/:id
func (h *ThermostatsHandler) UpdateThermostat(c *gin.Context) {
	thermostatID := c.Param("id")

	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"code":    "INVALID_REQUEST",
			"details": err.Error(),
		})
		return
	}

	if err := h.orchestrator.UpdateThermostat(c.Request.Context(), thermostatID, body); err != nil {
		h.respondError(c, "update_thermostat", err)
		return
	}

	h.logger.Info("Thermostat command submitted",
		"component", "api",
		"thermostat_id", thermostatID,
	)
	c.JSON(http.StatusOK, gin.H{
		"message":       "Command submitted",
		"thermostat_id": thermostatID,
	})
}

func (h *ThermostatsHandler) respondError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, core.ErrNotAuthorized):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Not authorized with ecobee. Start PIN authorization first.",
			"code":  "NOT_AUTHORIZED",
		})
		return
	case errors.Is(err, core.ErrThermostatUnknown):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Thermostat not found",
			"code":  "NOT_FOUND",
		})
		return
	case errors.Is(err, core.ErrInvalidCommand):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
			"code":  "INVALID_COMMAND",
		})
		return
	}

	h.logger.Error("Thermostat operation failed",
		"component", "api",
		"operation", op,
		"error", err,
	)

	response := gin.H{
		"error": "ecobee API request failed",
		"code":  "UPSTREAM_ERROR",
	}
	if vendorErr, ok := ecobee.AsVendorError(err); ok {
		response["vendor_code"] = vendorErr.Code
		response["vendor_message"] = vendorErr.Description
	}
	c.JSON(http.StatusBadGateway, response)
}
