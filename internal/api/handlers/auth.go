package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"ecobeehub/internal/auth"
	"ecobeehub/internal/ecobee"

	"github.com/gin-gonic/gin"
)

// AuthState reports the authorization state
type AuthState interface {
	Status() auth.Status
}

// PinStarter starts a background PIN authorization
type PinStarter interface {
	Start(ctx context.Context) (*auth.AuthorizationRequest, error)
}

// AuthHandler handles ecobee authorization operations
type AuthHandler struct {
	state  AuthState
	pin    PinStarter
	logger *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(state AuthState, pin PinStarter, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		state:  state,
		pin:    pin,
		logger: logger,
	}
}

// GetStatus returns the state of the ecobee tokens
// GET /auth/status
func (h *AuthHandler) GetStatus(c *gin.Context) {
	status := h.state.Status()

	var tokenStatus string
	switch {
	case !status.Authorized:
		tokenStatus = "missing"
	case status.Refreshing:
		tokenStatus = "refreshing"
	case status.Valid:
		tokenStatus = "valid"
	default:
		tokenStatus = "expired"
	}

	response := gin.H{
		"authorized":   status.Authorized,
		"token_status": tokenStatus,
	}
	if status.Expires != nil {
		response["expires"] = status.Expires
		response["token_type"] = status.TokenType
	}
	if status.Pending != nil {
		response["pending"] = status.Pending
	}
	if !status.Authorized && status.Pending == nil {
		response["message"] = "No ecobee authorization. Use POST /v1/auth/pin to start one."
	}

	c.JSON(http.StatusOK, response)
}

// StartPin requests a PIN and waits for approval in the background
// POST /auth/pin
func (h *AuthHandler) StartPin(c *gin.Context) {
	req, err := h.pin.Start(c.Request.Context())
	if errors.Is(err, auth.ErrFlowRunning) {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "PIN authorization already in progress",
			"code":    "PIN_PENDING",
			"pending": req,
		})
		return
	}
	if errors.Is(err, auth.ErrNoCredentials) {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "ecobee client credentials are not configured",
			"code":  "NO_CREDENTIALS",
		})
		return
	}
	if err != nil {
		h.logger.Error("Failed to start PIN authorization",
			"component", "api.auth",
			"error", err,
		)
		response := gin.H{
			"error": "Failed to request PIN",
			"code":  "UPSTREAM_ERROR",
		}
		if vendorErr, ok := ecobee.AsVendorError(err); ok {
			response["vendor_code"] = vendorErr.Code
		}
		c.JSON(http.StatusBadGateway, response)
		return
	}

	h.logger.Info("PIN authorization started",
		"component", "api.auth",
		"pin_session", req.ID,
	)

	c.JSON(http.StatusAccepted, gin.H{
		"message":    "Enter the PIN at ecobee.com under My Apps > Add Application",
		"pin":        req.PIN,
		"session_id": req.ID,
		"expires_in": int(req.ExpiresIn.Seconds()),
	})
}
