package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"ecobeehub/internal/storage"

	"github.com/gin-gonic/gin"
)

// NoticeLister lists user-facing notices
type NoticeLister interface {
	ListNotices(ctx context.Context) ([]*storage.Notice, error)
}

// NoticesHandler handles notice queries
type NoticesHandler struct {
	notices NoticeLister
	logger  *slog.Logger
}

// NewNoticesHandler creates a new notices handler
func NewNoticesHandler(notices NoticeLister, logger *slog.Logger) *NoticesHandler {
	return &NoticesHandler{
		notices: notices,
		logger:  logger,
	}
}

// ListNotices returns every pending notice
// GET /notices
func (h *NoticesHandler) ListNotices(c *gin.Context) {
	notices, err := h.notices.ListNotices(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list notices",
			"component", "api",
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve notices",
			"code":  "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, notices)
}
