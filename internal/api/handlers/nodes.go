package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"ecobeehub/internal/nodes"

	"github.com/gin-gonic/gin"
)

// NodeStore is the read side of the node registry
type NodeStore interface {
	List() []*nodes.Node
	ListByParent(parent string) []*nodes.Node
	Get(address string) (*nodes.Node, error)
}

// NodesHandler handles node queries
type NodesHandler struct {
	nodes  NodeStore
	logger *slog.Logger
}

// NewNodesHandler creates a new nodes handler
func NewNodesHandler(nodes NodeStore, logger *slog.Logger) *NodesHandler {
	return &NodesHandler{
		nodes:  nodes,
		logger: logger,
	}
}

// ListNodes returns every node and its last reported values
// GET /nodes?parent=
func (h *NodesHandler) ListNodes(c *gin.Context) {
	var list []*nodes.Node
	if parent := c.Query("parent"); parent != "" {
		list = h.nodes.ListByParent(parent)
	} else {
		list = h.nodes.List()
	}

	if list == nil {
		list = []*nodes.Node{}
	}
	c.JSON(http.StatusOK, list)
}

// GetNode returns one node
// GET /nodes/:address
func (h *NodesHandler) GetNode(c *gin.Context) {
	address := c.Param("address")

	node, err := h.nodes.Get(address)
	if errors.Is(err, nodes.ErrNodeNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Node not found",
			"code":  "NOT_FOUND",
		})
		return
	}
	if err != nil {
		h.logger.Error("Failed to get node",
			"component", "api",
			"address", address,
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve node",
			"code":  "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, node)
}
