package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Pinger verifies a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	ledger Pinger
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(ledger Pinger) *HealthHandler {
	return &HealthHandler{
		ledger: ledger,
	}
}

// Health handles GET /health.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "stakeinnature-validation",
	})
}

// Ready handles GET /ready; it verifies the ledger RPC link.
func (h *HealthHandler) Ready(c *gin.Context) {
	if err := h.ledger.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}
