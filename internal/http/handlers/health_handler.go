// README: Liveness and readiness probes.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Upstream reports whether the prediction endpoint is reachable.
type Upstream interface {
	Health(ctx context.Context) error
	BreakerState() string
}

type HealthHandler struct {
	upstream Upstream
}

func NewHealthHandler(upstream Upstream) *HealthHandler {
	return &HealthHandler{upstream: upstream}
}

// Health handles GET /health.
func (h *HealthHandler) Health(c *gin.Context) {
	writeJSON(c, http.StatusOK, gin.H{"status": "ok"})
}

// Ready handles GET /readyz.
func (h *HealthHandler) Ready(c *gin.Context) {
	if h.upstream == nil {
		writeJSON(c, http.StatusOK, gin.H{"status": "ok"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.upstream.Health(ctx); err != nil {
		_ = c.Error(err)
		writeJSON(c, http.StatusServiceUnavailable, gin.H{
			"status":  "unavailable",
			"error":   err.Error(),
			"breaker": h.upstream.BreakerState(),
		})
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"status": "ok", "breaker": h.upstream.BreakerState()})
}
