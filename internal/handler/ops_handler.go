package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/studentms/internal/service"
	"github.com/noah-isme/studentms/pkg/response"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// OpsHandler exposes health and observability endpoints.
type OpsHandler struct {
	metrics *service.MetricsService
	db      Pinger
}

// NewOpsHandler constructs an ops handler. db may be nil.
func NewOpsHandler(metrics *service.MetricsService, db Pinger) *OpsHandler {
	return &OpsHandler{metrics: metrics, db: db}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *OpsHandler) Prometheus(c *gin.Context) {
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Snapshot godoc
// @Summary Metrics summary
// @Tags Ops
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /metrics/summary [get]
func (h *OpsHandler) Snapshot(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.metrics.Snapshot(), nil)
}

// Health godoc
// @Summary Liveness and database reachability
// @Tags Ops
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /health [get]
func (h *OpsHandler) Health(c *gin.Context) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "unreachable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
