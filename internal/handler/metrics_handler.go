package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pdf-page-api/internal/service"
	appErrors "github.com/noah-isme/pdf-page-api/pkg/errors"
	"github.com/noah-isme/pdf-page-api/pkg/response"
)

type readinessGate interface {
	Ready() bool
}

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics *service.MetricsService
	gate    readinessGate
}

// NewMetricsHandler constructs a metrics handler. gate may be nil, in which case the service is
// always reported ready.
func NewMetricsHandler(metrics *service.MetricsService, gate readinessGate) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, gate: gate}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health godoc
// @Summary Liveness probe
// @Tags System
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready godoc
// @Summary Readiness probe
// @Description Reports ready once the metadata store is connected and migrated.
// @Tags System
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} response.ErrorBody
// @Router /ready [get]
func (h *MetricsHandler) Ready(c *gin.Context) {
	if h.gate != nil && !h.gate.Ready() {
		response.Error(c, appErrors.ErrNotReady)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
