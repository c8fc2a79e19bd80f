package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ledgerscope/internal/infrastructure/storage/postgres"
)

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	pool            *postgres.Pool
	odooConfigured  bool
	nmbrsConfigured bool
	started         time.Time
}

// NewHealthHandler creates a health handler. pool may be nil when
// budgets run in memory.
func NewHealthHandler(pool *postgres.Pool, odooConfigured, nmbrsConfigured bool) *HealthHandler {
	return &HealthHandler{
		pool:            pool,
		odooConfigured:  odooConfigured,
		nmbrsConfigured: nmbrsConfigured,
		started:         time.Now(),
	}
}

// Live handles the liveness probe.
// GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready handles the readiness probe. The service is ready without any
// live backend (demo data serves every section), so only a configured
// database gates readiness.
// GET /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	checks := map[string]string{}

	if h.pool != nil {
		if err := h.pool.Ping(c.Request.Context()); err != nil {
			checks["database"] = "unhealthy: " + err.Error()
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "error",
				"checks": checks,
			})
			return
		}
		checks["database"] = "healthy"
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"checks": checks,
	})
}

// Info reports build and wiring information.
// GET /health/info
func (h *HealthHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":        "ledgerscope",
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
		"backends": gin.H{
			"odoo":     h.odooConfigured,
			"nmbrs":    h.nmbrsConfigured,
			"postgres": h.pool != nil,
		},
	})
}
