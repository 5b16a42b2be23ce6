package handler

import (
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether a dependency is usable.
type Pinger interface {
	Ping() error
}

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	ready  atomic.Bool
	checks map[string]Pinger
}

// NewHealthHandler creates a handler that is not ready until SetReady(true).
// checks are run on every readiness probe.
func NewHealthHandler(checks map[string]Pinger) *HealthHandler {
	h := &HealthHandler{checks: checks}
	h.ready.Store(false)
	return h
}

// SetReady flips the readiness flag.
func (h *HealthHandler) SetReady(ready bool) {
	h.ready.Store(ready)
}

// Live GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Ready GET /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if !h.ready.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "service initializing",
		})
		return
	}

	results := make(map[string]string, len(h.checks))
	allOK := true
	for name, p := range h.checks {
		if err := p.Ping(); err != nil {
			results[name] = err.Error()
			allOK = false
			continue
		}
		results[name] = "ok"
	}

	if !allOK {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"checks": results,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"checks": results,
	})
}
