package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/streamkit/component"
	"github.com/kbukum/streamkit/version"
)

// HealthChecker returns the health of every registered component.
type HealthChecker func(ctx context.Context) []component.Health

// Health aggregates component health. Any unhealthy component turns the
// response into a 503.
func Health(service string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := component.StatusHealthy
		var components []component.Health
		if checker != nil {
			components = checker(c.Request.Context())
		}
		for _, h := range components {
			switch h.Status {
			case component.StatusUnhealthy:
				status = component.StatusUnhealthy
			case component.StatusDegraded:
				if status != component.StatusUnhealthy {
					status = component.StatusDegraded
				}
			}
		}

		code := http.StatusOK
		if status == component.StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":     status,
			"service":    service,
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
			"components": components,
		})
	}
}

// Version reports build information.
func Version() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, version.Get())
	}
}
