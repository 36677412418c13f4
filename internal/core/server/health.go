package server

import (
	"context"
	"net/http"
	"time"

	"freightdesk/internal/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Pinger is a dependency the health check can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

// Ping calls f.
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthStatus is the body of GET /healthz.
type HealthStatus struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

const healthTimeout = 2 * time.Second

// Health answers GET /healthz. Every named dependency is pinged; any failure
// turns the answer into 503.
//
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} server.Envelope
// @Failure 503 {object} server.Envelope
// @Router /healthz [get]
func Health(deps map[string]Pinger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
		defer cancel()

		res := HealthStatus{Status: "ok", Checks: make(map[string]string, len(deps))}
		for name, dep := range deps {
			if err := dep.Ping(ctx); err != nil {
				logger.Get().Warn("Health check failed", zap.String("dependency", name), zap.Error(err))
				res.Status = "degraded"
				res.Checks[name] = "down"
				continue
			}
			res.Checks[name] = "up"
		}

		status := http.StatusOK
		if res.Status != "ok" {
			status = http.StatusServiceUnavailable
		}
		return c.Status(status).JSON(Envelope{OK: status == http.StatusOK, Data: res})
	}
}
