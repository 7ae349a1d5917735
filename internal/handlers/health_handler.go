package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
)

// PingFunc checks that the store is reachable.
type PingFunc func(ctx context.Context) error

// HealthHandler reports process and store health.
type HealthHandler struct {
	ping PingFunc
}

// NewHealthHandler creates a HealthHandler. A nil ping always reports the
// store as up.
func NewHealthHandler(ping PingFunc) *HealthHandler {
	return &HealthHandler{ping: ping}
}

// RegisterRoutes registers /health on router.
func (h *HealthHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/health", h.HandleHealth)
}

// HandleHealth answers 200 when the store responds and 503 otherwise.
func (h *HealthHandler) HandleHealth(c *fiber.Ctx) error {
	database := "connected"
	status := fiber.StatusOK
	if h.ping != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := h.ping(ctx); err != nil {
			log.WithError(err).Warn("health check: store unreachable")
			database = "unreachable"
			status = fiber.StatusServiceUnavailable
		}
	}

	health := "healthy"
	if status != fiber.StatusOK {
		health = "unhealthy"
	}
	return c.Status(status).JSON(fiber.Map{
		"status":   health,
		"time":     time.Now().Format(time.RFC3339),
		"database": database,
	})
}
