package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"folio/internal/services"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	connManager *services.ConnectionManager
	startedAt   time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(connManager *services.ConnectionManager) *HealthHandler {
	return &HealthHandler{
		connManager: connManager,
		startedAt:   time.Now(),
	}
}

// Handle handles GET /health
func (h *HealthHandler) Handle(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
		"ws_connections": h.connManager.Count(),
	})
}
