package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"folio/internal/models"
	"folio/internal/services"
)

// AnalyticsHandler exposes the page-view sink to the SPA (track) and the
// admin dashboard (recent views).
type AnalyticsHandler struct {
	analytics *services.AnalyticsService
}

// NewAnalyticsHandler creates an analytics handler
func NewAnalyticsHandler(analytics *services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

type trackRequest struct {
	Path     string `json:"path"`
	Referrer string `json:"referrer,omitempty"`
}

// Track handles POST /api/analytics/track. The SPA reports client-side
// route changes here. Always accepted; the sink may drop under pressure.
func (h *AnalyticsHandler) Track(c *fiber.Ctx) error {
	var req trackRequest
	if err := c.BodyParser(&req); err != nil || req.Path == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Path is required"})
	}

	h.analytics.Track(models.PageView{
		Path:      req.Path,
		ClientIP:  c.IP(),
		UserAgent: c.Get("User-Agent"),
		Referrer:  req.Referrer,
	})

	return c.SendStatus(fiber.StatusAccepted)
}

// Recent handles GET /api/analytics/pageviews (admin only)
func (h *AnalyticsHandler) Recent(c *fiber.Ctx) error {
	views, err := h.analytics.Recent(c.Context(), 200)
	if err != nil {
		log.Printf("❌ [ANALYTICS] Recent failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Something went wrong"})
	}
	return c.JSON(fiber.Map{"pageviews": views})
}
