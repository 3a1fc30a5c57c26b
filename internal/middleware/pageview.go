package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"folio/internal/models"
	"folio/internal/services"
)

// PageViewTracker records page views into the analytics sink. Tracking is
// fire-and-forget: the sink never blocks the request, and API/infra paths
// are excluded.
func PageViewTracker(analytics *services.AnalyticsService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodGet && trackablePath(c.Path()) {
			analytics.Track(models.PageView{
				Path:      c.Path(),
				ClientIP:  c.IP(),
				UserAgent: c.Get("User-Agent"),
				Referrer:  c.Get("Referer"),
			})
		}
		return c.Next()
	}
}

func trackablePath(path string) bool {
	for _, prefix := range []string{"/api/", "/ws/", "/metrics", "/health"} {
		if strings.HasPrefix(path, prefix) || path == strings.TrimSuffix(prefix, "/") {
			return false
		}
	}
	return true
}
