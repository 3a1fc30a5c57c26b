package middleware

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"folio/pkg/auth"
)

// AuthRequired verifies JWT tokens. Supports both the Authorization header
// and a `token` query parameter (WebSocket clients cannot set headers).
func AuthRequired(jwtAuth *auth.JWTAuth) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := tokenFromRequest(c)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing or invalid authorization token",
			})
		}

		user, err := jwtAuth.VerifyAccessToken(token)
		if err != nil {
			log.Printf("❌ Auth failed: %v", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals("user_id", user.ID)
		c.Locals("user_email", user.Email)
		c.Locals("user_role", user.Role)
		return c.Next()
	}
}

// AuthOptional attaches user identity when a valid token is present and
// proceeds as anonymous otherwise. Used on the WebSocket chat path, which
// serves unauthenticated visitors.
func AuthOptional(jwtAuth *auth.JWTAuth) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := tokenFromRequest(c)
		if token == "" {
			c.Locals("user_id", "anonymous")
			return c.Next()
		}

		user, err := jwtAuth.VerifyAccessToken(token)
		if err != nil {
			log.Printf("⚠️  Token validation failed: %v (continuing as anonymous)", err)
			c.Locals("user_id", "anonymous")
			return c.Next()
		}

		c.Locals("user_id", user.ID)
		c.Locals("user_email", user.Email)
		c.Locals("user_role", user.Role)
		return c.Next()
	}
}

func tokenFromRequest(c *fiber.Ctx) string {
	if authHeader := c.Get("Authorization"); authHeader != "" {
		if token, err := auth.ExtractToken(authHeader); err == nil {
			return token
		}
	}
	return c.Query("token")
}
