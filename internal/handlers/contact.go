package handlers

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"folio/internal/models"
	"folio/internal/services"
)

// ContactHandler handles contact-form submissions and the admin inbox
type ContactHandler struct {
	contact *services.ContactService
}

// NewContactHandler creates a contact handler
func NewContactHandler(contact *services.ContactService) *ContactHandler {
	return &ContactHandler{contact: contact}
}

// Submit handles POST /api/contact. The notification email is queued;
// the response never waits on delivery.
func (h *ContactHandler) Submit(c *fiber.Ctx) error {
	var msg models.ContactMessage
	if err := c.BodyParser(&msg); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if strings.TrimSpace(msg.Name) == "" || strings.TrimSpace(msg.Message) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Name and message are required"})
	}
	if !strings.Contains(msg.Email, "@") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "A valid email is required"})
	}

	if err := h.contact.Submit(c.Context(), &msg); err != nil {
		log.Printf("❌ [CONTACT] Submit failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Something went wrong"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"status": "received"})
}

// List handles GET /api/contact (admin only)
func (h *ContactHandler) List(c *fiber.Ctx) error {
	messages, err := h.contact.List(c.Context(), 100)
	if err != nil {
		log.Printf("❌ [CONTACT] List failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Something went wrong"})
	}
	return c.JSON(fiber.Map{"messages": messages})
}
