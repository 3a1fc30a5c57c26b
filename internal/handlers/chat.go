package handlers

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"folio/internal/services"
)

// ChatHandler exposes the chat REST surface: send a message, fetch history.
// The chat flow deliberately never hard-fails on collaborator errors: the
// reply degrades to a canned fallback inside the service instead.
type ChatHandler struct {
	chat    *services.ChatService
	metrics *services.Metrics
}

// NewChatHandler creates a chat handler
func NewChatHandler(chat *services.ChatService, metrics *services.Metrics) *ChatHandler {
	return &ChatHandler{chat: chat, metrics: metrics}
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId,omitempty"`
}

// Send handles POST /api/chat
func (h *ChatHandler) Send(c *fiber.Ctx) error {
	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if strings.TrimSpace(req.Message) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Message is required"})
	}

	reply, sid, err := h.chat.HandleMessage(c.Context(), req.SessionID, c.IP(), req.Message, h.chat.RestTimeout)
	if err != nil {
		if errors.Is(err, services.ErrEmptyMessage) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Message is required"})
		}
		log.Printf("❌ [CHAT] Failed to handle message: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Something went wrong"})
	}

	if h.metrics != nil {
		h.metrics.ChatRequests.WithLabelValues("rest").Inc()
		if services.IsFallbackReply(reply) {
			h.metrics.ChatFallbackReplies.Inc()
		}
	}

	return c.JSON(fiber.Map{
		"message":   reply,
		"sessionId": sid,
	})
}

// History handles GET /api/chat/history/:sessionId.
// An unknown session ID returns an empty transcript, not an error.
func (h *ChatHandler) History(c *fiber.Ctx) error {
	sessionID := c.Params("sessionId")
	if sessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Session ID is required"})
	}

	turns, err := h.chat.History(c.Context(), sessionID)
	if err != nil {
		log.Printf("❌ [CHAT] Failed to load history for %s: %v", sessionID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Something went wrong"})
	}

	return c.JSON(fiber.Map{"messages": turns})
}
