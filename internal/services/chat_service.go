package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"folio/internal/models"
)

// ErrEmptyMessage is returned when the inbound text is empty or whitespace.
// The REST path also validates at the handler, but the WebSocket path has no
// validation middleware, so the service rejects as well.
var ErrEmptyMessage = errors.New("message must not be empty")

// ChatService implements the chat turn-append protocol: load-or-create the
// session, append the user turn, attempt one bounded AI call (fallback reply
// on any failure), append the assistant turn, persist.
type ChatService struct {
	sessions SessionRepository
	ai       *AIClient

	// Per-path AI budgets. The socket path is tighter on purpose: a slow
	// provider should not stall a whole room.
	RestTimeout   time.Duration
	SocketTimeout time.Duration
}

// NewChatService creates a chat service
func NewChatService(sessions SessionRepository, ai *AIClient, restTimeout, socketTimeout time.Duration) *ChatService {
	if restTimeout == 0 {
		restTimeout = 10 * time.Second
	}
	if socketTimeout == 0 {
		socketTimeout = 5 * time.Second
	}
	return &ChatService{
		sessions:      sessions,
		ai:            ai,
		RestTimeout:   restTimeout,
		SocketTimeout: socketTimeout,
	}
}

// ResolveSessionID uses the client-supplied ID verbatim, or derives one from
// the client address. The derived form is namespaced so NAT collisions are
// at least visible in stored data.
func ResolveSessionID(sessionID, clientAddr string) string {
	if sessionID != "" {
		return sessionID
	}
	return "ip:" + clientAddr
}

// HandleMessage runs one full message exchange and returns the assistant
// reply and the resolved session ID. Provider failures never surface: the
// reply degrades to a canned fallback. Only a persistence failure (no safe
// default exists) is returned as an error.
func (s *ChatService) HandleMessage(ctx context.Context, sessionID, clientAddr, text string, budget time.Duration) (string, string, error) {
	if strings.TrimSpace(text) == "" {
		return "", "", ErrEmptyMessage
	}

	sid := ResolveSessionID(sessionID, clientAddr)

	session, err := s.sessions.Find(ctx, sid)
	if err != nil {
		return "", "", err
	}
	if session == nil {
		session = &models.ChatSession{SessionID: sid}
	}

	session.Turns = append(session.Turns, models.ChatTurn{
		Role:      models.RoleUser,
		Content:   text,
		Timestamp: time.Now(),
	})

	reply := s.complete(ctx, text, budget)

	session.Turns = append(session.Turns, models.ChatTurn{
		Role:      models.RoleAssistant,
		Content:   reply,
		Timestamp: time.Now(),
	})

	if err := s.sessions.Save(ctx, session); err != nil {
		return "", "", err
	}

	return reply, sid, nil
}

// complete attempts a single AI call within budget. Timeouts and errors are
// absorbed here: the call is abandoned, not retried, and a canned reply is
// substituted.
func (s *ChatService) complete(ctx context.Context, prompt string, budget time.Duration) string {
	callCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	reply, err := s.ai.Complete(callCtx, prompt)
	if err != nil {
		log.Printf("⚠️  [CHAT] Completion failed, using fallback reply: %v", err)
		return FallbackReply()
	}
	return reply
}

// History returns the stored transcript for a session ID. An unknown ID
// yields an empty transcript, never an error: "no history yet" is a normal
// state.
func (s *ChatService) History(ctx context.Context, sessionID string) ([]models.ChatTurn, error) {
	session, err := s.sessions.Find(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return []models.ChatTurn{}, nil
	}
	return session.Turns, nil
}
