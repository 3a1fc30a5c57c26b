package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"folio/internal/models"
	"folio/internal/services"
)

// memorySessionRepo is an in-memory SessionRepository for handler tests
type memorySessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*models.ChatSession
}

func newMemorySessionRepo() *memorySessionRepo {
	return &memorySessionRepo{sessions: make(map[string]*models.ChatSession)}
}

func (r *memorySessionRepo) Find(_ context.Context, sessionID string) (*models.ChatSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	copied := *session
	copied.Turns = append([]models.ChatTurn(nil), session.Turns...)
	return &copied, nil
}

func (r *memorySessionRepo) Save(_ context.Context, session *models.ChatSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *session
	copied.Turns = append([]models.ChatTurn(nil), session.Turns...)
	r.sessions[session.SessionID] = &copied
	return nil
}

func newChatTestApp(t *testing.T, providerAnswer string) (*fiber.App, *httptest.Server) {
	t.Helper()

	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"answer":"` + providerAnswer + `"}`))
	}))

	chatService := services.NewChatService(
		newMemorySessionRepo(),
		services.NewAIClient(provider.URL, "test-key"),
		time.Second,
		time.Second,
	)
	handler := NewChatHandler(chatService, nil)

	app := fiber.New()
	app.Post("/api/chat", handler.Send)
	app.Get("/api/chat/history/:sessionId", handler.History)

	return app, provider
}

func TestChatSend(t *testing.T) {
	app, provider := newChatTestApp(t, "hello from the bot")
	defer provider.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/chat",
		strings.NewReader(`{"message":"hi","sessionId":"visitor-1"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Message   string `json:"message"`
		SessionID string `json:"sessionId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Message != "hello from the bot" {
		t.Errorf("expected provider answer, got %q", body.Message)
	}
	if body.SessionID != "visitor-1" {
		t.Errorf("expected echoed session ID, got %q", body.SessionID)
	}
}

func TestChatSendValidation(t *testing.T) {
	app, provider := newChatTestApp(t, "unused")
	defer provider.Close()

	tests := []struct {
		name string
		body string
	}{
		{"empty message", `{"message":""}`},
		{"whitespace message", `{"message":"   "}`},
		{"missing message field", `{}`},
		{"malformed JSON", `{not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")

			resp, err := app.Test(req, 5000)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", resp.StatusCode)
			}
		})
	}
}

func TestChatHistoryAfterSend(t *testing.T) {
	app, provider := newChatTestApp(t, "the answer")
	defer provider.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/chat",
		strings.NewReader(`{"message":"a question","sessionId":"visitor-2"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	historyReq := httptest.NewRequest(http.MethodGet, "/api/chat/history/visitor-2", nil)
	historyResp, err := app.Test(historyReq, 5000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer historyResp.Body.Close()

	if historyResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", historyResp.StatusCode)
	}

	var body struct {
		Messages []models.ChatTurn `json:"messages"`
	}
	if err := json.NewDecoder(historyResp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Messages) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(body.Messages))
	}
	if body.Messages[0].Content != "a question" || body.Messages[1].Content != "the answer" {
		t.Errorf("transcript mismatch: %+v", body.Messages)
	}
}

func TestChatHistoryUnknownSession(t *testing.T) {
	app, provider := newChatTestApp(t, "unused")
	defer provider.Close()

	req := httptest.NewRequest(http.MethodGet, "/api/chat/history/never-seen", nil)
	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unknown session must be 200 with an empty transcript, got %d", resp.StatusCode)
	}

	var body struct {
		Messages []models.ChatTurn `json:"messages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Messages) != 0 {
		t.Errorf("expected empty transcript, got %d turns", len(body.Messages))
	}
}
