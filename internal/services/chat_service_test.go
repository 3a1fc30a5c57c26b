package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"folio/internal/models"
)

// fakeSessionRepo is an in-memory SessionRepository for tests
type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*models.ChatSession
	saveErr  error
	findErr  error
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*models.ChatSession)}
}

func (r *fakeSessionRepo) Find(_ context.Context, sessionID string) (*models.ChatSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	session, ok := r.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	copied := *session
	copied.Turns = append([]models.ChatTurn(nil), session.Turns...)
	return &copied, nil
}

func (r *fakeSessionRepo) Save(_ context.Context, session *models.ChatSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	copied := *session
	copied.Turns = append([]models.ChatTurn(nil), session.Turns...)
	r.sessions[session.SessionID] = &copied
	return nil
}

func newTestAIServer(t *testing.T, answer string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"answer":"` + answer + `"}`))
	}))
}

func TestResolveSessionID(t *testing.T) {
	tests := []struct {
		name       string
		sessionID  string
		clientAddr string
		want       string
	}{
		{"client-supplied ID is used verbatim", "abc-123", "10.0.0.1", "abc-123"},
		{"missing ID derives from client address", "", "10.0.0.1", "ip:10.0.0.1"},
		{"supplied ID wins even when address present", "sid", "10.0.0.2", "sid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveSessionID(tt.sessionID, tt.clientAddr); got != tt.want {
				t.Errorf("ResolveSessionID(%q, %q) = %q, want %q", tt.sessionID, tt.clientAddr, got, tt.want)
			}
		})
	}
}

func TestHandleMessageAppendsBothTurns(t *testing.T) {
	server := newTestAIServer(t, "assistant reply")
	defer server.Close()

	repo := newFakeSessionRepo()
	svc := NewChatService(repo, NewAIClient(server.URL, "k"), time.Second, time.Second)

	reply, sid, err := svc.HandleMessage(context.Background(), "session-1", "10.0.0.1", "hello", time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "assistant reply" {
		t.Errorf("expected provider answer, got %q", reply)
	}
	if sid != "session-1" {
		t.Errorf("expected sid session-1, got %q", sid)
	}

	session := repo.sessions["session-1"]
	if session == nil {
		t.Fatal("session was not persisted")
	}
	if len(session.Turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(session.Turns))
	}
	if session.Turns[0].Role != models.RoleUser || session.Turns[0].Content != "hello" {
		t.Errorf("first turn should be the user message, got %+v", session.Turns[0])
	}
	if session.Turns[1].Role != models.RoleAssistant || session.Turns[1].Content != "assistant reply" {
		t.Errorf("second turn should be the assistant reply, got %+v", session.Turns[1])
	}
}

func TestHandleMessagePreservesTranscriptOrder(t *testing.T) {
	server := newTestAIServer(t, "ok")
	defer server.Close()

	repo := newFakeSessionRepo()
	svc := NewChatService(repo, NewAIClient(server.URL, "k"), time.Second, time.Second)

	ctx := context.Background()
	if _, _, err := svc.HandleMessage(ctx, "s", "", "first question", time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, err := svc.HandleMessage(ctx, "s", "", "second question", time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	turns, err := svc.History(ctx, "s")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(turns) != 4 {
		t.Fatalf("expected 4 turns after two exchanges, got %d", len(turns))
	}

	wantRoles := []string{models.RoleUser, models.RoleAssistant, models.RoleUser, models.RoleAssistant}
	for i, role := range wantRoles {
		if turns[i].Role != role {
			t.Errorf("turn %d: expected role %q, got %q", i, role, turns[i].Role)
		}
	}
	if turns[0].Content != "first question" || turns[2].Content != "second question" {
		t.Error("user turns out of order in transcript")
	}
}

func TestHandleMessageRejectsEmptyText(t *testing.T) {
	repo := newFakeSessionRepo()
	svc := NewChatService(repo, NewAIClient("", ""), time.Second, time.Second)

	for _, text := range []string{"", "   ", "\n\t "} {
		if _, _, err := svc.HandleMessage(context.Background(), "s", "", text, time.Second); !errors.Is(err, ErrEmptyMessage) {
			t.Errorf("text %q: expected ErrEmptyMessage, got %v", text, err)
		}
	}

	if len(repo.sessions) != 0 {
		t.Error("rejected messages must not create sessions")
	}
}

func TestHandleMessageFallsBackOnProviderFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	repo := newFakeSessionRepo()
	svc := NewChatService(repo, NewAIClient(server.URL, "k"), time.Second, time.Second)

	reply, _, err := svc.HandleMessage(context.Background(), "s", "", "hello", time.Second)
	if err != nil {
		t.Fatalf("provider failure must not surface as an error, got %v", err)
	}
	if !IsFallbackReply(reply) {
		t.Errorf("expected a canned fallback reply, got %q", reply)
	}

	// The degraded exchange is still part of the transcript
	session := repo.sessions["s"]
	if session == nil || len(session.Turns) != 2 {
		t.Fatal("fallback exchange must still be persisted with both turns")
	}
	if session.Turns[1].Content != reply {
		t.Error("persisted assistant turn must match the returned reply")
	}
}

func TestHandleMessageFallsBackOnTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
		w.Write([]byte(`{"answer":"too late"}`))
	}))
	defer server.Close()

	repo := newFakeSessionRepo()
	svc := NewChatService(repo, NewAIClient(server.URL, "k"), time.Second, time.Second)

	start := time.Now()
	reply, _, err := svc.HandleMessage(context.Background(), "s", "", "hello", 100*time.Millisecond)
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("timeout must not surface as an error, got %v", err)
	}
	if !IsFallbackReply(reply) {
		t.Errorf("expected a canned fallback reply after timeout, got %q", reply)
	}
	if elapsed > time.Second {
		t.Errorf("reply must arrive near the budget, not the provider latency; took %v", elapsed)
	}
}

func TestHandleMessageSurfacesPersistenceFailure(t *testing.T) {
	server := newTestAIServer(t, "ok")
	defer server.Close()

	repo := newFakeSessionRepo()
	repo.saveErr = errors.New("database is down")
	svc := NewChatService(repo, NewAIClient(server.URL, "k"), time.Second, time.Second)

	if _, _, err := svc.HandleMessage(context.Background(), "s", "", "hello", time.Second); err == nil {
		t.Error("persistence failure must surface as an error")
	}
}

func TestHistoryUnknownSession(t *testing.T) {
	repo := newFakeSessionRepo()
	svc := NewChatService(repo, NewAIClient("", ""), time.Second, time.Second)

	turns, err := svc.History(context.Background(), "never-seen")
	if err != nil {
		t.Fatalf("unknown session must not be an error, got %v", err)
	}
	if turns == nil {
		t.Fatal("expected an empty transcript, got nil")
	}
	if len(turns) != 0 {
		t.Errorf("expected empty transcript, got %d turns", len(turns))
	}
}

func TestHandleMessageDerivedSessionContinuity(t *testing.T) {
	server := newTestAIServer(t, "ok")
	defer server.Close()

	repo := newFakeSessionRepo()
	svc := NewChatService(repo, NewAIClient(server.URL, "k"), time.Second, time.Second)

	ctx := context.Background()
	_, sid1, err := svc.HandleMessage(ctx, "", "203.0.113.9", "first", time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, sid2, err := svc.HandleMessage(ctx, "", "203.0.113.9", "second", time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sid1 != "ip:203.0.113.9" || sid1 != sid2 {
		t.Errorf("derived session IDs must be stable per client address: %q vs %q", sid1, sid2)
	}
	if len(repo.sessions[sid1].Turns) != 4 {
		t.Errorf("expected one continued session with 4 turns, got %d", len(repo.sessions[sid1].Turns))
	}
}
