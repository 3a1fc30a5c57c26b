package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"folio/internal/database"
	"folio/internal/models"
)

// SessionRepository is the persistence contract the chat service depends on.
// Find returns (nil, nil) for an unknown session ID, since absence is a normal
// state, not an error.
type SessionRepository interface {
	Find(ctx context.Context, sessionID string) (*models.ChatSession, error)
	Save(ctx context.Context, session *models.ChatSession) error
}

// SessionStore is the Mongo-backed chat transcript store. Writes are plain
// read-modify-write upserts: concurrent messages on one session ID race and
// the last write wins, which is acceptable for a low-traffic chat widget.
type SessionStore struct {
	db       *database.MongoDB
	maxTurns int
}

// NewSessionStore creates a session store. maxTurns caps transcript growth;
// the oldest turns are dropped once a session exceeds it.
func NewSessionStore(db *database.MongoDB, maxTurns int) *SessionStore {
	if maxTurns <= 0 {
		maxTurns = 200
	}
	return &SessionStore{db: db, maxTurns: maxTurns}
}

func (s *SessionStore) collection() *mongo.Collection {
	return s.db.Collection(database.CollectionChatSessions)
}

// Find loads a session by ID, or (nil, nil) if it has never been seen
func (s *SessionStore) Find(ctx context.Context, sessionID string) (*models.ChatSession, error) {
	var session models.ChatSession
	err := s.collection().FindOne(ctx, bson.M{"sessionId": sessionID}).Decode(&session)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return &session, nil
}

// Save upserts the session, refreshing updatedAt and enforcing the turn cap
func (s *SessionStore) Save(ctx context.Context, session *models.ChatSession) error {
	now := time.Now()
	session.UpdatedAt = now
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}

	if len(session.Turns) > s.maxTurns {
		dropped := len(session.Turns) - s.maxTurns
		session.Turns = session.Turns[dropped:]
		log.Printf("⚠️  [SESSIONS] Capped session %s, dropped %d oldest turns", session.SessionID, dropped)
	}

	update := bson.M{
		"$set": bson.M{
			"turns":     session.Turns,
			"updatedAt": session.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"createdAt": session.CreatedAt,
		},
	}

	_, err := s.collection().UpdateOne(
		ctx,
		bson.M{"sessionId": session.SessionID},
		update,
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// DeleteIdle removes sessions whose last activity is older than the window.
// Called by the retention job; the Mongo TTL index is the backstop.
func (s *SessionStore) DeleteIdle(ctx context.Context, window time.Duration) (int64, error) {
	cutoff := time.Now().Add(-window)
	result, err := s.collection().DeleteMany(ctx, bson.M{"updatedAt": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete idle sessions: %w", err)
	}
	return result.DeletedCount, nil
}
