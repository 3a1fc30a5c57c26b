package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Turn roles. The set is closed: a turn is either the visitor's message
// or the assistant's reply.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatTurn is one message in a chat transcript. Turns are immutable once appended.
type ChatTurn struct {
	Role      string    `bson:"role" json:"role"`
	Content   string    `bson:"content" json:"content"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// ChatSession holds the ordered transcript for one session ID.
// The session ID is client-supplied (or derived from the client address) and
// is NOT tied to an authenticated user, so treat it as untrusted.
type ChatSession struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID string             `bson:"sessionId" json:"session_id"`
	Turns     []ChatTurn         `bson:"turns" json:"turns"`
	CreatedAt time.Time          `bson:"createdAt" json:"created_at"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updated_at"`
}
