package models

// ClientMessage is a message received from a WebSocket client
type ClientMessage struct {
	Type      string `json:"type"` // "chat message", "typing", "ping"
	Message   string `json:"message,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	IsTyping  bool   `json:"isTyping,omitempty"`
}

// ServerMessage is a message sent to WebSocket clients
type ServerMessage struct {
	Type      string `json:"type"` // "connected", "chat response", "typing", "error", "pong"
	User      string `json:"user,omitempty"`
	Message   string `json:"message,omitempty"`
	Response  string `json:"response,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	IsTyping  bool   `json:"isTyping,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"` // Unix milliseconds
	Error     string `json:"error,omitempty"`
}
