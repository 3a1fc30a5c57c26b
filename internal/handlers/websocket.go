package handlers

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"

	"folio/internal/models"
	"folio/internal/services"
)

// WebSocketHandler runs the chat room protocol over a persistent connection.
// Inbound "chat message" events go through the same turn-append flow as the
// REST endpoint (with the tighter socket budget) and the result is broadcast
// to every member of the room. "typing" events are relayed to room peers,
// excluding the sender.
type WebSocketHandler struct {
	connManager *services.ConnectionManager
	chat        *services.ChatService
	metrics     *services.Metrics
}

// NewWebSocketHandler creates a WebSocket handler
func NewWebSocketHandler(connManager *services.ConnectionManager, chat *services.ChatService, metrics *services.Metrics) *WebSocketHandler {
	return &WebSocketHandler{
		connManager: connManager,
		chat:        chat,
		metrics:     metrics,
	}
}

const (
	readDeadline  = 120 * time.Second
	pingInterval  = 30 * time.Second
	writeDeadline = 10 * time.Second
)

// Handle handles a new WebSocket connection
func (h *WebSocketHandler) Handle(c *websocket.Conn) {
	connID := uuid.New().String()

	user, _ := c.Locals("user_id").(string)
	if user == "" {
		user = "anonymous"
	}
	clientIP, _ := c.Locals("client_ip").(string)

	room := c.Query("room")
	if room == "" {
		room = "lobby"
	}

	done := make(chan struct{})

	userConn := &services.UserConnection{
		ConnID:    connID,
		User:      user,
		ClientIP:  clientIP,
		Room:      room,
		Conn:      c,
		WriteChan: make(chan models.ServerMessage, 100),
	}

	h.connManager.Add(userConn)
	if h.metrics != nil {
		h.metrics.WebSocketConnections.Inc()
	}

	defer func() {
		close(done)
		h.connManager.Remove(connID, room)
		if h.metrics != nil {
			h.metrics.WebSocketConnections.Dec()
		}
	}()

	c.SetReadDeadline(time.Now().Add(readDeadline))
	c.SetPongHandler(func(string) error {
		c.SetReadDeadline(time.Now().Add(readDeadline))
		return nil
	})

	go h.pingLoop(c, done)
	go h.writeLoop(userConn)

	trySend(userConn, models.ServerMessage{
		Type:    "connected",
		Message: "Connected. Ready to chat.",
	})

	h.readLoop(userConn)
}

// pingLoop keeps the connection alive across idle periods
func (h *WebSocketHandler) pingLoop(c *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := c.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeDeadline)); err != nil {
				return
			}
		}
	}
}

// writeLoop is the only goroutine that writes data frames to the socket.
// A write failure tears the socket down so the read loop exits instead of
// queueing frames nobody will send.
func (h *WebSocketHandler) writeLoop(userConn *services.UserConnection) {
	for msg := range userConn.WriteChan {
		userConn.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
		if err := userConn.Conn.WriteJSON(msg); err != nil {
			log.Printf("⚠️  [WS] Write failed for %s: %v", userConn.ConnID, err)
			userConn.Conn.Close()
			return
		}
	}
}

// trySend queues a frame for the write loop without ever blocking the read
// loop. If the write loop has died and the channel is full, the frame is
// dropped; the connection is already on its way down.
func trySend(userConn *services.UserConnection, msg models.ServerMessage) {
	select {
	case userConn.WriteChan <- msg:
	default:
		log.Printf("⚠️  [WS] Dropping frame for %s, write side backed up", userConn.ConnID)
	}
}

// readLoop handles incoming messages from the client
func (h *WebSocketHandler) readLoop(userConn *services.UserConnection) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ [WS] Panic in readLoop: %v", r)
		}
	}()

	for {
		_, msg, err := userConn.Conn.ReadMessage()
		if err != nil {
			log.Printf("🔌 [WS] Read ended for %s: %v", userConn.ConnID, err)
			return
		}

		userConn.Conn.SetReadDeadline(time.Now().Add(readDeadline))

		var clientMsg models.ClientMessage
		if err := json.Unmarshal(msg, &clientMsg); err != nil {
			trySend(userConn, models.ServerMessage{
				Type:  "error",
				Error: "Invalid message format",
			})
			continue
		}

		switch clientMsg.Type {
		case "ping":
			trySend(userConn, models.ServerMessage{Type: "pong"})
		case "chat message":
			h.handleChatMessage(userConn, clientMsg)
		case "typing":
			h.handleTyping(userConn, clientMsg)
		default:
			log.Printf("⚠️  [WS] Unknown message type from %s: %s", userConn.ConnID, clientMsg.Type)
		}
	}
}

// handleChatMessage runs the turn-append flow and broadcasts the exchange
// to the whole room. Provider failures surface as a canned reply, never as
// an error frame; only an empty message or a persistence failure does.
func (h *WebSocketHandler) handleChatMessage(userConn *services.UserConnection, msg models.ClientMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), h.chat.SocketTimeout+5*time.Second)
	defer cancel()

	reply, sid, err := h.chat.HandleMessage(ctx, msg.SessionID, userConn.ClientIP, msg.Message, h.chat.SocketTimeout)
	if err != nil {
		if err == services.ErrEmptyMessage {
			trySend(userConn, models.ServerMessage{Type: "error", Error: "Message must not be empty"})
			return
		}
		log.Printf("❌ [WS] Chat message failed for %s: %v", userConn.ConnID, err)
		h.connManager.Broadcast(userConn.Room, models.ServerMessage{
			Type:  "error",
			Error: "Something went wrong",
		})
		return
	}

	if h.metrics != nil {
		h.metrics.ChatRequests.WithLabelValues("socket").Inc()
		if services.IsFallbackReply(reply) {
			h.metrics.ChatFallbackReplies.Inc()
		}
	}

	h.connManager.Broadcast(userConn.Room, models.ServerMessage{
		Type:      "chat response",
		User:      userConn.User,
		Message:   msg.Message,
		Response:  reply,
		SessionID: sid,
		Timestamp: time.Now().UnixMilli(),
	})
}

// handleTyping relays a typing indicator to room peers, excluding the sender
func (h *WebSocketHandler) handleTyping(userConn *services.UserConnection, msg models.ClientMessage) {
	h.connManager.BroadcastExcept(userConn.Room, userConn.ConnID, models.ServerMessage{
		Type:     "typing",
		User:     userConn.User,
		IsTyping: msg.IsTyping,
	})
}
