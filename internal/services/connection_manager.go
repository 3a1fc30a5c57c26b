package services

import (
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"

	"folio/internal/models"
)

// UserConnection is one live WebSocket connection inside a room.
// Writes go through WriteChan so only the write loop touches the socket.
type UserConnection struct {
	ConnID    string
	User      string
	ClientIP  string
	Room      string
	Conn      *websocket.Conn
	WriteChan chan models.ServerMessage
}

// ConnectionManager tracks WebSocket connections grouped by room and fans
// messages out to room members.
type ConnectionManager struct {
	rooms map[string]map[string]*UserConnection // room -> connID -> conn
	mu    sync.RWMutex
}

// NewConnectionManager creates an empty manager
func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		rooms: make(map[string]map[string]*UserConnection),
	}
}

// Add registers a connection in its room
func (m *ConnectionManager) Add(conn *UserConnection) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.rooms[conn.Room] == nil {
		m.rooms[conn.Room] = make(map[string]*UserConnection)
	}
	m.rooms[conn.Room][conn.ConnID] = conn

	log.Printf("🔌 [WS] %s joined room %q (%d members)", conn.ConnID, conn.Room, len(m.rooms[conn.Room]))
}

// Remove unregisters a connection and closes its write channel
func (m *ConnectionManager) Remove(connID, room string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	members, ok := m.rooms[room]
	if !ok {
		return
	}

	if conn, ok := members[connID]; ok {
		close(conn.WriteChan)
		delete(members, connID)
	}
	if len(members) == 0 {
		delete(m.rooms, room)
	}

	log.Printf("🔌 [WS] %s left room %q", connID, room)
}

// Broadcast sends a message to every member of a room. Slow consumers are
// skipped rather than blocking the room.
func (m *ConnectionManager) Broadcast(room string, msg models.ServerMessage) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, conn := range m.rooms[room] {
		select {
		case conn.WriteChan <- msg:
		default:
			log.Printf("⚠️  [WS] Dropping message for slow consumer %s", conn.ConnID)
		}
	}
}

// BroadcastExcept sends a message to every room member except one connection.
// Used for typing relays, which the sender must not receive back.
func (m *ConnectionManager) BroadcastExcept(room, exceptConnID string, msg models.ServerMessage) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for id, conn := range m.rooms[room] {
		if id == exceptConnID {
			continue
		}
		select {
		case conn.WriteChan <- msg:
		default:
			log.Printf("⚠️  [WS] Dropping message for slow consumer %s", conn.ConnID)
		}
	}
}

// Count returns the total number of active connections
func (m *ConnectionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	total := 0
	for _, members := range m.rooms {
		total += len(members)
	}
	return total
}
