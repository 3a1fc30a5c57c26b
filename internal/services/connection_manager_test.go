package services

import (
	"testing"

	"folio/internal/models"
)

func newTestConn(connID, room string) *UserConnection {
	return &UserConnection{
		ConnID:    connID,
		User:      "anonymous",
		Room:      room,
		WriteChan: make(chan models.ServerMessage, 10),
	}
}

func TestBroadcastReachesWholeRoom(t *testing.T) {
	m := NewConnectionManager()

	a := newTestConn("a", "lobby")
	b := newTestConn("b", "lobby")
	other := newTestConn("c", "elsewhere")
	m.Add(a)
	m.Add(b)
	m.Add(other)

	m.Broadcast("lobby", models.ServerMessage{Type: "chat response", Response: "hi"})

	for _, conn := range []*UserConnection{a, b} {
		select {
		case msg := <-conn.WriteChan:
			if msg.Response != "hi" {
				t.Errorf("conn %s: expected broadcast payload, got %+v", conn.ConnID, msg)
			}
		default:
			t.Errorf("conn %s: expected to receive the broadcast", conn.ConnID)
		}
	}

	select {
	case msg := <-other.WriteChan:
		t.Errorf("connection outside the room received %+v", msg)
	default:
	}
}

func TestBroadcastExceptSkipsSender(t *testing.T) {
	m := NewConnectionManager()

	sender := newTestConn("sender", "lobby")
	peer := newTestConn("peer", "lobby")
	m.Add(sender)
	m.Add(peer)

	m.BroadcastExcept("lobby", "sender", models.ServerMessage{Type: "typing", IsTyping: true})

	select {
	case <-peer.WriteChan:
	default:
		t.Error("peer should receive the typing relay")
	}

	select {
	case <-sender.WriteChan:
		t.Error("sender must not receive its own typing relay")
	default:
	}
}

func TestBroadcastSkipsSlowConsumer(t *testing.T) {
	m := NewConnectionManager()

	slow := &UserConnection{
		ConnID:    "slow",
		Room:      "lobby",
		WriteChan: make(chan models.ServerMessage), // unbuffered, nobody reading
	}
	healthy := newTestConn("healthy", "lobby")
	m.Add(slow)
	m.Add(healthy)

	// Must not block on the slow consumer
	m.Broadcast("lobby", models.ServerMessage{Type: "chat response"})

	select {
	case <-healthy.WriteChan:
	default:
		t.Error("healthy connection should still receive the broadcast")
	}
}

func TestRemoveClosesAndCounts(t *testing.T) {
	m := NewConnectionManager()

	a := newTestConn("a", "lobby")
	b := newTestConn("b", "lobby")
	m.Add(a)
	m.Add(b)

	if got := m.Count(); got != 2 {
		t.Fatalf("expected 2 connections, got %d", got)
	}

	m.Remove("a", "lobby")

	if got := m.Count(); got != 1 {
		t.Errorf("expected 1 connection after removal, got %d", got)
	}

	if _, open := <-a.WriteChan; open {
		t.Error("removed connection's write channel must be closed")
	}

	// Removing an unknown connection is a no-op
	m.Remove("ghost", "lobby")
	m.Remove("ghost", "no-such-room")
}
