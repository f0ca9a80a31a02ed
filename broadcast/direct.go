package broadcast

import (
	"log/slog"
	"sync"

	"chat-relay/contract"
	"chat-relay/domain"
)

// Conn is the write side of one attached transport.
// *websocket.Conn satisfies it.
type Conn interface {
	WriteJSON(v any) error
	Close() error
}

// DirectGateway holds live transport handles, one per connected user id,
// and writes events straight to every member of the published room.
// A failed write means the transport is gone: the handle is dropped
// silently, since the disconnect independently triggers leave handling.
type DirectGateway struct {
	log *slog.Logger

	mu    sync.RWMutex
	conns map[string]Conn            // map user id -> transport
	rooms map[string]map[string]bool // map room -> attached user ids
}

func NewDirectGateway(log *slog.Logger) *DirectGateway {
	return &DirectGateway{
		log:   log,
		conns: make(map[string]Conn),
		rooms: make(map[string]map[string]bool),
	}
}

// Attach registers a user's transport for a room. A second attach for the
// same user closes and replaces the previous handle.
func (g *DirectGateway) Attach(userID, room string, conn Conn) {
	room = domain.NormalizeRoom(room)

	g.mu.Lock()
	defer g.mu.Unlock()

	if previous, ok := g.conns[userID]; ok {
		_ = previous.Close()
	}
	g.conns[userID] = conn
	if _, ok := g.rooms[room]; !ok {
		g.rooms[room] = make(map[string]bool)
	}
	g.rooms[room][userID] = true
}

// Detach forgets the user's transport. Detaching an unknown id is a no-op.
func (g *DirectGateway) Detach(userID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.drop(userID)
}

// drop removes the handle and its room index entries. Caller holds g.mu.
func (g *DirectGateway) drop(userID string) {
	delete(g.conns, userID)
	for room, members := range g.rooms {
		delete(members, userID)
		if len(members) == 0 {
			delete(g.rooms, room)
		}
	}
}

// Publish writes the enveloped payload to every transport attached to the
// room. Dead transports are dropped, never reported to the caller.
func (g *DirectGateway) Publish(room string, kind contract.EventKind, payload any) {
	room = domain.NormalizeRoom(room)
	envelope := Envelope{Event: string(kind), Data: payload}

	g.mu.RLock()
	targets := make(map[string]Conn, len(g.rooms[room]))
	for userID := range g.rooms[room] {
		if conn, ok := g.conns[userID]; ok {
			targets[userID] = conn
		}
	}
	g.mu.RUnlock()

	var dead []string
	for userID, conn := range targets {
		if err := conn.WriteJSON(envelope); err != nil {
			g.log.Debug("Dropping dead transport", "user_id", userID, "event", kind)
			dead = append(dead, userID)
		}
	}

	if len(dead) > 0 {
		g.mu.Lock()
		for _, userID := range dead {
			g.drop(userID)
		}
		g.mu.Unlock()
	}
}
