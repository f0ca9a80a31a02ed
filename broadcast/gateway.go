// Package broadcast fans room events out to live transports.
// Two interchangeable gateways exist: a direct in-process push over
// websocket handles, and a best-effort publish to an external relay.
// The coordinator never knows which one is active.
package broadcast

import (
	"chat-relay/contract"
	"chat-relay/domain"
)

const (
	KindMessage         contract.EventKind = "message"
	KindLocationMessage contract.EventKind = "location-message"
	KindRoomData        contract.EventKind = "room-data"
	KindUserJoined      contract.EventKind = "user-joined"
	KindUserLeft        contract.EventKind = "user-left"
)

// RoomData is the full membership snapshot published after joins and
// leaves. The agent pseudo-member is always last in Users.
type RoomData struct {
	Room  string        `json:"room"`
	Users []domain.User `json:"users"`
}

// UserEvent accompanies user-joined and user-left notifications.
type UserEvent struct {
	Message domain.Message `json:"message"`
	User    domain.User    `json:"user"`
}

// Envelope is the frame written to direct transports; relay transports
// carry the kind in the relay event name instead.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// ChannelName derives the relay channel for a room.
func ChannelName(room string) string {
	return "room-" + room
}
