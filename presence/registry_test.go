package presence

import (
	"testing"

	"chat-relay/domain"
	"chat-relay/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestRegistry_AddUser_Normalizes_Names(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	id := uuid.NewString()

	// Given an empty registry
	req.Empty(registry.sessions)

	// When a user joins with unnormalized names
	user, err := registry.AddUser(id, "  aLICE ", " lobby ")

	// Then the stored entry carries the canonical forms
	req.NoError(err)
	req.Equal("Alice", user.Username)
	req.Equal("LOBBY", user.Room)
	req.Equal(id, user.ID)
	req.NotEmpty(user.Emoji)
}

func TestRegistry_AddUser_Rejects_Empty_Fields(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	_, err := registry.AddUser(uuid.NewString(), "   ", "lobby")
	req.ErrorIs(err, errors.ErrValidation)

	_, err = registry.AddUser(uuid.NewString(), "alice", "")
	req.ErrorIs(err, errors.ErrValidation)

	// And nothing was stored
	req.Empty(registry.sessions)
	req.Empty(registry.roomMembers)
}

func TestRegistry_AddUser_Duplicate_Username_Case_Insensitive(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	// Given Alice is present in the room
	_, err := registry.AddUser(uuid.NewString(), "alice", "room1")
	req.NoError(err)

	// When a second join uses the same name with different casing
	_, err = registry.AddUser(uuid.NewString(), "ALICE", "Room1")

	// Then the join fails and registry state is unchanged
	req.ErrorIs(err, errors.ErrDuplicateUsername)
	req.Len(registry.sessions, 1)
	req.Len(registry.roomMembers["ROOM1"], 1)
}

func TestRegistry_AddUser_Same_Username_Different_Rooms(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	_, err := registry.AddUser(uuid.NewString(), "alice", "room1")
	req.NoError(err)

	// The same username is allowed in another room
	_, err = registry.AddUser(uuid.NewString(), "alice", "room2")
	req.NoError(err)
	req.Len(registry.sessions, 2)
}

func TestRegistry_RemoveUser_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	id := uuid.NewString()

	// Given a joined user
	joined, err := registry.AddUser(id, "alice", "lobby")
	req.NoError(err)

	// When the user is removed twice (double disconnect)
	removed, ok := registry.RemoveUser(id)
	req.True(ok)
	req.Equal(joined, removed)

	_, ok = registry.RemoveUser(id)
	req.False(ok)

	// Then the room entry is gone entirely
	req.Empty(registry.sessions)
	req.Empty(registry.roomMembers)
}

func TestRegistry_UsersInRoom_Appends_Agent_Last(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	// Given two members
	_, err := registry.AddUser(uuid.NewString(), "bob", "lobby")
	req.NoError(err)
	_, err = registry.AddUser(uuid.NewString(), "alice", "lobby")
	req.NoError(err)

	// When the room is listed with a different casing
	users := registry.UsersInRoom("Lobby")

	// Then members come sorted and the agent closes the list
	req.Len(users, 3)
	req.Equal("Alice", users[0].Username)
	req.Equal("Bob", users[1].Username)
	req.Equal(domain.Agent.ID, users[2].ID)
	req.Equal("LOBBY", users[2].Room)
}

func TestRegistry_UsersInRoom_Empty_Room_Still_Lists_Agent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	users := registry.UsersInRoom("ghost-town")

	req.Len(users, 1)
	req.Equal(domain.Agent.ID, users[0].ID)
}

func TestRegistry_No_Duplicate_Usernames_After_Churn(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	// Given a join/leave sequence with a rejoin under the same name
	first := uuid.NewString()
	_, err := registry.AddUser(first, "alice", "room1")
	req.NoError(err)
	_, removed := registry.RemoveUser(first)
	req.True(removed)
	_, err = registry.AddUser(uuid.NewString(), "Alice", "room1")
	req.NoError(err)

	// Then excluding the agent, usernames stay unique
	users := registry.UsersInRoom("room1")
	seen := make(map[string]struct{})
	for _, u := range users {
		if u.ID == domain.Agent.ID {
			continue
		}
		_, dup := seen[u.Username]
		req.False(dup)
		seen[u.Username] = struct{}{}
	}
	req.Len(seen, 1)
}

func TestRegistry_AddUser_Rebinding_An_Id_Evicts_The_Previous_Room(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	// Given an id already bound to a session in another room
	id := uuid.NewString()
	_, err := registry.AddUser(id, "alice", "room1")
	req.NoError(err)

	// When the same id joins a different room
	_, err = registry.AddUser(id, "alice", "room2")
	req.NoError(err)

	// Then the old room holds no stale member and removal leaves no ghost
	old := registry.UsersInRoom("room1")
	req.Len(old, 1)
	req.Equal(domain.Agent.ID, old[0].ID)

	_, removed := registry.RemoveUser(id)
	req.True(removed)
	for _, u := range registry.UsersInRoom("room1") {
		req.NotEqual(domain.User{}, u)
	}
}
