//go:generate go run go.uber.org/mock/mockgen -source=registry.go -destination=../mocks/mock_presence.go -package=mocks
// Package presence tracks which user occupies which room.
// It is the foundation every other component queries.
package presence

import (
	"sort"
	"sync"

	"chat-relay/domain"
	"chat-relay/errors"
)

type IRegistry interface {
	AddUser(id, username, room string) (domain.User, error)
	RemoveUser(id string) (domain.User, bool)
	GetUser(id string) (domain.User, bool)
	UsersInRoom(room string) []domain.User
}

type Set map[string]struct{}

// Registry keeps sessions and room membership in two maps:
// 1. sessions resolves a transport id into the live User.
// 2. roomMembers indexes user ids per room for fast room listings.
// Mutations are serialized behind a single RWMutex; room listings only
// take the read lock.
type Registry struct {
	mu          sync.RWMutex
	sessions    map[string]domain.User // map user id -> User
	roomMembers map[string]Set         // map room -> user ids
}

func NewRegistry() *Registry {
	return &Registry{
		sessions:    make(map[string]domain.User),
		roomMembers: make(map[string]Set),
	}
}

// AddUser normalizes the username and room, refuses a normalized username
// already live in the same room, and stores the new User with a random
// emoji from the palette. Nothing is mutated on failure.
func (r *Registry) AddUser(id, username, room string) (domain.User, error) {
	name := domain.NormalizeUsername(username)
	roomKey := domain.NormalizeRoom(room)
	if name == "" || roomKey == "" {
		return domain.User{}, errors.ErrValidation
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for memberID := range r.roomMembers[roomKey] {
		if r.sessions[memberID].Username == name {
			return domain.User{}, errors.ErrDuplicateUsername
		}
	}

	// An id already bound to a session is evicted from its previous room
	// first, otherwise that room would keep a stale member entry.
	if previous, ok := r.sessions[id]; ok {
		if members, ok := r.roomMembers[previous.Room]; ok {
			delete(members, id)
			if len(members) == 0 {
				delete(r.roomMembers, previous.Room)
			}
		}
	}

	user := domain.User{
		ID:       id,
		Username: name,
		Room:     roomKey,
		Emoji:    domain.RandomEmoji(),
	}
	r.sessions[id] = user

	if _, ok := r.roomMembers[roomKey]; !ok {
		r.roomMembers[roomKey] = make(Set)
	}
	r.roomMembers[roomKey][id] = struct{}{}

	return user, nil
}

// RemoveUser deletes and returns the entry matching id. Removing an absent
// id reports false so callers can tolerate duplicate disconnect signals.
func (r *Registry) RemoveUser(id string) (domain.User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.sessions[id]
	if !ok {
		return domain.User{}, false
	}
	delete(r.sessions, id)

	if members, ok := r.roomMembers[user.Room]; ok {
		delete(members, id)

		// If no one is left in the room, remove the room entry entirely
		if len(members) == 0 {
			delete(r.roomMembers, user.Room)
		}
	}
	return user, true
}

func (r *Registry) GetUser(id string) (domain.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.sessions[id]
	return user, ok
}

// UsersInRoom lists the room's members sorted by username, with the agent
// pseudo-member always appended last. The agent is injected at this read
// boundary instead of being stored, so uniqueness and removal invariants
// never have to special-case it.
func (r *Registry) UsersInRoom(room string) []domain.User {
	roomKey := domain.NormalizeRoom(room)

	r.mu.RLock()
	users := make([]domain.User, 0, len(r.roomMembers[roomKey])+1)
	for memberID := range r.roomMembers[roomKey] {
		users = append(users, r.sessions[memberID])
	}
	r.mu.RUnlock()

	sort.Slice(users, func(i, j int) bool {
		return users[i].Username < users[j].Username
	})

	agent := domain.Agent
	agent.Room = roomKey
	return append(users, agent)
}
