// Package runtime orchestrates the join/send/locate/leave protocol on top
// of the presence registry, the history buffer, the quota limiter and the
// broadcast gateway. It contains no transport logic.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"chat-relay/ai"
	"chat-relay/broadcast"
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/presence"
	"chat-relay/quota"
	"chat-relay/repositories"
)

// SendResult reports the outcome of a Send. RateLimited is a recognized
// outcome, not an error: the room was notified, the AI was not invoked.
type SendResult struct {
	RateLimited bool
	Remaining   int
}

type Coordinator struct {
	log       *slog.Logger
	presence  presence.IRegistry
	history   repositories.IHistoryRepository
	limiter   *quota.Limiter
	gateway   contract.Gateway
	checker   contract.ProfanityChecker
	responder contract.Responder
	roomLocks *keyedMutex
}

func NewCoordinator(
	log *slog.Logger,
	registry presence.IRegistry,
	history repositories.IHistoryRepository,
	limiter *quota.Limiter,
	gateway contract.Gateway,
	checker contract.ProfanityChecker,
	responder contract.Responder,
) *Coordinator {
	return &Coordinator{
		log:       log,
		presence:  registry,
		history:   history,
		limiter:   limiter,
		gateway:   gateway,
		checker:   checker,
		responder: responder,
		roomLocks: newKeyedMutex(),
	}
}

// Join admits a user into a room. On success the user's AI quota is reset,
// the room receives a welcome message, a joined notification and a fresh
// membership snapshot. A duplicate username or empty field aborts before
// any mutation.
func (c *Coordinator) Join(id, username, room string) (domain.User, error) {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(room) == "" {
		return domain.User{}, errors.ErrValidation
	}
	roomKey := domain.NormalizeRoom(room)

	unlock := c.roomLocks.Lock(roomKey)
	defer unlock()

	user, err := c.presence.AddUser(id, username, room)
	if err != nil {
		return domain.User{}, err
	}

	// Quota is per session: rejoining refreshes the daily allowance.
	c.limiter.ResetUserLimit(id)

	welcome := domain.NewMessage(domain.AdminName, "Welcome!", domain.AdminEmoji)
	c.emit(roomKey, broadcast.KindMessage, welcome, welcome)

	joined := domain.NewMessage(domain.AdminName,
		fmt.Sprintf("New joined member is %s", user.Username), domain.AdminEmoji)
	c.emit(roomKey, broadcast.KindUserJoined, joined, broadcast.UserEvent{Message: joined, User: user})

	c.publishRoomData(roomKey)
	return user, nil
}

// Send relays a user's text to their room. Messages addressing the agent
// are gated by the daily quota; the provider call happens with no lock
// held so other rooms keep flowing during the round trip.
func (c *Coordinator) Send(ctx context.Context, userID, text string) (SendResult, error) {
	user, ok := c.presence.GetUser(userID)
	if !ok {
		return SendResult{}, errors.ErrUserNotFound
	}

	if c.checker.IsProfane(text) {
		c.log.Info("Message rejected by moderation",
			"user_id", userID, "room", user.Room, "language", c.checker.Language(text))
		return SendResult{}, errors.ErrProfanity
	}

	if !ai.IsAgentMessage(text) {
		unlock := c.roomLocks.Lock(user.Room)
		defer unlock()

		message := domain.NewMessage(user.Username, text, user.Emoji)
		c.emit(user.Room, broadcast.KindMessage, message, message)
		return SendResult{Remaining: c.limiter.RemainingRequests(userID)}, nil
	}

	return c.sendToAgent(ctx, user, text)
}

// sendToAgent handles the AI-invocation path. The quota check, the user
// message and the usage increment commit under the room lock; the lock is
// then released for the provider round trip and reacquired to apply the
// reply through the normal serialized path.
func (c *Coordinator) sendToAgent(ctx context.Context, user domain.User, text string) (SendResult, error) {
	unlock := c.roomLocks.Lock(user.Room)

	if c.limiter.HasExceededLimit(user.ID) {
		warning := domain.NewMessage(domain.AdminName,
			fmt.Sprintf("%s, you reached your daily limit of %d AI requests. Try again tomorrow.",
				user.Username, quota.DailyLimit),
			domain.AdminEmoji)
		c.emit(user.Room, broadcast.KindMessage, warning, warning)
		unlock()
		return SendResult{RateLimited: true}, nil
	}

	message := domain.NewMessage(user.Username, text, user.Emoji)
	c.emit(user.Room, broadcast.KindMessage, message, message)

	c.limiter.IncrementUsage(user.ID)
	remaining := c.limiter.RemainingRequests(user.ID)
	unlock()

	// Long-latency external call: no lock may be held here.
	replyText, err := c.responder.Reply(ctx, ai.Prompt(text), user.Room, user.Username)
	if err != nil {
		c.log.Error("Agent reply failed", "user_id", user.ID, "room", user.Room, "error", err)
		replyText = ai.Apology
	}

	unlock = c.roomLocks.Lock(user.Room)
	defer unlock()

	reply := domain.NewMessage(domain.Agent.Username, replyText, domain.Agent.Emoji)
	c.emit(user.Room, broadcast.KindMessage, reply, reply)

	if remaining <= 1 {
		notice := domain.NewMessage(domain.AdminName,
			fmt.Sprintf("%s, you have %d AI request(s) left today.", user.Username, remaining),
			domain.AdminEmoji)
		c.emit(user.Room, broadcast.KindMessage, notice, notice)
	}

	return SendResult{Remaining: remaining}, nil
}

// SendLocation relays the user's coordinates as a map-link message.
func (c *Coordinator) SendLocation(userID string, latitude, longitude float64) error {
	user, ok := c.presence.GetUser(userID)
	if !ok {
		return errors.ErrUserNotFound
	}

	unlock := c.roomLocks.Lock(user.Room)
	defer unlock()

	url := fmt.Sprintf("https://google.com/maps?q=%v,%v", latitude, longitude)
	message := domain.NewLocationMessage(user.Username, url, user.Emoji)
	c.emit(user.Room, broadcast.KindLocationMessage, message, message)
	return nil
}

// Leave removes the user and notifies their room. Leaving with an unknown
// id is a silent no-op so duplicate disconnect signals are harmless.
func (c *Coordinator) Leave(userID string) (domain.User, bool) {
	user, ok := c.presence.GetUser(userID)
	if !ok {
		return domain.User{}, false
	}

	unlock := c.roomLocks.Lock(user.Room)
	defer unlock()

	user, ok = c.presence.RemoveUser(userID)
	if !ok {
		// Lost a race with another disconnect signal
		return domain.User{}, false
	}

	left := domain.NewMessage(domain.AdminName,
		fmt.Sprintf("A user who left was %s", user.Username), domain.AdminEmoji)
	c.emit(user.Room, broadcast.KindUserLeft, left, broadcast.UserEvent{Message: left, User: user})

	c.publishRoomData(user.Room)
	return user, true
}

// GetUser resolves a transport id into the live user, if any.
func (c *Coordinator) GetUser(id string) (domain.User, bool) {
	return c.presence.GetUser(id)
}

// Messages returns the room's history for replay on (re)connect.
func (c *Coordinator) Messages(room string) ([]domain.Message, error) {
	return c.history.Messages(room)
}

// UsersInRoom exposes the membership snapshot, agent included.
func (c *Coordinator) UsersInRoom(room string) []domain.User {
	return c.presence.UsersInRoom(room)
}

// emit stores the message then broadcasts the payload. A history failure
// after the presence mutation committed is cosmetic: it is logged and the
// broadcast still goes out.
func (c *Coordinator) emit(room string, kind contract.EventKind, message domain.Message, payload any) {
	if err := c.history.Append(room, message); err != nil {
		c.log.Error("History append failed", "room", room, "error", err)
	}
	c.gateway.Publish(room, kind, payload)
}

func (c *Coordinator) publishRoomData(room string) {
	c.gateway.Publish(room, broadcast.KindRoomData, broadcast.RoomData{
		Room:  room,
		Users: c.presence.UsersInRoom(room),
	})
}
