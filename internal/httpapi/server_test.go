package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"chat-relay/ai"
	"chat-relay/broadcast"
	"chat-relay/domain"
	"chat-relay/moderation"
	"chat-relay/presence"
	"chat-relay/quota"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

// newTestServer wires a full coordinator on real components: in-memory
// badger history, direct gateway, a tiny moderation dictionary and an
// unconfigured responder (which answers without a provider round trip).
func newTestServer(t *testing.T) *Server {
	t.Helper()
	log := logs.GetLoggerFromString("ERROR")

	db, err := badger.Open(badger.DefaultOptions("").
		WithInMemory(true).
		WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	moderator, err := moderation.NewModerator([]string{"badword"})
	require.NoError(t, err)

	direct := broadcast.NewDirectGateway(log)
	coordinator := runtime.NewCoordinator(
		log,
		presence.NewRegistry(),
		repositories.NewHistoryRepository(db, log),
		quota.NewLimiter(),
		direct,
		moderator,
		ai.NewResponder(log, ai.Config{}),
	)
	return NewServer(log, coordinator, direct, broadcast.RelayConfig{})
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func getPath(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func joinUser(t *testing.T, handler http.Handler, username, room string) domain.User {
	t.Helper()
	rec := postJSON(t, handler, "/api/join", map[string]string{"username": username, "room": room})
	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Success bool        `json:"success"`
		User    domain.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.True(t, response.Success)
	return response.User
}

func TestAPI_Join_Returns_Normalized_User(t *testing.T) {
	req := require.New(t)
	router := newTestServer(t).Router()

	user := joinUser(t, router, "alice", "lobby")

	req.Equal("Alice", user.Username)
	req.Equal("LOBBY", user.Room)
	req.NotEmpty(user.ID)
	req.NotEmpty(user.Emoji)
}

func TestAPI_Join_Missing_Fields(t *testing.T) {
	req := require.New(t)
	router := newTestServer(t).Router()

	rec := postJSON(t, router, "/api/join", map[string]string{"username": "alice"})
	req.Equal(http.StatusBadRequest, rec.Code)
}

func TestAPI_Join_Duplicate_Username(t *testing.T) {
	req := require.New(t)
	router := newTestServer(t).Router()
	joinUser(t, router, "alice", "lobby")

	rec := postJSON(t, router, "/api/join", map[string]string{"username": "ALICE", "room": "Lobby"})
	req.Equal(http.StatusBadRequest, rec.Code)
	req.Contains(rec.Body.String(), "in use")
}

func TestAPI_Message_Unknown_User(t *testing.T) {
	req := require.New(t)
	router := newTestServer(t).Router()

	rec := postJSON(t, router, "/api/message", map[string]string{"userId": "ghost", "message": "hi"})
	req.Equal(http.StatusNotFound, rec.Code)
}

func TestAPI_Message_Profanity_Rejected(t *testing.T) {
	req := require.New(t)
	router := newTestServer(t).Router()
	user := joinUser(t, router, "alice", "lobby")

	rec := postJSON(t, router, "/api/message",
		map[string]string{"userId": user.ID, "message": "such a badword here"})
	req.Equal(http.StatusBadRequest, rec.Code)
	req.Contains(rec.Body.String(), "not allowed")
}

func TestAPI_Message_And_History_Replay(t *testing.T) {
	req := require.New(t)
	router := newTestServer(t).Router()
	user := joinUser(t, router, "alice", "lobby")

	rec := postJSON(t, router, "/api/message",
		map[string]string{"userId": user.ID, "message": "hello everyone"})
	req.Equal(http.StatusOK, rec.Code)

	rec = getPath(t, router, "/api/messages?room=lobby")
	req.Equal(http.StatusOK, rec.Code)

	var response struct {
		Messages []domain.Message `json:"messages"`
	}
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &response))
	// welcome + joined notification + the user's message
	req.Len(response.Messages, 3)
	req.Equal("hello everyone", response.Messages[2].Text)
	req.Equal("Alice", response.Messages[2].Username)
}

func TestAPI_Location_Message(t *testing.T) {
	req := require.New(t)
	router := newTestServer(t).Router()
	user := joinUser(t, router, "alice", "lobby")

	rec := postJSON(t, router, "/api/location", map[string]any{
		"userId": user.ID,
		"coords": map[string]float64{"latitude": 1, "longitude": 2},
	})
	req.Equal(http.StatusOK, rec.Code)

	rec = getPath(t, router, "/api/messages?room=lobby")
	body := rec.Body.String()
	req.Contains(body, "https://google.com/maps?q=1,2")
}

func TestAPI_Agent_Message_Unconfigured_Provider(t *testing.T) {
	req := require.New(t)
	router := newTestServer(t).Router()
	user := joinUser(t, router, "alice", "lobby")

	rec := postJSON(t, router, "/api/message",
		map[string]string{"userId": user.ID, "message": "@Agent hello"})
	req.Equal(http.StatusOK, rec.Code)

	var response struct {
		Success   bool `json:"success"`
		Remaining int  `json:"remaining"`
	}
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &response))
	req.True(response.Success)
	req.Equal(quota.DailyLimit-1, response.Remaining)

	// The diagnostic reply landed in history under the agent's name
	rec = getPath(t, router, "/api/messages?room=lobby")
	req.Contains(rec.Body.String(), "AI is not configured")
}

func TestAPI_Agent_Rate_Limit_Exhaustion(t *testing.T) {
	req := require.New(t)
	router := newTestServer(t).Router()
	user := joinUser(t, router, "alice", "lobby")

	for i := 0; i < quota.DailyLimit; i++ {
		rec := postJSON(t, router, "/api/message",
			map[string]string{"userId": user.ID, "message": fmt.Sprintf("@Agent question %d", i)})
		req.Equal(http.StatusOK, rec.Code)
	}

	rec := postJSON(t, router, "/api/message",
		map[string]string{"userId": user.ID, "message": "@Agent one more"})
	req.Equal(http.StatusOK, rec.Code)

	var response struct {
		Success     bool `json:"success"`
		RateLimited bool `json:"rateLimited"`
	}
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &response))
	req.False(response.Success)
	req.True(response.RateLimited)
}

func TestAPI_Leave_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	router := newTestServer(t).Router()
	user := joinUser(t, router, "alice", "lobby")

	for i := 0; i < 2; i++ {
		rec := postJSON(t, router, "/api/leave", map[string]string{"userId": user.ID})
		req.Equal(http.StatusOK, rec.Code)
	}
}

func TestAPI_Messages_Requires_Room(t *testing.T) {
	req := require.New(t)
	router := newTestServer(t).Router()

	rec := getPath(t, router, "/api/messages")
	req.Equal(http.StatusBadRequest, rec.Code)
}

func TestAPI_Health(t *testing.T) {
	req := require.New(t)
	router := newTestServer(t).Router()

	rec := getPath(t, router, "/api/health")
	req.Equal(http.StatusOK, rec.Code)
	req.Contains(rec.Body.String(), `"status":"ok"`)
	req.Contains(rec.Body.String(), `"configured":false`)
}

func TestAPI_PusherConfig_Unconfigured(t *testing.T) {
	req := require.New(t)
	router := newTestServer(t).Router()

	rec := getPath(t, router, "/api/pusher-config")
	req.Equal(http.StatusInternalServerError, rec.Code)
}
