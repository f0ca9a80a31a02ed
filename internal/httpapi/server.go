// Package httpapi wires the room coordinator to HTTP transports: a JSON
// API for joins, sends and leaves, a websocket attach point for the
// direct-push gateway, and operational endpoints (health, relay config).
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"chat-relay/broadcast"
	relayerrors "chat-relay/errors"
	"chat-relay/runtime"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/shirou/gopsutil/process"
)

type Server struct {
	log         *slog.Logger
	validate    *validator.Validate
	coordinator *runtime.Coordinator
	direct      *broadcast.DirectGateway // nil when running in relay mode
	relayCfg    broadcast.RelayConfig
	upgrader    websocket.Upgrader
	startedAt   time.Time
}

func NewServer(
	log *slog.Logger,
	coordinator *runtime.Coordinator,
	direct *broadcast.DirectGateway,
	relayCfg broadcast.RelayConfig,
) *Server {
	return &Server{
		log:         log,
		validate:    validator.New(),
		coordinator: coordinator,
		direct:      direct,
		relayCfg:    relayCfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		startedAt: time.Now().UTC(),
	}
}

func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/join", s.handleJoin).Methods(http.MethodPost)
	api.HandleFunc("/message", s.handleMessage).Methods(http.MethodPost)
	api.HandleFunc("/location", s.handleLocation).Methods(http.MethodPost)
	api.HandleFunc("/leave", s.handleLeave).Methods(http.MethodPost)
	api.HandleFunc("/messages", s.handleMessages).Methods(http.MethodGet)
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/pusher-config", s.handlePusherConfig).Methods(http.MethodGet)
	router.HandleFunc("/ws", s.handleWebsocket).Methods(http.MethodGet)
	return router
}

type joinRequest struct {
	Username string `json:"username" validate:"required"`
	Room     string `json:"room" validate:"required"`
}

type messageRequest struct {
	UserID  string `json:"userId" validate:"required"`
	Message string `json:"message" validate:"required"`
}

type coords struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type locationRequest struct {
	UserID string  `json:"userId" validate:"required"`
	Coords *coords `json:"coords" validate:"required"`
}

type leaveRequest struct {
	UserID string `json:"userId" validate:"required"`
}

// decode parses and validates the request body. Validation failures are
// reported as the same 400 shape the rest of the API uses.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any, missing string) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		s.writeError(w, http.StatusBadRequest, missing)
		return false
	}
	return true
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if !s.decode(w, r, &req, relayerrors.ErrValidation.Error()) {
		return
	}

	// The transport id doubles as the session token the client sends back
	// on every subsequent call.
	user, err := s.coordinator.Join(uuid.NewString(), req.Username, req.Room)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": user})
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if !s.decode(w, r, &req, "user ID and message are required") {
		return
	}

	result, err := s.coordinator.Send(r.Context(), req.UserID, req.Message)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if result.RateLimited {
		s.writeJSON(w, http.StatusOK, map[string]any{"success": false, "rateLimited": true})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "remaining": result.Remaining})
}

func (s *Server) handleLocation(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if !s.decode(w, r, &req, "user ID and coordinates are required") {
		return
	}

	if err := s.coordinator.SendLocation(req.UserID, req.Coords.Latitude, req.Coords.Longitude); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	var req leaveRequest
	if !s.decode(w, r, &req, "user ID is required") {
		return
	}

	// Leaving twice is fine: a duplicate disconnect signal is silent.
	s.coordinator.Leave(req.UserID)
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	room := r.URL.Query().Get("room")
	if room == "" {
		s.writeError(w, http.StatusBadRequest, "room is required")
		return
	}

	messages, err := s.coordinator.Messages(room)
	if err != nil {
		s.log.Error("History read failed", "room", room, "error", err)
		s.writeError(w, http.StatusInternalServerError, "could not read history")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	health := map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
		"relay": map[string]any{
			"configured": s.relayCfg.Configured(),
		},
	}

	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if memInfo, err := p.MemoryInfo(); err == nil {
			health["rss_bytes"] = memInfo.RSS
		}
		if cpuPercent, err := p.CPUPercent(); err == nil {
			health["cpu_percent"] = cpuPercent
		}
	}

	s.writeJSON(w, http.StatusOK, health)
}

// handlePusherConfig exposes the relay key and cluster, which are safe to
// hand to browsers. The secret never leaves the server.
func (s *Server) handlePusherConfig(w http.ResponseWriter, _ *http.Request) {
	if !s.relayCfg.Configured() {
		s.writeError(w, http.StatusInternalServerError,
			"Relay not configured. Set the PUSHER_* environment variables.")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"key":     s.relayCfg.Key,
		"cluster": s.relayCfg.Cluster,
	})
}

// handleWebsocket attaches a joined user's live connection to the direct
// gateway. The read loop only watches for disconnects; clients talk to
// the JSON API and listen here.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	if s.direct == nil {
		s.writeError(w, http.StatusNotFound, "direct transport disabled, subscribe via the relay")
		return
	}

	userID := r.URL.Query().Get("userId")
	user, ok := s.coordinator.GetUser(userID)
	if !ok {
		s.writeError(w, http.StatusNotFound, relayerrors.ErrUserNotFound.Error())
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("Websocket upgrade failed", "user_id", userID, "error", err)
		return
	}

	s.direct.Attach(user.ID, user.Room, conn)
	s.log.Debug("Transport attached", "user_id", user.ID, "room", user.Room)

	go func() {
		defer func() {
			s.direct.Detach(user.ID)
			_ = conn.Close()
			// The transport vanishing is the leave signal.
			s.coordinator.Leave(user.ID)
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	if errors.Is(err, relayerrors.ErrUserNotFound) {
		status = http.StatusNotFound
	}
	s.writeError(w, status, err.Error())
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]any{"error": message})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error("Response encoding failed", "error", err)
	}
}
