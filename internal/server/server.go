// Package server exposes the intent/event contract over HTTP and a
// persistent websocket. It owns no game rules: every intent is validated and
// applied by the engine under the target room's lock, and the resulting
// snapshot is broadcast to the room.
package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"tagopoly/internal/room"
)

// DefaultAutoEndDelay is the pause before a turn auto-ends after a penalty
// or tag resolution, so clients can display the reward message.
const DefaultAutoEndDelay = 750 * time.Millisecond

// Server is the HTTP server and websocket dispatcher.
type Server struct {
	mux      *http.ServeMux
	registry *room.Registry
	log      *zap.SugaredLogger

	autoEndDelay time.Duration

	mu      sync.Mutex
	clients map[string]*client // connection id -> client
	inRoom  map[string]string  // connection id -> room code
}

// New creates a server with all routes.
func New(registry *room.Registry, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	s := &Server{
		mux:          http.NewServeMux(),
		registry:     registry,
		log:          log,
		autoEndDelay: DefaultAutoEndDelay,
		clients:      make(map[string]*client),
		inRoom:       make(map[string]string),
	}
	s.routes()
	return s
}

// SetAutoEndDelay overrides the pause before penalized turns auto-advance.
// Call before serving; tests use a near-zero delay.
func (s *Server) SetAutoEndDelay(d time.Duration) {
	if d >= 0 {
		s.autoEndDelay = d
	}
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /api/rooms", s.handleListRooms)
	s.mux.HandleFunc("GET /api/results", s.handleListResults)
	s.mux.HandleFunc("GET /ws", s.handleWebSocket)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.List())
}

func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	rows, err := s.registry.Results(limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "results unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
