// internal/httpserver/server.go
//
// HTTP wiring for the word-rooms backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", "/debug/words".
//   - Lock-screen gate: POST /unlock plus the gate middleware (see gate.go).
//   - Room endpoints under /rooms (see routes_rooms.go).
//   - Solo game endpoints under /game (see routes_game.go).
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so the gate cookie works).
//   - The core is transport-agnostic; the websocket watch route only relays
//     change pings from the notify hub.

package httpserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"wordrooms/internal/config"
	"wordrooms/internal/game"
	"wordrooms/internal/notify"
	"wordrooms/internal/session"
	"wordrooms/internal/words"
)

// Server bundles the router and the façades the handlers call.
type Server struct {
	r     *chi.Mux
	rooms *session.Service
	solo  game.Sessions
	hub   *notify.Hub // nil when the push feed is disabled
	gate  *gate
	cfg   config.Config
}

// New constructs a Server, installs middleware, and registers routes.
func New(rooms *session.Service, solo game.Sessions, hub *notify.Hub, cfg config.Config) *Server {
	s := &Server{
		r:     chi.NewRouter(),
		rooms: rooms,
		solo:  solo,
		hub:   hub,
		gate:  newGate(cfg),
		cfg:   cfg,
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(10 * time.Second))
	s.r.Use(jsonContentType)
	s.r.Use(corsForOrigin(cfg.ClientOrigin))

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"wordrooms","endpoints":["/health","POST /rooms/create","POST /rooms/join","GET /rooms/{code}","POST /rooms/{code}","POST /game/new","POST /game/guess"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	s.r.Get("/debug/words", func(w http.ResponseWriter, r *http.Request) {
		a, g := words.Stats()
		_ = json.NewEncoder(w).Encode(map[string]int{"answers": a, "allowed": g})
	})

	// Lock-screen gate (no-op middleware unless GATE_CODE is configured)
	s.r.Post("/unlock", s.gate.handleUnlock)

	s.r.Group(func(r chi.Router) {
		r.Use(s.gate.require)
		s.mountRooms(r)
		s.mountGame(r)
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsForOrigin enables credentialed CORS for a single origin.
func corsForOrigin(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
