// internal/httpserver/routes_rooms.go
//
// Room endpoints, matching the shapes the web client expects:
//   - POST /rooms/create          → {roomCode, targetWord}
//   - POST /rooms/join            → {success, gameState, targetWord, players, readyPlayers}
//   - GET  /rooms                 → lobby listing
//   - GET  /rooms/{code}          → room snapshot (after the on-demand sweep)
//   - POST /rooms/{code}          → multiplexed update (guess/heartbeat/ready/leave)
//   - GET  /rooms/{code}/watch    → websocket change feed
//
// The target word is always included in snapshots: clients are trusted to
// withhold it from display until round end. Not a security boundary.

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"wordrooms/internal/game"
	"wordrooms/internal/room"
	"wordrooms/internal/session"
	"wordrooms/internal/store"
)

func (s *Server) mountRooms(r chi.Router) {
	r.Route("/rooms", func(r chi.Router) {
		r.Post("/create", s.handleCreateRoom)
		r.Post("/join", s.handleJoinRoom)
		r.Get("/", s.handleListRooms)
		r.Get("/{code}", s.handleGetRoom)
		r.Post("/{code}", s.handleUpdateRoom)
		if s.hub != nil {
			r.Get("/{code}/watch", s.handleWatchRoom)
		}
	})
}

// writeRoomErr maps façade errors onto the boundary taxonomy.
func writeRoomErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrValidation):
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, `{"error":"Room not found"}`, http.StatusNotFound)
	case errors.Is(err, session.ErrCodeSpaceExhausted):
		http.Error(w, `{"error":"could_not_create_room"}`, http.StatusInternalServerError)
	default:
		log.Error().Err(err).Msg("room operation failed")
		http.Error(w, `{"error":"internal"}`, http.StatusInternalServerError)
	}
}

type createRoomReq struct {
	PlayerID string `json:"playerId"`
	Nickname string `json:"nickname"`
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	res, err := s.rooms.Create(r.Context(), req.PlayerID, req.Nickname)
	if err != nil {
		writeRoomErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(res)
}

type joinRoomReq struct {
	RoomCode string `json:"roomCode"`
	PlayerID string `json:"playerId"`
	Nickname string `json:"nickname"`
}

type joinRoomRes struct {
	Success bool `json:"success"`
	*session.Snapshot
}

func (s *Server) handleJoinRoom(w http.ResponseWriter, r *http.Request) {
	var req joinRoomReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	snap, err := s.rooms.Join(r.Context(), req.RoomCode, req.PlayerID, req.Nickname)
	if err != nil {
		writeRoomErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(joinRoomRes{Success: true, Snapshot: snap})
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	snap, err := s.rooms.State(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeRoomErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(snap)
}

// updateRoomReq is the multiplexed mutation body. Pointer fields distinguish
// "absent" from zero values (an empty currentGuess clears the ghost text,
// readyForNewGame:false un-readies).
type updateRoomReq struct {
	PlayerID        string      `json:"playerId"`
	CurrentGuess    *string     `json:"currentGuess"`
	GameState       *game.State `json:"gameState"`
	ReadyForNewGame *bool       `json:"readyForNewGame"`
	Leaving         bool        `json:"leaving"`
}

func (s *Server) handleUpdateRoom(w http.ResponseWriter, r *http.Request) {
	var req updateRoomReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	res, err := s.rooms.Update(r.Context(), chi.URLParam(r, "code"), session.UpdateRequest{
		PlayerID:     req.PlayerID,
		CurrentGuess: req.CurrentGuess,
		GameState:    req.GameState,
		Ready:        req.ReadyForNewGame,
		Leaving:      req.Leaving,
	})
	if err != nil {
		writeRoomErr(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(res)
}

// roomSummary is the lobby view of one room.
type roomSummary struct {
	ID          string        `json:"id"`
	PlayerCount int           `json:"playerCount"`
	Players     []lobbyPlayer `json:"players"`
	CreatedAt   time.Time     `json:"createdAt"`
	GameStatus  game.Status   `json:"gameStatus"`
}

type lobbyPlayer struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
}

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	list, err := s.rooms.List(r.Context())
	if err != nil {
		writeRoomErr(w, err)
		return
	}
	out := make([]roomSummary, 0, len(list))
	for _, rm := range list {
		out = append(out, summarize(rm))
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"rooms": out, "total": len(out)})
}

func summarize(rm *room.Room) roomSummary {
	sum := roomSummary{
		ID:          rm.Code,
		PlayerCount: len(rm.Players),
		Players:     make([]lobbyPlayer, 0, len(rm.Players)),
		CreatedAt:   rm.CreatedAt,
		GameStatus:  rm.Game.Status,
	}
	for _, p := range rm.Players {
		sum.Players = append(sum.Players, lobbyPlayer{ID: p.ID, Nickname: p.Nickname})
	}
	return sum
}

func (s *Server) handleWatchRoom(w http.ResponseWriter, r *http.Request) {
	code := room.NormalizeCode(chi.URLParam(r, "code"))
	s.hub.Watch(w, r, code)
}
