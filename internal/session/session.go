// internal/session/session.go
//
// The session façade: the boundary the HTTP handlers call.
// Composes the store, presence manager, and change notifier into the three
// operations clients need (create room, join room, submit a state update)
// and computes each response's view of the room.
//
// Error taxonomy:
//   - store.ErrNotFound: terminal, surfaced as 404 by the handlers.
//   - ErrValidation: rejected before any store access.
//   - ErrCodeSpaceExhausted: the create retry budget ran out.
//   - anything else: a store failure; logged, surfaced as a generic 500 and
//     never retried here (idempotent re-application heals partial writes).

package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"wordrooms/internal/game"
	"wordrooms/internal/presence"
	"wordrooms/internal/room"
	"wordrooms/internal/store"
)

var (
	// ErrValidation marks missing or malformed required fields.
	ErrValidation = errors.New("validation")

	// ErrCodeSpaceExhausted means a unique room code could not be generated
	// within the retry budget. The caller may retry the whole create.
	ErrCodeSpaceExhausted = errors.New("could not generate a unique room code")
)

// createAttempts bounds code generation retries per create.
const createAttempts = 10

// Service wires the core together.
type Service struct {
	st         store.Store
	presence   *presence.Manager
	notify     Notifier
	randomWord func() string
}

// Notifier is the pluggable change-notification capability. The core only
// promises that every mutation is visible to the very next read; how clients
// learn to re-read (polling, push) is the transport layer's business.
type Notifier interface {
	RoomChanged(code string)
}

// NopNotifier is the polling-only default.
type NopNotifier struct{}

func (NopNotifier) RoomChanged(string) {}

// NewService builds the façade. randomWord supplies target words
// (words.RandomAnswer in production).
func NewService(st store.Store, pres *presence.Manager, notify Notifier, randomWord func() string) *Service {
	if notify == nil {
		notify = NopNotifier{}
	}
	return &Service{st: st, presence: pres, notify: notify, randomWord: randomWord}
}

// Snapshot is one consistent view of a room.
type Snapshot struct {
	GameState    game.State    `json:"gameState"`
	TargetWord   string        `json:"targetWord"`
	Players      []room.Player `json:"players"`
	ReadyPlayers []string      `json:"readyPlayers"`
}

// CreateResult is the response to a create.
type CreateResult struct {
	RoomCode   string `json:"roomCode"`
	TargetWord string `json:"targetWord"`
}

// UpdateRequest carries the multiplexed room mutation. All fields except
// PlayerID are optional; leaving short-circuits the rest.
type UpdateRequest struct {
	PlayerID     string
	CurrentGuess *string
	GameState    *game.State
	Ready        *bool
	Leaving      bool
}

// UpdateResult is the response to an update. NewTargetWord is non-empty only
// when the ready barrier fired and a new round started.
type UpdateResult struct {
	Success         bool          `json:"success"`
	GameState       game.State    `json:"gameState"`
	Players         []room.Player `json:"players"`
	ReadyPlayers    []string      `json:"readyPlayers"`
	AllPlayersReady bool          `json:"allPlayersReady"`
	NewTargetWord   string        `json:"targetWord,omitempty"`
}

// Create generates a unique room code, picks a target word, and seeds the
// host player.
func (s *Service) Create(ctx context.Context, playerID, nickname string) (*CreateResult, error) {
	nickname = strings.TrimSpace(nickname)
	if playerID == "" || nickname == "" {
		return nil, fmt.Errorf("%w: player id and nickname required", ErrValidation)
	}

	for i := 0; i < createAttempts; i++ {
		code, err := room.GenerateCode()
		if err != nil {
			return nil, fmt.Errorf("generating room code: %w", err)
		}
		r := room.New(code, playerID, nickname, s.randomWord(), time.Now())
		err = s.st.CreateRoom(ctx, r)
		if errors.Is(err, store.ErrCodeTaken) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("create room: %w", err)
		}
		log.Info().Str("room", r.Code).Str("host", playerID).Msg("room created")
		s.notify.RoomChanged(r.Code)
		return &CreateResult{RoomCode: r.Code, TargetWord: r.TargetWord}, nil
	}
	return nil, ErrCodeSpaceExhausted
}

// Join adds (or re-touches) a player and returns the room snapshot.
// Joining is idempotent per player id: a re-join refreshes lastActive.
func (s *Service) Join(ctx context.Context, code, playerID, nickname string) (*Snapshot, error) {
	nickname = strings.TrimSpace(nickname)
	if code == "" || playerID == "" || nickname == "" {
		return nil, fmt.Errorf("%w: room code, player id and nickname required", ErrValidation)
	}
	code = room.NormalizeCode(code)

	if _, err := s.st.GetRoom(ctx, code); err != nil {
		return nil, err
	}
	err := s.st.AddOrTouchPlayer(ctx, code, room.Player{
		ID:         playerID,
		Nickname:   nickname,
		Status:     game.StatusPlaying,
		LastActive: time.Now(),
	})
	if err != nil {
		return nil, err
	}

	r, err := s.st.GetRoom(ctx, code)
	if err != nil {
		return nil, err
	}
	s.notify.RoomChanged(code)
	return snapshotOf(r), nil
}

// State answers a room-state query: run the on-demand sweep, then re-read so
// the roster the client sees is already swept.
func (s *Service) State(ctx context.Context, code string) (*Snapshot, error) {
	code = room.NormalizeCode(code)
	if _, err := s.st.GetRoom(ctx, code); err != nil {
		return nil, err
	}
	s.presence.SweepRoom(ctx, code)
	r, err := s.st.GetRoom(ctx, code)
	if err != nil {
		return nil, err
	}
	return snapshotOf(r), nil
}

// List returns every live room (the lobby view).
func (s *Service) List(ctx context.Context) ([]*room.Room, error) {
	return s.st.ListRooms(ctx)
}

// Update applies a multiplexed room mutation in fixed order and returns a
// fresh snapshot. Leaving is handled first and short-circuits; then player
// fields, the ready toggle, the shared game state, and the round barrier.
func (s *Service) Update(ctx context.Context, code string, req UpdateRequest) (*UpdateResult, error) {
	if req.PlayerID == "" {
		return nil, fmt.Errorf("%w: player id required", ErrValidation)
	}
	code = room.NormalizeCode(code)

	if _, err := s.st.GetRoom(ctx, code); err != nil {
		return nil, err
	}

	if req.Leaving {
		return s.leave(ctx, code, req.PlayerID)
	}

	upd := store.PlayerUpdate{CurrentGuess: req.CurrentGuess}
	if req.GameState != nil {
		n := len(req.GameState.Guesses)
		st := req.GameState.Status
		upd.Guesses = &n
		upd.Status = &st
		if n > 0 {
			// A submitted guess supersedes the ghost text.
			empty := ""
			upd.CurrentGuess = &empty
		}
		if st.Terminal() {
			upd.FinishRound = true
		}
	}
	// Every request from a player is also a heartbeat: the update always
	// refreshes lastActive, even when no fields are set.
	if err := s.st.UpdatePlayer(ctx, code, req.PlayerID, upd); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		// Evicted mid-request; the remaining mutations still apply.
		log.Warn().Str("room", code).Str("player", req.PlayerID).Msg("update for absent player")
	}

	if req.Ready != nil {
		if err := s.st.SetReady(ctx, code, req.PlayerID, *req.Ready); err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}

	if req.GameState != nil {
		err := s.st.UpdateRoom(ctx, code, store.RoomUpdate{
			GameState: req.GameState,
			// A round back in progress invalidates stale readiness.
			ClearReady: req.GameState.Status == game.StatusPlaying,
		})
		if err != nil {
			return nil, err
		}
	}

	// The barrier condition is evaluated inside the store against a
	// consistent read of players and readiness, never against anything this
	// request saw earlier.
	fired, err := s.st.ResetRound(ctx, code, s.randomWord())
	if err != nil {
		return nil, err
	}
	if fired {
		log.Info().Str("room", code).Msg("all players ready, new round started")
	}

	r, err := s.st.GetRoom(ctx, code)
	if err != nil {
		return nil, err
	}
	s.notify.RoomChanged(code)

	res := &UpdateResult{
		Success:         true,
		GameState:       r.Game,
		Players:         r.Players,
		ReadyPlayers:    r.ReadyList(),
		AllPlayersReady: fired,
	}
	if fired {
		res.NewTargetWord = r.TargetWord
	}
	return res, nil
}

func (s *Service) leave(ctx context.Context, code, playerID string) (*UpdateResult, error) {
	if err := s.st.RemovePlayer(ctx, code, playerID); err != nil {
		return nil, err
	}
	r, err := s.st.GetRoom(ctx, code)
	if err != nil {
		return nil, err
	}
	s.notify.RoomChanged(code)
	return &UpdateResult{
		Success:      true,
		GameState:    r.Game,
		Players:      r.Players,
		ReadyPlayers: r.ReadyList(),
	}, nil
}

func snapshotOf(r *room.Room) *Snapshot {
	return &Snapshot{
		GameState:    r.Game,
		TargetWord:   r.TargetWord,
		Players:      r.Players,
		ReadyPlayers: r.ReadyList(),
	}
}
