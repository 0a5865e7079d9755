// internal/store/store.go
//
// The Room Store contract: the single seam between the session logic and
// whatever holds the authoritative Room/Player documents.
//
// Two interchangeable implementations live in this package:
//   - memory.go: process-local map with optional JSON file snapshotting.
//   - sql.go:    relational backend (Postgres via lib/pq, or SQLite) where
//     rooms and players are separate related records.
//
// Both must provide the same per-operation atomicity: partial updates touch
// only named fields, readiness is mutated per player (never by replacing the
// whole set), and ResetRound evaluates the barrier condition inside the
// store's own synchronization so it can fire at most once per finished round.

package store

import (
	"context"
	"errors"
	"time"

	"wordrooms/internal/game"
	"wordrooms/internal/room"
)

var (
	// ErrNotFound reports a missing room or player. Terminal for the caller.
	ErrNotFound = errors.New("not found")

	// ErrCodeTaken reports a room-code collision on create. The caller owns
	// the retry budget.
	ErrCodeTaken = errors.New("room code taken")
)

// RoomUpdate is a partial update of room-level fields. Nil fields are left
// untouched.
type RoomUpdate struct {
	TargetWord *string
	GameState  *game.State

	// ClearReady empties the ready set. Used when the shared game state
	// re-enters "playing" outside of a barrier fire.
	ClearReady bool
}

// PlayerUpdate is a partial update of one player's mutable fields. Nil fields
// are left untouched; lastActive is always refreshed.
type PlayerUpdate struct {
	Guesses      *int
	Status       *game.Status
	CurrentGuess *string

	// FinishRound bumps wordsGuessed, but only if the stored status is still
	// "playing" at the moment of the update. Repeating the same terminal
	// update is therefore a no-op: the counter moves exactly once per round.
	FinishRound bool
}

// SweepResult reports what a global sweep removed.
type SweepResult struct {
	PlayersEvicted int
	RoomsDeleted   int
}

// Store owns the authoritative Room/Player documents.
type Store interface {
	// CreateRoom inserts a new room with its seed player.
	// Returns ErrCodeTaken if the code is already live.
	CreateRoom(ctx context.Context, r *room.Room) error

	// GetRoom loads a room with all of its players and its ready set.
	// The code must already be normalized (room.NormalizeCode).
	GetRoom(ctx context.Context, code string) (*room.Room, error)

	// UpdateRoom applies a partial room update.
	UpdateRoom(ctx context.Context, code string, upd RoomUpdate) error

	// AddOrTouchPlayer inserts the player; if the id already exists in the
	// room it only refreshes lastActive. Never duplicates an id.
	AddOrTouchPlayer(ctx context.Context, code string, p room.Player) error

	// UpdatePlayer applies a partial player update and refreshes lastActive.
	UpdatePlayer(ctx context.Context, code, playerID string, upd PlayerUpdate) error

	// RemovePlayer deletes a player and their readiness. Removing an absent
	// player is not an error.
	RemovePlayer(ctx context.Context, code, playerID string) error

	// SetReady adds or removes one player in the ready set. The ready set is
	// always a subset of the room's players.
	SetReady(ctx context.Context, code, playerID string, ready bool) error

	// ListActivePlayers returns the room's current players.
	ListActivePlayers(ctx context.Context, code string) ([]room.Player, error)

	// ListRooms returns all live rooms (players included).
	ListRooms(ctx context.Context) ([]*room.Room, error)

	// ResetRound atomically starts a new round iff the room has at least one
	// player, its game status is not "playing", and every player is ready.
	// On fire it swaps in targetWord, resets the shared game state and each
	// player's guesses/status (wordsGuessed is preserved), and clears the
	// ready set. Reports whether it fired.
	ResetRound(ctx context.Context, code, targetWord string) (bool, error)

	// EvictInactive removes the room's players whose lastActive is older than
	// cutoff, returning how many were removed. It does not delete the room.
	EvictInactive(ctx context.Context, code string, cutoff time.Time) (int, error)

	// SweepRooms removes players older than playerCutoff across all rooms,
	// then deletes rooms that are empty or were created before roomCutoff.
	// A concurrent join either lands before the empty-room check (the room
	// survives) or observes ErrNotFound, never a silent join into a room
	// that is about to vanish.
	SweepRooms(ctx context.Context, playerCutoff, roomCutoff time.Time) (SweepResult, error)

	// Close flushes any pending state and releases resources.
	Close() error
}
