// internal/room/room.go
//
// The Room/Player data model for the multiplayer mode.
//
// A Room is a shared session identified by a short uppercase code. Every
// player races the same target word individually: the room-level game state
// mirrors the latest submitted round state, while per-player counters
// (guesses this round, lifetime wordsGuessed) live on the Player.
//
// ReadyPlayers is a set everywhere in process; it is serialized to a sorted
// slice only at the storage/wire boundary and de-duplicated when read back.

package room

import (
	"sort"
	"strings"
	"time"

	"wordrooms/internal/game"
)

// Player is owned by exactly one Room. IDs are client-generated and unique
// within a room, not globally.
type Player struct {
	ID           string      `json:"id"`
	Nickname     string      `json:"nickname"`
	Guesses      int         `json:"guesses"`
	WordsGuessed int         `json:"wordsGuessed"`
	Status       game.Status `json:"status"`
	LastActive   time.Time   `json:"-"`
	CurrentGuess string      `json:"currentGuess"` // ephemeral ghost-display text
}

// Room is the authoritative multiplayer session document.
type Room struct {
	Code         string
	HostID       string
	TargetWord   string
	Game         game.State
	Players      []Player
	ReadyPlayers map[string]struct{}
	CreatedAt    time.Time
}

// New seeds a room with its host as the only player.
func New(code, hostID, nickname, targetWord string, now time.Time) *Room {
	return &Room{
		Code:       NormalizeCode(code),
		HostID:     hostID,
		TargetWord: targetWord,
		Game:       game.NewState(),
		Players: []Player{{
			ID:         hostID,
			Nickname:   strings.TrimSpace(nickname),
			Status:     game.StatusPlaying,
			LastActive: now,
		}},
		ReadyPlayers: map[string]struct{}{},
		CreatedAt:    now,
	}
}

// NormalizeCode uppercases and trims a room code. Lookup is case-insensitive;
// storage always holds the normalized form.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Player returns the player with the given id, or nil.
func (r *Room) Player(id string) *Player {
	for i := range r.Players {
		if r.Players[i].ID == id {
			return &r.Players[i]
		}
	}
	return nil
}

// ReadyList returns the ready set as a sorted slice for snapshots and wire
// payloads.
func (r *Room) ReadyList() []string {
	out := make([]string, 0, len(r.ReadyPlayers))
	for id := range r.ReadyPlayers {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// ReadySetFromList rebuilds the set form, dropping duplicates.
func ReadySetFromList(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// AllReady reports whether the room has at least one player and every listed
// player's id is in the ready set. This is only half of the barrier condition;
// the round must also be over (see store.ResetRound).
func (r *Room) AllReady() bool {
	if len(r.Players) == 0 {
		return false
	}
	for i := range r.Players {
		if _, ok := r.ReadyPlayers[r.Players[i].ID]; !ok {
			return false
		}
	}
	return true
}
