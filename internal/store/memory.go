// internal/store/memory.go
//
// In-process implementation of the Room Store.
//
// Characteristics:
//   - One mutex over a map of rooms keyed by code; every operation is atomic
//     under that lock.
//   - Reads hand out deep copies so callers never alias live documents.
//   - Optional snapshotting: when configured with a file path, a background
//     goroutine periodically writes the whole table as JSON and the file is
//     reloaded at startup. Losing the last unsaved interval on crash is
//     accepted; restart recovery is best effort.
//   - The ready set is serialized as a sorted slice and de-duplicated on load.

package store

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"wordrooms/internal/game"
	"wordrooms/internal/room"
)

// Memory is the map-backed Store.
type Memory struct {
	mu    sync.Mutex
	rooms map[string]*room.Room

	path     string
	interval time.Duration
	dirty    bool
	done     chan struct{}
	wg       sync.WaitGroup
}

// NewMemoryStore constructs the in-process store. If path is non-empty the
// snapshot file is loaded (when present) and a snapshot writer is started.
func NewMemoryStore(path string, interval time.Duration) *Memory {
	m := &Memory{
		rooms:    make(map[string]*room.Room),
		path:     path,
		interval: interval,
		done:     make(chan struct{}),
	}
	if path != "" {
		m.load()
		if interval > 0 {
			m.wg.Add(1)
			go m.snapshotLoop()
		}
	}
	return m
}

func (m *Memory) CreateRoom(ctx context.Context, r *room.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.rooms[r.Code]; exists {
		return ErrCodeTaken
	}
	m.rooms[r.Code] = cloneRoom(r)
	m.dirty = true
	return nil
}

func (m *Memory) GetRoom(ctx context.Context, code string) (*room.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[code]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneRoom(r), nil
}

func (m *Memory) UpdateRoom(ctx context.Context, code string, upd RoomUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[code]
	if !ok {
		return ErrNotFound
	}
	if upd.TargetWord != nil {
		r.TargetWord = *upd.TargetWord
	}
	if upd.GameState != nil {
		r.Game = cloneState(*upd.GameState)
	}
	if upd.ClearReady {
		r.ReadyPlayers = map[string]struct{}{}
	}
	m.dirty = true
	return nil
}

func (m *Memory) AddOrTouchPlayer(ctx context.Context, code string, p room.Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[code]
	if !ok {
		return ErrNotFound
	}
	if existing := r.Player(p.ID); existing != nil {
		existing.LastActive = time.Now()
		m.dirty = true
		return nil
	}
	if p.LastActive.IsZero() {
		p.LastActive = time.Now()
	}
	r.Players = append(r.Players, p)
	m.dirty = true
	return nil
}

func (m *Memory) UpdatePlayer(ctx context.Context, code, playerID string, upd PlayerUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[code]
	if !ok {
		return ErrNotFound
	}
	p := r.Player(playerID)
	if p == nil {
		return ErrNotFound
	}
	if upd.FinishRound && p.Status == game.StatusPlaying {
		p.WordsGuessed++
	}
	if upd.Guesses != nil {
		p.Guesses = *upd.Guesses
	}
	if upd.Status != nil {
		p.Status = *upd.Status
	}
	if upd.CurrentGuess != nil {
		p.CurrentGuess = *upd.CurrentGuess
	}
	p.LastActive = time.Now()
	m.dirty = true
	return nil
}

func (m *Memory) RemovePlayer(ctx context.Context, code, playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[code]
	if !ok {
		// Idempotent: the room (and thus the player) is already gone.
		return nil
	}
	m.removePlayerLocked(r, playerID)
	m.dirty = true
	return nil
}

func (m *Memory) SetReady(ctx context.Context, code, playerID string, ready bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[code]
	if !ok {
		return ErrNotFound
	}
	if !ready {
		delete(r.ReadyPlayers, playerID)
		m.dirty = true
		return nil
	}
	// Readiness is a subset of the players: never mark an absent player.
	if r.Player(playerID) == nil {
		return ErrNotFound
	}
	r.ReadyPlayers[playerID] = struct{}{}
	m.dirty = true
	return nil
}

func (m *Memory) ListActivePlayers(ctx context.Context, code string) ([]room.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[code]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]room.Player, len(r.Players))
	copy(out, r.Players)
	return out, nil
}

func (m *Memory) ListRooms(ctx context.Context) ([]*room.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*room.Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		out = append(out, cloneRoom(r))
	}
	return out, nil
}

func (m *Memory) ResetRound(ctx context.Context, code, targetWord string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[code]
	if !ok {
		return false, ErrNotFound
	}
	// The whole barrier condition is evaluated under the lock against the
	// current players, so a mid-join or a leave cannot be missed.
	if r.Game.Status == game.StatusPlaying || !r.AllReady() {
		return false, nil
	}
	r.TargetWord = targetWord
	r.Game = game.NewState()
	r.ReadyPlayers = map[string]struct{}{}
	for i := range r.Players {
		r.Players[i].Guesses = 0
		r.Players[i].Status = game.StatusPlaying
	}
	m.dirty = true
	return true, nil
}

func (m *Memory) EvictInactive(ctx context.Context, code string, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[code]
	if !ok {
		return 0, ErrNotFound
	}
	n := m.evictLocked(r, cutoff)
	if n > 0 {
		m.dirty = true
	}
	return n, nil
}

func (m *Memory) SweepRooms(ctx context.Context, playerCutoff, roomCutoff time.Time) (SweepResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var res SweepResult
	for code, r := range m.rooms {
		res.PlayersEvicted += m.evictLocked(r, playerCutoff)
		if len(r.Players) == 0 || r.CreatedAt.Before(roomCutoff) {
			delete(m.rooms, code)
			res.RoomsDeleted++
		}
	}
	if res.PlayersEvicted > 0 || res.RoomsDeleted > 0 {
		m.dirty = true
	}
	return res, nil
}

// Close stops the snapshot writer and flushes a final snapshot.
func (m *Memory) Close() error {
	if m.path != "" && m.interval > 0 {
		close(m.done)
		m.wg.Wait()
	}
	return m.Flush()
}

// Flush writes a snapshot immediately when a path is configured.
func (m *Memory) Flush() error {
	if m.path == "" {
		return nil
	}
	return m.save()
}

// ------------------------------ internals ----------------------------------

func (m *Memory) removePlayerLocked(r *room.Room, playerID string) {
	for i := range r.Players {
		if r.Players[i].ID == playerID {
			r.Players = append(r.Players[:i], r.Players[i+1:]...)
			break
		}
	}
	delete(r.ReadyPlayers, playerID)
}

func (m *Memory) evictLocked(r *room.Room, cutoff time.Time) int {
	kept := r.Players[:0]
	evicted := 0
	for _, p := range r.Players {
		if p.LastActive.Before(cutoff) {
			delete(r.ReadyPlayers, p.ID)
			evicted++
			continue
		}
		kept = append(kept, p)
	}
	r.Players = kept
	return evicted
}

func cloneRoom(r *room.Room) *room.Room {
	c := &room.Room{
		Code:         r.Code,
		HostID:       r.HostID,
		TargetWord:   r.TargetWord,
		Game:         cloneState(r.Game),
		Players:      make([]room.Player, len(r.Players)),
		ReadyPlayers: make(map[string]struct{}, len(r.ReadyPlayers)),
		CreatedAt:    r.CreatedAt,
	}
	copy(c.Players, r.Players)
	for id := range r.ReadyPlayers {
		c.ReadyPlayers[id] = struct{}{}
	}
	return c
}

func cloneState(s game.State) game.State {
	c := game.State{
		Guesses:      make([]game.ScoredGuess, len(s.Guesses)),
		Status:       s.Status,
		LetterStates: make(map[string]game.Verdict, len(s.LetterStates)),
	}
	for i, g := range s.Guesses {
		c.Guesses[i] = game.ScoredGuess{Word: g.Word, States: append([]game.Verdict(nil), g.States...)}
	}
	for k, v := range s.LetterStates {
		c.LetterStates[k] = v
	}
	if c.Guesses == nil {
		c.Guesses = []game.ScoredGuess{}
	}
	return c
}

// ------------------------------ snapshots ----------------------------------

type snapshotPlayer struct {
	ID           string      `json:"id"`
	Nickname     string      `json:"nickname"`
	Guesses      int         `json:"guesses"`
	WordsGuessed int         `json:"wordsGuessed"`
	Status       game.Status `json:"status"`
	LastActive   time.Time   `json:"lastActive"`
	CurrentGuess string      `json:"currentGuess,omitempty"`
}

type snapshotRoom struct {
	Code         string           `json:"code"`
	HostID       string           `json:"hostId"`
	TargetWord   string           `json:"targetWord"`
	Game         game.State       `json:"gameState"`
	Players      []snapshotPlayer `json:"players"`
	ReadyPlayers []string         `json:"readyPlayers"`
	CreatedAt    time.Time        `json:"createdAt"`
}

func (m *Memory) snapshotLoop() {
	defer m.wg.Done()
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.mu.Lock()
			dirty := m.dirty
			m.mu.Unlock()
			if !dirty {
				continue
			}
			if err := m.save(); err != nil {
				log.Error().Err(err).Str("path", m.path).Msg("room snapshot failed")
			}
		}
	}
}

func (m *Memory) save() error {
	m.mu.Lock()
	data := make(map[string]snapshotRoom, len(m.rooms))
	for code, r := range m.rooms {
		sr := snapshotRoom{
			Code:         r.Code,
			HostID:       r.HostID,
			TargetWord:   r.TargetWord,
			Game:         r.Game,
			Players:      make([]snapshotPlayer, 0, len(r.Players)),
			ReadyPlayers: r.ReadyList(),
			CreatedAt:    r.CreatedAt,
		}
		for _, p := range r.Players {
			sr.Players = append(sr.Players, snapshotPlayer{
				ID:           p.ID,
				Nickname:     p.Nickname,
				Guesses:      p.Guesses,
				WordsGuessed: p.WordsGuessed,
				Status:       p.Status,
				LastActive:   p.LastActive,
				CurrentGuess: p.CurrentGuess,
			})
		}
		data[code] = sr
	}
	m.dirty = false
	m.mu.Unlock()

	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.path, b, 0o644)
}

func (m *Memory) load() {
	b, err := os.ReadFile(m.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", m.path).Msg("could not read room snapshot")
		}
		return
	}
	var data map[string]snapshotRoom
	if err := json.Unmarshal(b, &data); err != nil {
		log.Warn().Err(err).Str("path", m.path).Msg("could not parse room snapshot")
		return
	}
	for code, sr := range data {
		r := &room.Room{
			Code:         room.NormalizeCode(code),
			HostID:       sr.HostID,
			TargetWord:   sr.TargetWord,
			Game:         cloneState(sr.Game),
			Players:      make([]room.Player, 0, len(sr.Players)),
			ReadyPlayers: room.ReadySetFromList(sr.ReadyPlayers),
			CreatedAt:    sr.CreatedAt,
		}
		for _, p := range sr.Players {
			r.Players = append(r.Players, room.Player{
				ID:           p.ID,
				Nickname:     p.Nickname,
				Guesses:      p.Guesses,
				WordsGuessed: p.WordsGuessed,
				Status:       p.Status,
				LastActive:   p.LastActive,
				CurrentGuess: p.CurrentGuess,
			})
		}
		m.rooms[r.Code] = r
	}
	log.Info().Int("rooms", len(m.rooms)).Str("path", m.path).Msg("loaded room snapshot")
}
