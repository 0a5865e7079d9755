// internal/game/sessions.go
//
// In-memory store for solo game sessions.
// Solo games are ephemeral: they live only as long as the process.
//
// Characteristics:
//   - Stores *Game keyed by ID in a map.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - Errors are returned for missing game IDs on Get().

package game

import (
	"context"
	"errors"
	"sync"
)

// Sessions is the persistence interface for solo games.
type Sessions interface {
	// Save persists or updates a game state.
	Save(ctx context.Context, g *Game) error

	// Get retrieves a game by ID.
	// Returns an error if the game is not found.
	Get(ctx context.Context, id string) (*Game, error)
}

type memorySessions struct {
	mu    sync.RWMutex     // guards games map
	games map[string]*Game // keyed by Game.ID
}

// NewMemorySessions constructs a new in-memory Sessions store.
func NewMemorySessions() Sessions {
	return &memorySessions{games: make(map[string]*Game)}
}

func (m *memorySessions) Save(ctx context.Context, g *Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.games[g.ID] = g
	return nil
}

func (m *memorySessions) Get(ctx context.Context, id string) (*Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if g, ok := m.games[id]; ok {
		return g, nil
	}
	return nil, errors.New("not found")
}
