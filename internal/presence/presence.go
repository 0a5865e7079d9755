// internal/presence/presence.go
//
// Presence tracking and eviction, layered on the Room Store.
//
// Two cadences, both idempotent and safe alongside request handling:
//   - SweepRoom: the on-demand sweep run before answering a room-state query.
//     Aggressive threshold (tens of seconds) so a departed player disappears
//     from the roster within a few polling cycles.
//   - Run: the background sweep. More lenient player threshold (a minute) so
//     a transient client hiccup does not evict a present player, plus
//     empty-room deletion and the 24h room age ceiling.

package presence

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"wordrooms/internal/store"
)

// Thresholds carries the sweep tuning. Zero fields fall back to defaults.
type Thresholds struct {
	OnDemand   time.Duration // player TTL for the pre-read sweep
	Background time.Duration // player TTL for the periodic sweep
	Interval   time.Duration // periodic sweep cadence
	RoomMaxAge time.Duration // absolute room lifetime
}

// Defaults match the original tuning: 30s on-demand, 60s background player
// TTL, a 30s sweep tick, and a 24h room ceiling.
func (t Thresholds) withDefaults() Thresholds {
	if t.OnDemand <= 0 {
		t.OnDemand = 30 * time.Second
	}
	if t.Background <= 0 {
		t.Background = 60 * time.Second
	}
	if t.Interval <= 0 {
		t.Interval = 30 * time.Second
	}
	if t.RoomMaxAge <= 0 {
		t.RoomMaxAge = 24 * time.Hour
	}
	return t
}

// Manager runs the sweeps.
type Manager struct {
	st  store.Store
	cfg Thresholds
	now func() time.Time // injectable for tests
}

// NewManager builds a Manager over the given store.
func NewManager(st store.Store, cfg Thresholds) *Manager {
	return &Manager{st: st, cfg: cfg.withDefaults(), now: time.Now}
}

// SweepRoom removes the room's players idle past the on-demand threshold.
// Missing rooms are not an error here; the caller's re-read surfaces that.
func (m *Manager) SweepRoom(ctx context.Context, code string) {
	cutoff := m.now().Add(-m.cfg.OnDemand)
	n, err := m.st.EvictInactive(ctx, code, cutoff)
	if err != nil {
		return
	}
	if n > 0 {
		log.Info().Str("room", code).Int("evicted", n).Msg("evicted inactive players")
	}
}

// Run executes the background sweep on a ticker until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.SweepAll(ctx)
		}
	}
}

// SweepAll performs one pass of the background sweep.
func (m *Manager) SweepAll(ctx context.Context) {
	now := m.now()
	res, err := m.st.SweepRooms(ctx, now.Add(-m.cfg.Background), now.Add(-m.cfg.RoomMaxAge))
	if err != nil {
		log.Error().Err(err).Msg("background sweep failed")
		return
	}
	if res.PlayersEvicted > 0 || res.RoomsDeleted > 0 {
		log.Info().
			Int("playersEvicted", res.PlayersEvicted).
			Int("roomsDeleted", res.RoomsDeleted).
			Msg("background sweep")
	}
}
