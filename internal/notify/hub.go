// internal/notify/hub.go
//
// Push-based change feed. The core never depends on this: handlers call
// session.Notifier.RoomChanged after mutations, and this hub merely relays a
// "changed" ping to websocket watchers of that room, who then re-fetch the
// room exactly as a polling client would. Delivery is best effort; a dropped
// ping only delays the watcher by one polling interval.

package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog/log"
)

const writeTimeout = 5 * time.Second

// Event is the JSON structure pushed to watchers.
type Event struct {
	Type string `json:"type"` // always "changed"
	Room string `json:"room"`
}

type subscriber struct {
	ch chan []byte
}

// Hub fans room-change pings out to per-room watcher sets.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*subscriber]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*subscriber]struct{})}
}

// RoomChanged implements session.Notifier. Non-blocking: a slow watcher's
// ping is dropped, not queued.
func (h *Hub) RoomChanged(code string) {
	data, err := json.Marshal(Event{Type: "changed", Room: code})
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.rooms[code] {
		select {
		case sub.ch <- data:
		default:
		}
	}
}

func (h *Hub) subscribe(code string) *subscriber {
	sub := &subscriber{ch: make(chan []byte, 8)}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[code] == nil {
		h.rooms[code] = make(map[*subscriber]struct{})
	}
	h.rooms[code][sub] = struct{}{}
	return sub
}

func (h *Hub) unsubscribe(code string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.rooms[code], sub)
	if len(h.rooms[code]) == 0 {
		delete(h.rooms, code)
	}
}

// Watchers reports how many connections watch a room.
func (h *Hub) Watchers(code string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[code])
}

// Watch upgrades the request to a websocket and streams change pings for one
// room until the client goes away.
func (h *Hub) Watch(w http.ResponseWriter, r *http.Request, code string) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Warn().Err(err).Str("room", code).Msg("websocket accept failed")
		return
	}
	defer c.Close(websocket.StatusNormalClosure, "")

	sub := h.subscribe(code)
	defer h.unsubscribe(code, sub)

	// Watchers never send; CloseRead gives us a ctx that ends when they hang up.
	ctx := c.CloseRead(r.Context())
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-sub.ch:
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.Write(writeCtx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				return
			}
		}
	}
}
