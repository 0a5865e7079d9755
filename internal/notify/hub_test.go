package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
)

func TestSubscribeAndBroadcast(t *testing.T) {
	h := NewHub()
	sub := h.subscribe("AAAAAA")
	defer h.unsubscribe("AAAAAA", sub)

	if h.Watchers("AAAAAA") != 1 {
		t.Fatalf("Watchers = %d, want 1", h.Watchers("AAAAAA"))
	}

	h.RoomChanged("AAAAAA")
	select {
	case msg := <-sub.ch:
		var ev Event
		if err := json.Unmarshal(msg, &ev); err != nil {
			t.Fatal(err)
		}
		if ev.Type != "changed" || ev.Room != "AAAAAA" {
			t.Errorf("event = %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("no ping delivered")
	}

	// Pings are scoped to the room.
	h.RoomChanged("BBBBBB")
	select {
	case msg := <-sub.ch:
		t.Errorf("received a ping for another room: %s", msg)
	default:
	}
}

func TestBroadcastDropsWhenFull(t *testing.T) {
	h := NewHub()
	sub := h.subscribe("AAAAAA")
	defer h.unsubscribe("AAAAAA", sub)

	// Fill the buffer and then some; the extras must be dropped, not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			h.RoomChanged("AAAAAA")
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RoomChanged blocked on a slow watcher")
	}
	if got := len(sub.ch); got != cap(sub.ch) {
		t.Errorf("buffered pings = %d, want full buffer %d", got, cap(sub.ch))
	}
}

func TestUnsubscribeCleansUp(t *testing.T) {
	h := NewHub()
	a := h.subscribe("AAAAAA")
	b := h.subscribe("AAAAAA")

	h.unsubscribe("AAAAAA", a)
	if h.Watchers("AAAAAA") != 1 {
		t.Errorf("Watchers = %d, want 1", h.Watchers("AAAAAA"))
	}
	h.unsubscribe("AAAAAA", b)
	if h.Watchers("AAAAAA") != 0 {
		t.Errorf("Watchers = %d, want 0", h.Watchers("AAAAAA"))
	}
	if len(h.rooms) != 0 {
		t.Error("empty room entry should be removed from the hub")
	}
}

func TestWatchOverWebsocket(t *testing.T) {
	h := NewHub()
	r := chi.NewRouter()
	r.Get("/rooms/{code}/watch", func(w http.ResponseWriter, req *http.Request) {
		h.Watch(w, req, chi.URLParam(req, "code"))
	})
	ts := httptest.NewServer(r)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, _, err := websocket.Dial(ctx, "ws"+ts.URL[4:]+"/rooms/AAAAAA/watch", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close(websocket.StatusNormalClosure, "")

	// Wait for the subscription to land before broadcasting.
	deadline := time.Now().Add(2 * time.Second)
	for h.Watchers("AAAAAA") == 0 {
		if time.Now().After(deadline) {
			t.Fatal("watcher never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	h.RoomChanged("AAAAAA")

	_, msg, err := c.Read(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var ev Event
	if err := json.Unmarshal(msg, &ev); err != nil {
		t.Fatal(err)
	}
	if ev.Type != "changed" || ev.Room != "AAAAAA" {
		t.Errorf("event = %+v", ev)
	}
}
