package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"wordrooms/internal/game"
)

func TestMemorySnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "rooms.json")

	st := NewMemoryStore(path, 0)
	seedRoom(t, st, "AAAAAA", "host-1")
	addPlayer(t, st, "AAAAAA", "p2", "Bob")

	n := 4
	won := game.Status(game.StatusWon)
	if err := st.UpdatePlayer(ctx, "AAAAAA", "p2", PlayerUpdate{Guesses: &n, Status: &won, FinishRound: true}); err != nil {
		t.Fatal(err)
	}
	if err := st.SetReady(ctx, "AAAAAA", "p2", true); err != nil {
		t.Fatal(err)
	}
	if err := st.Close(); err != nil {
		t.Fatal(err)
	}

	reloaded := NewMemoryStore(path, 0)
	t.Cleanup(func() { _ = reloaded.Close() })

	r, err := reloaded.GetRoom(ctx, "AAAAAA")
	if err != nil {
		t.Fatal(err)
	}
	if r.HostID != "host-1" || r.TargetWord != "crane" {
		t.Errorf("room = %+v", r)
	}
	if len(r.Players) != 2 {
		t.Fatalf("players = %+v", r.Players)
	}
	p2 := r.Player("p2")
	if p2 == nil || p2.Guesses != 4 || p2.WordsGuessed != 1 || p2.Status != game.StatusWon {
		t.Errorf("p2 = %+v", p2)
	}
	if _, ok := r.ReadyPlayers["p2"]; !ok {
		t.Error("readiness lost across the snapshot")
	}
	if len(r.ReadyPlayers) != 1 {
		t.Errorf("ready set = %v", r.ReadyPlayers)
	}
}

// A hand-edited or legacy snapshot may carry duplicate ready ids; loading
// collapses them into the set form.
func TestMemorySnapshotDedupesReady(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rooms.json")
	blob := `{
	  "AAAAAA": {
	    "code": "aaaaaa",
	    "hostId": "host-1",
	    "targetWord": "crane",
	    "gameState": {"guesses": [], "gameStatus": "lost", "letterStates": {}},
	    "players": [
	      {"id": "host-1", "nickname": "Alice", "guesses": 0, "wordsGuessed": 2, "status": "lost", "lastActive": "2026-08-28T10:00:00Z"}
	    ],
	    "readyPlayers": ["host-1", "host-1"],
	    "createdAt": "2026-08-28T09:00:00Z"
	  }
	}`
	if err := os.WriteFile(path, []byte(blob), 0o644); err != nil {
		t.Fatal(err)
	}

	st := NewMemoryStore(path, 0)
	t.Cleanup(func() { _ = st.Close() })

	r, err := st.GetRoom(context.Background(), "AAAAAA")
	if err != nil {
		t.Fatal(err)
	}
	if len(r.ReadyPlayers) != 1 {
		t.Errorf("ready set = %v, want the duplicate collapsed", r.ReadyPlayers)
	}
	if r.Game.Status != game.StatusLost {
		t.Errorf("game status = %q", r.Game.Status)
	}
	if got := r.Player("host-1").WordsGuessed; got != 2 {
		t.Errorf("wordsGuessed = %d, want 2", got)
	}
}

func TestMemoryReadsAreCopies(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore("", 0)
	t.Cleanup(func() { _ = st.Close() })
	seedRoom(t, st, "AAAAAA", "host-1")

	r1, _ := st.GetRoom(ctx, "AAAAAA")
	r1.TargetWord = "mutated"
	r1.Players[0].Nickname = "Mallory"
	r1.ReadyPlayers["host-1"] = struct{}{}
	r1.Game.LetterStates["x"] = game.VerdictAbsent

	r2, _ := st.GetRoom(ctx, "AAAAAA")
	if r2.TargetWord != "crane" || r2.Players[0].Nickname != "Alice" {
		t.Errorf("store aliased a returned room: %+v", r2)
	}
	if len(r2.ReadyPlayers) != 0 || len(r2.Game.LetterStates) != 0 {
		t.Errorf("store aliased nested state: ready=%v letters=%v", r2.ReadyPlayers, r2.Game.LetterStates)
	}
}

func TestMemorySnapshotLoopWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rooms.json")
	st := NewMemoryStore(path, 10*time.Millisecond)
	seedRoom(t, st, "AAAAAA", "host-1")

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, err := os.Stat(path); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("snapshot file never appeared")
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err := st.Close(); err != nil {
		t.Fatal(err)
	}

	reloaded := NewMemoryStore(path, 0)
	t.Cleanup(func() { _ = reloaded.Close() })
	if _, err := reloaded.GetRoom(context.Background(), "AAAAAA"); err != nil {
		t.Errorf("reload after snapshot loop: %v", err)
	}
}
