package room

import (
	"reflect"
	"testing"
	"time"
)

func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"abc123", "ABC123"},
		{" ABC123 ", "ABC123"},
		{"AbC123", "ABC123"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeCode(tt.in); got != tt.want {
			t.Errorf("NormalizeCode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNew(t *testing.T) {
	now := time.Now()
	r := New("abc123", "host-1", "  Alice  ", "crane", now)

	if r.Code != "ABC123" {
		t.Errorf("Code = %q, want normalized ABC123", r.Code)
	}
	if r.TargetWord != "crane" {
		t.Errorf("TargetWord = %q", r.TargetWord)
	}
	if len(r.Players) != 1 {
		t.Fatalf("got %d players, want 1 (the host)", len(r.Players))
	}
	host := r.Players[0]
	if host.ID != "host-1" || host.Nickname != "Alice" {
		t.Errorf("host = %+v", host)
	}
	if host.Status != "playing" {
		t.Errorf("host status = %q, want playing", host.Status)
	}
	if len(r.ReadyPlayers) != 0 {
		t.Error("new room should have an empty ready set")
	}
	if r.Game.Status != "playing" || len(r.Game.Guesses) != 0 {
		t.Errorf("fresh game state = %+v", r.Game)
	}
}

func TestPlayerLookup(t *testing.T) {
	r := New("ABC123", "host-1", "Alice", "crane", time.Now())
	r.Players = append(r.Players, Player{ID: "p2", Nickname: "Bob"})

	if p := r.Player("p2"); p == nil || p.Nickname != "Bob" {
		t.Errorf("Player(p2) = %+v", p)
	}
	if p := r.Player("nope"); p != nil {
		t.Errorf("Player(nope) = %+v, want nil", p)
	}

	// The returned pointer aliases the room's slice.
	r.Player("p2").Guesses = 3
	if r.Players[1].Guesses != 3 {
		t.Error("Player() should return a pointer into Players")
	}
}

func TestReadyList(t *testing.T) {
	r := New("ABC123", "host-1", "Alice", "crane", time.Now())
	r.ReadyPlayers = map[string]struct{}{"zz": {}, "aa": {}, "mm": {}}

	got := r.ReadyList()
	want := []string{"aa", "mm", "zz"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ReadyList() = %v, want sorted %v", got, want)
	}
}

func TestReadySetFromList(t *testing.T) {
	set := ReadySetFromList([]string{"a", "b", "a", "a"})
	if len(set) != 2 {
		t.Errorf("got %d entries, want 2 (duplicates dropped)", len(set))
	}
	if _, ok := set["a"]; !ok {
		t.Error("missing a")
	}
}

func TestAllReady(t *testing.T) {
	r := New("ABC123", "host-1", "Alice", "crane", time.Now())
	r.Players = append(r.Players, Player{ID: "p2"})

	if r.AllReady() {
		t.Error("nobody ready yet")
	}
	r.ReadyPlayers["host-1"] = struct{}{}
	if r.AllReady() {
		t.Error("only one of two ready")
	}
	r.ReadyPlayers["p2"] = struct{}{}
	if !r.AllReady() {
		t.Error("both ready, want true")
	}

	// A stale id in the ready set does not satisfy a player not in the room,
	// and an empty room is never all-ready.
	r.Players = nil
	if r.AllReady() {
		t.Error("empty room must not be all-ready")
	}
}

func TestGenerateCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := GenerateCode()
		if err != nil {
			t.Fatal(err)
		}
		if len(code) != codeLength {
			t.Fatalf("len(%q) = %d, want %d", code, len(code), codeLength)
		}
		for _, c := range code {
			if !((c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')) {
				t.Fatalf("code %q contains %q outside the alphabet", code, c)
			}
		}
		if code != NormalizeCode(code) {
			t.Errorf("code %q is not already normalized", code)
		}
		seen[code] = true
	}
	if len(seen) < 2 {
		t.Error("50 generated codes were all identical")
	}
}
