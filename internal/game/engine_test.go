package game

import (
	"context"
	"testing"

	"wordrooms/internal/words"
)

func mustInitWords(t *testing.T) {
	t.Helper()
	if err := words.Init(); err != nil {
		t.Fatalf("words.Init() error: %v", err)
	}
}

func TestNew(t *testing.T) {
	mustInitWords(t)

	g := New("CRANE")
	if g.ID == "" {
		t.Error("game ID should not be empty")
	}
	if g.Answer != "crane" {
		t.Errorf("Answer = %q, want %q (lowercased)", g.Answer, "crane")
	}
	if g.Rows != 6 || g.Cols != 5 {
		t.Errorf("dimensions = %dx%d, want 6x5", g.Rows, g.Cols)
	}

	g = New("")
	if !words.IsAnswer(g.Answer) {
		t.Errorf("random answer %q not in answers list", g.Answer)
	}
}

func TestApplyGuess_Win(t *testing.T) {
	mustInitWords(t)
	g := New("crane")

	verdicts, status, err := g.ApplyGuess("erase")
	if err != nil {
		t.Fatal(err)
	}
	if status != StatusPlaying {
		t.Errorf("status = %q, want playing", status)
	}
	if len(verdicts) != 5 {
		t.Fatalf("got %d verdicts, want 5", len(verdicts))
	}

	// Input casing must not matter.
	verdicts, status, err = g.ApplyGuess("CRANE")
	if err != nil {
		t.Fatal(err)
	}
	if status != StatusWon {
		t.Errorf("status = %q, want won", status)
	}
	for i, v := range verdicts {
		if v != VerdictCorrect {
			t.Errorf("verdict[%d] = %q, want correct", i, v)
		}
	}
	if !g.Finished || !g.Won {
		t.Error("winning guess should finish the game as won")
	}

	if _, _, err := g.ApplyGuess("speed"); err == nil {
		t.Error("guessing on a finished game should fail")
	}
}

func TestApplyGuess_Lost(t *testing.T) {
	mustInitWords(t)
	g := New("crane")

	wrong := []string{"speed", "slate", "house", "mouse", "plant", "grape"}
	var status Status
	for _, w := range wrong {
		var err error
		if _, status, err = g.ApplyGuess(w); err != nil {
			t.Fatalf("ApplyGuess(%q) error: %v", w, err)
		}
	}
	if status != StatusLost {
		t.Errorf("status after 6 misses = %q, want lost", status)
	}
	if !g.Finished || g.Won {
		t.Error("game should be finished and not won")
	}
}

func TestApplyGuess_Rejections(t *testing.T) {
	mustInitWords(t)
	g := New("crane")

	for _, bad := range []string{"", "cran", "cranes", "cr4ne", "zzzzz"} {
		if _, _, err := g.ApplyGuess(bad); err == nil {
			t.Errorf("ApplyGuess(%q) should fail", bad)
		}
	}
	if len(g.Guesses) != 0 {
		t.Errorf("rejected guesses must not be recorded, got %v", g.Guesses)
	}
}

func TestMemorySessions(t *testing.T) {
	mustInitWords(t)
	ctx := context.Background()
	s := NewMemorySessions()

	g := New("crane")
	if err := s.Save(ctx, g); err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(ctx, g.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Answer != "crane" {
		t.Errorf("Answer = %q, want crane", got.Answer)
	}

	if _, err := s.Get(ctx, "missing"); err == nil {
		t.Error("Get() should fail for an unknown id")
	}
}
