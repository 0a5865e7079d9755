// internal/game/engine.go
//
// Solo game engine for the single-player mode.
// Responsibilities:
//   - Create new games with deterministic dimensions (6x5).
//   - Validate and apply guesses (length, alphabetic, allowed list).
//   - Score guesses through Evaluate and track playing → won/lost.
//
// Multiplayer rooms do not use Game: room clients submit their own scored
// state and the session façade trusts it (anti-cheat is out of scope). The
// evaluator itself is shared.

package game

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"wordrooms/internal/words"
)

const (
	defaultRows = 6
	defaultCols = 5
)

// Game holds the state of a single solo session.
type Game struct {
	ID       string    // unique game identifier
	Answer   string    // the solution word (always lowercase)
	Rows     int       // maximum number of guesses allowed
	Cols     int       // letters per word
	Guesses  []string  // guesses made so far (lowercased)
	Finished bool      // true once the game is over
	Won      bool      // true if finished with a win
}

// New constructs a new solo game.
// If withAnswer is empty, a random answer is chosen from the words package.
func New(withAnswer string) *Game {
	ans := withAnswer
	if ans == "" {
		ans = words.RandomAnswer()
	}
	return &Game{
		ID:      uuid.NewString(),
		Answer:  strings.ToLower(ans),
		Rows:    defaultRows,
		Cols:    defaultCols,
		Guesses: []string{},
	}
}

// ApplyGuess validates and scores a guess, mutating the game state.
// Returns the per-letter verdicts and the new status.
//
// Validation rules:
//   - Game must not be finished.
//   - Guess must be exactly g.Cols letters and alphabetic a–z.
//   - Guess must be present in the allowed list.
func (g *Game) ApplyGuess(guess string) ([]Verdict, Status, error) {
	if g.Finished {
		return nil, g.Status(), errors.New("game finished")
	}
	guess = strings.ToLower(strings.TrimSpace(guess))
	if len(guess) != g.Cols || !isAlpha(guess) {
		return nil, g.Status(), errors.New("invalid guess")
	}
	if !words.IsAllowed(guess) {
		return nil, g.Status(), errors.New("not in word list")
	}

	verdicts := Evaluate(guess, g.Answer)
	g.Guesses = append(g.Guesses, guess)

	if allCorrect(verdicts) {
		g.Finished, g.Won = true, true
	} else if len(g.Guesses) >= g.Rows {
		g.Finished = true
	}
	return verdicts, g.Status(), nil
}

// Status reports the coarse state of the game.
func (g *Game) Status() Status {
	if g.Finished {
		if g.Won {
			return StatusWon
		}
		return StatusLost
	}
	return StatusPlaying
}

// isAlpha checks that a string consists only of lowercase a–z.
func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
