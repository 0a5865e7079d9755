// internal/game/types.go
//
// Core type definitions shared by the solo engine and the room engine.
// Defines:
//   - Verdict: per-letter result of a guess (correct/present/absent).
//   - Status:  coarse game status (playing/won/lost).
//   - ScoredGuess / State: the scored-guess history a client sees.

package game

// Verdict is the evaluation result for a single letter in a guess.
// Possible values:
//   - "correct": letter is right and in the right position.
//   - "present": letter exists in the target but in a different position.
//   - "absent":  letter does not exist in the target at all.
type Verdict string

const (
	VerdictCorrect Verdict = "correct"
	VerdictPresent         = "present"
	VerdictAbsent          = "absent"
)

// Status is the lifecycle of one round. It starts at "playing" and is
// monotonic within a round: only a full round reset returns it to "playing".
type Status string

const (
	StatusPlaying Status = "playing"
	StatusWon            = "won"
	StatusLost           = "lost"
)

// Terminal reports whether s ends a round.
func (s Status) Terminal() bool { return s == StatusWon || s == StatusLost }

// ScoredGuess is one submitted word with its per-letter verdicts.
type ScoredGuess struct {
	Word   string    `json:"word"`
	States []Verdict `json:"states"`
}

// State is the shared per-round game document stored on a room.
type State struct {
	Guesses      []ScoredGuess      `json:"guesses"`
	Status       Status             `json:"gameStatus"`
	LetterStates map[string]Verdict `json:"letterStates"`
}

// NewState returns a fresh round with no guesses.
func NewState() State {
	return State{
		Guesses:      []ScoredGuess{},
		Status:       StatusPlaying,
		LetterStates: map[string]Verdict{},
	}
}
