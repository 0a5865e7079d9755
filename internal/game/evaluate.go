// internal/game/evaluate.go
//
// The guess evaluator: maps a submitted word and a target word to a
// per-letter verdict using the classic two-pass algorithm, plus the
// keyboard-wide letter-state aggregation.
//
// Notes:
//   - Pure functions, no state, deterministic.
//   - Inputs are validated to lowercase a–z elsewhere.

package game

// Evaluate scores guess against target with the two-pass algorithm.
//
// Pass 1:
//   - Mark exact matches as correct.
//   - Count remaining (non-correct) target letters by letter index.
//
// Pass 2:
//   - For each non-correct guess letter: if there is remaining count for that
//     letter, mark present and decrement; otherwise mark absent.
//
// A letter appearing more times in the guess than in the target is only
// credited up to the number of remaining occurrences in the target.
func Evaluate(guess, target string) []Verdict {
	n := len(guess)
	res := make([]Verdict, n)
	targetRunes := []rune(target)
	guessRunes := []rune(guess)

	// Letter frequency for the non-correct positions (a–z).
	var counts [26]int

	for i := 0; i < n; i++ {
		if guessRunes[i] == targetRunes[i] {
			res[i] = VerdictCorrect
			continue
		}
		if j := idx(targetRunes[i]); j >= 0 && j < 26 {
			counts[j]++
		}
	}

	for i := 0; i < n; i++ {
		if res[i] == VerdictCorrect {
			continue
		}
		j := idx(guessRunes[i])
		if j >= 0 && j < 26 && counts[j] > 0 {
			res[i] = VerdictPresent
			counts[j]--
		} else {
			res[i] = VerdictAbsent
		}
	}
	return res
}

// MergeLetterStates folds one scored guess into the keyboard-wide letter map,
// keeping the best verdict seen so far for each letter.
// Precedence: correct > present > absent > unseen.
func MergeLetterStates(states map[string]Verdict, guess string, verdicts []Verdict) {
	for i, r := range guess {
		if i >= len(verdicts) {
			break
		}
		letter := string(r)
		if rank(verdicts[i]) > rank(states[letter]) {
			states[letter] = verdicts[i]
		}
	}
}

// rank orders verdicts for aggregation; the zero value ("") ranks lowest.
func rank(v Verdict) int {
	switch v {
	case VerdictCorrect:
		return 3
	case VerdictPresent:
		return 2
	case VerdictAbsent:
		return 1
	default:
		return 0
	}
}

// idx maps a lowercase ASCII letter rune to 0..25.
func idx(r rune) int { return int(r - 'a') }

// allCorrect returns true if every verdict is VerdictCorrect.
func allCorrect(v []Verdict) bool {
	for _, x := range v {
		if x != VerdictCorrect {
			return false
		}
	}
	return true
}
