package game

import (
	"reflect"
	"testing"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name   string
		guess  string
		target string
		want   []Verdict
	}{
		{
			name:   "exact match",
			guess:  "crane",
			target: "crane",
			want:   []Verdict{VerdictCorrect, VerdictCorrect, VerdictCorrect, VerdictCorrect, VerdictCorrect},
		},
		{
			name:   "no overlap",
			guess:  "jumpy",
			target: "stone",
			want:   []Verdict{VerdictAbsent, VerdictAbsent, VerdictAbsent, VerdictAbsent, VerdictAbsent},
		},
		{
			name:   "duplicate guess letters both credited",
			guess:  "erase",
			target: "speed",
			want:   []Verdict{VerdictPresent, VerdictAbsent, VerdictAbsent, VerdictPresent, VerdictPresent},
		},
		{
			name:   "third duplicate not credited",
			guess:  "geese",
			target: "speed",
			want:   []Verdict{VerdictAbsent, VerdictPresent, VerdictCorrect, VerdictPresent, VerdictAbsent},
		},
		{
			name:   "mixed correct and present",
			guess:  "erase",
			target: "crane",
			want:   []Verdict{VerdictAbsent, VerdictCorrect, VerdictCorrect, VerdictAbsent, VerdictCorrect},
		},
		{
			name:   "correct position wins over present elsewhere",
			guess:  "babes",
			target: "abbey",
			want:   []Verdict{VerdictPresent, VerdictPresent, VerdictCorrect, VerdictCorrect, VerdictAbsent},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.guess, tt.target)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Evaluate(%q, %q) = %v, want %v", tt.guess, tt.target, got, tt.want)
			}
		})
	}
}

// Evaluate must never credit a letter more times than it occurs in the target.
func TestEvaluateDuplicateCap(t *testing.T) {
	pairs := [][2]string{
		{"eeeee", "speed"},
		{"erase", "speed"},
		{"llama", "label"},
		{"geese", "eagle"},
	}
	for _, pair := range pairs {
		guess, target := pair[0], pair[1]
		res := Evaluate(guess, target)

		credited := map[byte]int{}
		for i, v := range res {
			if v == VerdictCorrect || v == VerdictPresent {
				credited[guess[i]]++
			}
		}
		inTarget := map[byte]int{}
		for i := 0; i < len(target); i++ {
			inTarget[target[i]]++
		}
		for letter, n := range credited {
			if n > inTarget[letter] {
				t.Errorf("Evaluate(%q, %q) credited %q %d times, target has %d",
					guess, target, string(letter), n, inTarget[letter])
			}
		}
	}
}

func TestMergeLetterStates(t *testing.T) {
	states := map[string]Verdict{}

	MergeLetterStates(states, "erase", Evaluate("erase", "speed"))
	if states["e"] != VerdictPresent {
		t.Errorf("e = %q, want present", states["e"])
	}
	if states["r"] != VerdictAbsent {
		t.Errorf("r = %q, want absent", states["r"])
	}

	// A later correct upgrades a present.
	MergeLetterStates(states, "speed", Evaluate("speed", "speed"))
	if states["e"] != VerdictCorrect {
		t.Errorf("e after winning guess = %q, want correct", states["e"])
	}

	// A later absent never downgrades.
	states["s"] = VerdictCorrect
	MergeLetterStates(states, "sulky", Evaluate("sulky", "crane"))
	if states["s"] != VerdictCorrect {
		t.Errorf("s downgraded to %q", states["s"])
	}
}
