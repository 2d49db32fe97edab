// internal/game/exact.go
//
// Exact-match evaluator: the legacy five-letter design.
// Responsibilities:
//   - Validate guesses (five letters a–z, present in the allowed vocabulary).
//   - Mark each letter hit / present / miss against the answer.
//   - Accumulate per-letter hints across guesses for live typing feedback.
//
// Unlike classic Wordle, "present" does not consume letter counts: a letter
// is present whenever it appears anywhere in the answer.

package game

import (
	"context"
	"strings"
)

// WordLength is the fixed length of legacy guesses.
const WordLength = 5

// ExactEvaluator scores guesses letter by letter against a fixed answer.
type ExactEvaluator struct {
	answer  string
	allowed func(string) bool
}

// NewExact builds a legacy evaluator. allowed may be nil to accept any
// five-letter word.
func NewExact(answer string, allowed func(string) bool) *ExactEvaluator {
	return &ExactEvaluator{answer: strings.ToLower(answer), allowed: allowed}
}

// Normalize lowercases and checks length, alphabet, and vocabulary.
func (e *ExactEvaluator) Normalize(text string) (string, error) {
	guess := strings.ToLower(strings.TrimSpace(text))
	if len(guess) != WordLength || !isAlpha(guess) {
		return "", ErrInvalidGuess
	}
	if e.allowed != nil && !e.allowed(guess) {
		return "", ErrInvalidGuess
	}
	return guess, nil
}

// Evaluate marks each letter; never fails.
func (e *ExactEvaluator) Evaluate(_ context.Context, guess string) (Evaluation, error) {
	marks := ScoreLetters(e.answer, guess)
	hits := 0
	for _, m := range marks {
		if m == MarkHit {
			hits++
		}
	}
	score := 0.0
	if len(marks) > 0 {
		score = float64(hits) / float64(len(marks))
	}
	return Evaluation{
		Score:    score,
		Marks:    marks,
		Feedback: RenderMarks(marks),
		Win:      guess == e.answer,
	}, nil
}

// ScoreLetters marks each guess letter against the answer.
func ScoreLetters(answer, guess string) []Mark {
	res := make([]Mark, len(guess))
	for i := 0; i < len(guess); i++ {
		switch {
		case i < len(answer) && guess[i] == answer[i]:
			res[i] = MarkHit
		case strings.IndexByte(answer, guess[i]) >= 0:
			res[i] = MarkPresent
		default:
			res[i] = MarkMiss
		}
	}
	return res
}

// RenderMarks turns letter marks into their glyph string.
func RenderMarks(marks []Mark) string {
	var b strings.Builder
	for _, m := range marks {
		switch m {
		case MarkHit:
			b.WriteString(glyphFull)
		case MarkPresent:
			b.WriteString(glyphPartial)
		default:
			b.WriteString(glyphAbsent)
		}
	}
	return b.String()
}

// LetterState is a set of facts learned about one letter.
type LetterState uint16

// NotPresent means the letter is not in the answer at all.
const NotPresent LetterState = 1

// WrongSpot is the state "letter is in the answer but not at position i".
func WrongSpot(i int) LetterState { return 1 << (1 + i) }

// CorrectSpot is the state "letter is at position i".
func CorrectSpot(i int) LetterState { return 1 << (1 + WordLength + i) }

// Hints is the accumulated letter knowledge, indexed a..z.
type Hints [26]LetterState

// BuildHints folds every guess so far into a hint table.
func BuildHints(answer string, guesses []Guess) Hints {
	var h Hints
	answer = strings.ToLower(answer)
	for _, g := range guesses {
		text := strings.ToLower(g.Text)
		for j := 0; j < len(text) && j < WordLength; j++ {
			c := text[j]
			if c < 'a' || c > 'z' {
				continue
			}
			state := NotPresent
			if strings.IndexByte(answer, c) >= 0 {
				state = WrongSpot(j)
			}
			if j < len(answer) && answer[j] == c {
				state = CorrectSpot(j)
			}
			h[idx(c)] |= state
		}
	}
	return h
}

// Has reports whether letter c carries state s.
func (h Hints) Has(c byte, s LetterState) bool {
	if c < 'a' || c > 'z' {
		return false
	}
	return h[idx(c)]&s != 0
}

// Feedback renders live hints for a partially typed guess.
func (h Hints) Feedback(typed string) string {
	typed = strings.ToLower(typed)
	var b strings.Builder
	for i := 0; i < len(typed) && i < WordLength; i++ {
		c := typed[i]
		switch {
		case h.Has(c, CorrectSpot(i)):
			b.WriteString(glyphFull)
		case h.Has(c, WrongSpot(i)):
			b.WriteString(glyphPartial)
		case h.Has(c, NotPresent):
			b.WriteString(glyphAbsent)
		default:
			b.WriteString(glyphUnknown)
		}
	}
	return b.String()
}

// idx maps a lowercase ASCII letter to 0..25.
func idx(c byte) int { return int(c - 'a') }

// isAlpha checks that a string consists only of lowercase a–z.
func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
