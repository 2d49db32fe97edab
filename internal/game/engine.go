// internal/game/engine.go
//
// Game engine for a single player's round.
// Responsibilities:
//   - Validate input through the active Evaluator.
//   - Reject repeated guesses without consuming an attempt.
//   - Apply evaluations and drive playing → won/lost transitions.
//
// The engine never touches persistence; callers load a GameState, call
// Submit, and save the result (see internal/play).
package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidGuess = errors.New("invalid guess")
	ErrRepeatGuess  = errors.New("guess already submitted")
	ErrGameFinished = errors.New("game finished")
	ErrEvaluation   = errors.New("could not compare guess to answer")
)

// Evaluator scores guesses for one round. Implementations hold whatever
// representation of the answer they need (embedding vector, letters).
type Evaluator interface {
	// Normalize enforces input constraints and returns the canonical guess.
	Normalize(text string) (string, error)
	// Evaluate scores a normalized guess.
	Evaluate(ctx context.Context, guess string) (Evaluation, error)
}

// Game binds a round, its evaluator, and the player's state.
type Game struct {
	Round      Round
	State      *GameState
	MaxGuesses int
	eval       Evaluator
}

// New constructs a game around an existing (possibly empty) state.
func New(r Round, st *GameState, maxGuesses int, eval Evaluator) *Game {
	if maxGuesses <= 0 {
		maxGuesses = DefaultMaxGuesses
	}
	if st == nil {
		st = &GameState{Guesses: []Guess{}}
	}
	return &Game{Round: r, State: st, MaxGuesses: maxGuesses, eval: eval}
}

// Submit validates, scores, and records a guess.
//
// On any error the state is left untouched and no attempt is consumed.
// State transitions:
//   - Evaluation.Win → Finished = true, Won = true.
//   - Else if the number of guesses reaches MaxGuesses → Finished = true (loss).
func (g *Game) Submit(ctx context.Context, text string) (Guess, Evaluation, error) {
	if g.State.Finished {
		return Guess{}, Evaluation{}, ErrGameFinished
	}
	guess, err := g.eval.Normalize(text)
	if err != nil {
		return Guess{}, Evaluation{}, err
	}
	if g.HasGuessed(guess) {
		return Guess{}, Evaluation{}, ErrRepeatGuess
	}

	ev, err := g.eval.Evaluate(ctx, guess)
	if err != nil {
		return Guess{}, Evaluation{}, fmt.Errorf("%w: %w", ErrEvaluation, err)
	}

	entry := Guess{Text: guess, Feedback: ev.Feedback, Score: ev.Score}
	g.State.Guesses = append(g.State.Guesses, entry)

	if ev.Win {
		g.State.Finished, g.State.Won = true, true
	} else if len(g.State.Guesses) >= g.MaxGuesses {
		g.State.Finished = true
	}
	return entry, ev, nil
}

// HasGuessed reports whether guess (already normalized) was submitted before.
func (g *Game) HasGuessed(guess string) bool {
	for _, prev := range g.State.Guesses {
		if strings.EqualFold(prev.Text, guess) {
			return true
		}
	}
	return false
}

// Remaining is the number of attempts left.
func (g *Game) Remaining() int {
	if g.State.Finished {
		return 0
	}
	return g.MaxGuesses - len(g.State.Guesses)
}

// Status reports a coarse string representation of the current game state.
func (g *Game) Status() string {
	return StatusOf(g.State)
}

// StatusOf is Status for a bare state.
func StatusOf(st *GameState) string {
	if st != nil && st.Finished {
		if st.Won {
			return "won"
		}
		return "lost"
	}
	return "playing"
}
