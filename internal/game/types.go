// internal/game/types.go
//
// Core type definitions for the charades game engine.
// Defines:
//   - Round: one day's immutable content record (answer + optional embedding).
//   - Guess: one submitted attempt with its rendered feedback.
//   - GameState: per-round player state (guesses, finished, won).
//   - Mark / Band: per-letter and per-threshold feedback levels.

package game

import "time"

// DefaultMaxGuesses is the number of attempts a player gets per round.
const DefaultMaxGuesses = 5

// Round is a single day's game instance. Rounds are created by the content
// pipeline and never modified by the game.
type Round struct {
	ID        string    // Object id of the round document (hex); used for image keys.
	Index     int       // Ordinal of the round; 0 is the hiatus placeholder.
	Answer    string    // Hidden prompt (lowercase).
	Date      time.Time // Start of the round's day.
	DateID    string    // "YYYY-MM-DD" lookup key.
	Embedding []float32 // Precomputed answer embedding; may be empty.
}

// Guess is one player-submitted attempt at the round's answer.
type Guess struct {
	Text     string  `json:"guessString"`
	Feedback string  `json:"guessEmojis"`
	Score    float64 `json:"score,omitempty"`
}

// GameState holds a player's progress on one round.
// Once Finished is true the state is frozen.
type GameState struct {
	Guesses  []Guess `json:"guesses"`
	Finished bool    `json:"gameFinished"`
	Won      bool    `json:"gameWon"`
}

// Mark represents the evaluation result for a single letter in a legacy guess.
type Mark string

const (
	MarkHit     Mark = "hit"     // same letter, same position
	MarkPresent Mark = "present" // letter appears elsewhere in the answer
	MarkMiss    Mark = "miss"    // letter not in the answer
)

// Band is the level earned against one similarity threshold.
type Band string

const (
	BandFull    Band = "full"
	BandPartial Band = "partial"
	BandEmpty   Band = "empty"
)

// Feedback glyphs shared by both variants.
const (
	glyphFull    = "🟩"
	glyphPartial = "🟨"
	glyphEmpty   = "⬜️"
	glyphAbsent  = "🟥"
	glyphUnknown = "⬜"
)

// Evaluation is the outcome of scoring one guess.
type Evaluation struct {
	Score    float64 // cosine similarity, or fraction of hits for the legacy variant
	Bands    []Band  // similarity variant only
	Marks    []Mark  // legacy variant only
	Feedback string  // rendered glyph string stored on the Guess
	Win      bool
}
