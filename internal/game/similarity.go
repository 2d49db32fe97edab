// internal/game/similarity.go
//
// Similarity evaluator: the current scoring design.
// A guess is embedded by the external embedding service and compared with
// the answer's vector by cosine similarity. The score is walked against a
// fixed ascending threshold ladder to produce one band per threshold.

package game

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/robalobadob/charades/internal/embedding"
)

// Thresholds is the ascending ladder a similarity score is banded against.
// The last entry is the winning threshold.
var Thresholds = []float64{0.15, 0.30, 0.45, 0.60, 0.75}

// PartialMargin is how far below a threshold a score may fall and still earn
// a partial band.
const PartialMargin = 0.075

// MaxGuessLength bounds free-text guesses.
const MaxGuessLength = 100

// WinThreshold is the score at or above which a guess wins the round.
func WinThreshold() float64 { return Thresholds[len(Thresholds)-1] }

// Embedder maps text to a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// SimilarityEvaluator scores guesses by cosine similarity to the answer.
type SimilarityEvaluator struct {
	answer   []float32
	embedder Embedder
}

// NewSimilarity builds an evaluator around a precomputed answer vector.
func NewSimilarity(answer []float32, e Embedder) *SimilarityEvaluator {
	return &SimilarityEvaluator{answer: answer, embedder: e}
}

// Normalize lowercases and checks the guess is 1–100 letters or spaces.
func (s *SimilarityEvaluator) Normalize(text string) (string, error) {
	guess := strings.ToLower(strings.TrimSpace(text))
	if guess == "" || len(guess) > MaxGuessLength {
		return "", ErrInvalidGuess
	}
	for _, r := range guess {
		if r != ' ' && (r < 'a' || r > 'z') {
			return "", ErrInvalidGuess
		}
	}
	return guess, nil
}

// Evaluate embeds the guess and bands its similarity to the answer.
func (s *SimilarityEvaluator) Evaluate(ctx context.Context, guess string) (Evaluation, error) {
	if s.embedder == nil {
		return Evaluation{}, errors.New("no embedding engine configured")
	}
	vec, err := s.embedder.Embed(ctx, guess)
	if err != nil {
		return Evaluation{}, fmt.Errorf("embed guess: %w", err)
	}
	score, err := embedding.CosineSimilarity(s.answer, vec)
	if err != nil {
		return Evaluation{}, err
	}
	return ScoreSimilarity(score), nil
}

// ScoreSimilarity converts a raw similarity score into bands, feedback, and
// a verdict. Comparisons are inclusive at each threshold (score ≥ t is full,
// score ≥ t − PartialMargin is partial).
func ScoreSimilarity(score float64) Evaluation {
	bands := make([]Band, len(Thresholds))
	for i, t := range Thresholds {
		switch {
		case score >= t:
			bands[i] = BandFull
		case score >= t-PartialMargin:
			bands[i] = BandPartial
		default:
			bands[i] = BandEmpty
		}
	}
	return Evaluation{
		Score:    score,
		Bands:    bands,
		Feedback: RenderBands(bands) + " " + PercentString(score),
		Win:      score >= WinThreshold(),
	}
}

// RenderBands turns bands into their glyph string.
func RenderBands(bands []Band) string {
	var b strings.Builder
	for _, band := range bands {
		switch band {
		case BandFull:
			b.WriteString(glyphFull)
		case BandPartial:
			b.WriteString(glyphPartial)
		default:
			b.WriteString(glyphEmpty)
		}
	}
	return b.String()
}

// PercentString renders a 0..1 score as a rounded percentage, e.g. "42%".
func PercentString(score float64) string {
	return fmt.Sprintf("%.0f%%", score*100)
}
