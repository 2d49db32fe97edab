// internal/rounds/source.go
//
// Content store for daily rounds. The game only reads rounds; the ops
// commands also backfill embeddings and delete future rounds.
//
// A round is keyed two ways: by its date id (YYYY-MM-DD of the round day,
// see daily.DateKey) and by its ordinal index.

package rounds

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/charades/internal/daily"
	"github.com/robalobadob/charades/internal/game"
)

// ErrNotFound is returned when no round matches.
var ErrNotFound = errors.New("rounds: not found")

// Source reads and maintains rounds.
type Source interface {
	ByDate(ctx context.Context, dateID string) (game.Round, error)
	ByIndex(ctx context.Context, index int) (game.Round, error)
	// Latest returns the round with the greatest date.
	Latest(ctx context.Context) (game.Round, error)
	// Range returns the rounds with from <= index <= to, ordered by index.
	Range(ctx context.Context, from, to int) ([]game.Round, error)
	SetEmbedding(ctx context.Context, index int, vec []float32) error
	Delete(ctx context.Context, index int) error
	Close(ctx context.Context) error
}

// Hiatus ids the fallback round served when no round exists for today.
const (
	HiatusID     = "64d867ff4f182b001c69ba6d"
	HiatusAnswer = "llama"
)

// Hiatus returns the fallback round for the given date id.
func Hiatus(dateID string) game.Round {
	d, _ := daily.ParseKey(dateID)
	return game.Round{ID: HiatusID, Index: 0, Answer: HiatusAnswer, Date: d, DateID: dateID}
}

// IsHiatus reports whether r is the fallback round.
func IsHiatus(r game.Round) bool { return r.Index == 0 && r.ID == HiatusID }

// Today resolves the current round. A missing round yields the hiatus
// round; other lookup errors are returned.
func Today(ctx context.Context, src Source, now time.Time, rollover time.Duration) (game.Round, error) {
	key := daily.DateKey(now, rollover)
	r, err := src.ByDate(ctx, key)
	if errors.Is(err, ErrNotFound) {
		log.Warn().Str("date", key).Msg("no round for today, serving hiatus round")
		return Hiatus(key), nil
	}
	if err != nil {
		return game.Round{}, fmt.Errorf("load round %s: %w", key, err)
	}
	return r, nil
}
