// internal/store/store.go
//
// Session persistence for per-round game state.
// State is scoped by player (an anonymous cookie id or an account id) and
// keyed by round index. Backends: in-memory (dev/tests) and SQL.
//
// Records are written after every guess and never expire. A record that
// cannot be decoded is reported as absent so a corrupt row never blocks
// play; the decode failure is logged at warn.

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/charades/internal/game"
)

// ErrNotFound is returned by Load when no usable record exists.
var ErrNotFound = errors.New("store: not found")

// Store persists GameState per (player, round index).
type Store interface {
	// Load returns the state for a round, or ErrNotFound.
	Load(ctx context.Context, player string, round int) (game.GameState, error)

	// Save creates or replaces the state for a round.
	Save(ctx context.Context, player string, round int, st game.GameState) error

	// History returns every decodable record for rounds strictly below
	// before. Used for streak computation.
	History(ctx context.Context, player string, before int) (map[int]game.GameState, error)

	// Claim copies records from one player scope into another where the
	// target has no record for that round, then drops the source scope.
	Claim(ctx context.Context, from, to string) error
}

// Key is the legacy per-round storage key.
func Key(round int) string { return fmt.Sprintf("charades-%d", round) }

func encode(st game.GameState) ([]byte, error) {
	if st.Guesses == nil {
		st.Guesses = []game.Guess{}
	}
	return json.Marshal(st)
}

// decode parses a stored record. ok is false for malformed data.
func decode(player string, round int, raw []byte) (game.GameState, bool) {
	var st game.GameState
	if err := json.Unmarshal(raw, &st); err != nil {
		log.Warn().Err(err).Str("player", player).Int("round", round).Msg("discarding malformed game state")
		return game.GameState{}, false
	}
	return st, true
}
