// internal/play/service.go
//
// Play service: binds the day's round, the player's saved state, the
// active evaluator and the collaborators (embedding, analytics, results).
//
// Flow for a guess:
//   1. Mark (player, round) in flight; a concurrent guess gets ErrProcessing.
//   2. Resolve today's round and load saved state (absent → empty).
//   3. game.Submit validates, scores and transitions the state.
//   4. Save, recompute streaks from history, emit analytics, record the
//      result when the round finishes.

package play

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/charades/internal/analytics"
	"github.com/robalobadob/charades/internal/daily"
	"github.com/robalobadob/charades/internal/game"
	"github.com/robalobadob/charades/internal/rounds"
	"github.com/robalobadob/charades/internal/store"
	"github.com/robalobadob/charades/internal/words"
)

var (
	ErrProcessing  = errors.New("a guess is already being processed")
	ErrRoundClosed = errors.New("round is not open for play")
	ErrNotFinished = errors.New("round not finished")
	ErrUnsupported = errors.New("not supported by the active variant")
)

// Variant selects the scoring design.
type Variant string

const (
	VariantSimilarity Variant = "similarity"
	VariantExact      Variant = "exact"
)

// ParseVariant validates a VARIANT value.
func ParseVariant(s string) (Variant, error) {
	switch Variant(s) {
	case VariantSimilarity, VariantExact:
		return Variant(s), nil
	}
	return "", fmt.Errorf("unknown variant %q (want similarity or exact)", s)
}

// Config holds gameplay settings.
type Config struct {
	Variant      Variant
	MaxGuesses   int
	Rollover     time.Duration // taken as given; zero means midnight UTC
	ImageBaseURL string
	SiteURL      string
}

// ResultRecorder stores finished rounds; *daily.Store implements it.
type ResultRecorder interface {
	Insert(ctx context.Context, r daily.Result) error
	Claim(ctx context.Context, from, to string) error
}

// Deps are the collaborators of a Service.
type Deps struct {
	Rounds    rounds.Source
	Store     store.Store
	Embedder  game.Embedder // similarity variant
	Words     *words.Lists  // exact variant vocabulary; nil accepts any word
	Analytics analytics.Sink
	Results   ResultRecorder // optional
	Now       func() time.Time
}

// Service runs rounds for many players.
type Service struct {
	cfg Config
	Deps

	mu       sync.Mutex
	inflight map[string]struct{}

	cacheMu sync.Mutex
	answers map[string][]float32 // round ID -> answer vector
}

// New validates cfg and deps.
func New(cfg Config, d Deps) (*Service, error) {
	if d.Rounds == nil || d.Store == nil {
		return nil, errors.New("play: rounds source and store are required")
	}
	if cfg.Variant == "" {
		cfg.Variant = VariantSimilarity
	}
	if cfg.Variant == VariantSimilarity && d.Embedder == nil {
		return nil, errors.New("play: similarity variant requires an embedding engine")
	}
	if cfg.MaxGuesses <= 0 {
		cfg.MaxGuesses = game.DefaultMaxGuesses
	}
	if d.Analytics == nil {
		d.Analytics = analytics.LogSink{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Service{
		cfg:      cfg,
		Deps:     d,
		inflight: make(map[string]struct{}),
		answers:  make(map[string][]float32),
	}, nil
}

// Config returns the effective settings.
func (s *Service) Config() Config { return s.cfg }

// Today resolves the current round (hiatus round when none exists).
func (s *Service) Today(ctx context.Context) (game.Round, error) {
	return rounds.Today(ctx, s.Rounds, s.Now(), s.cfg.Rollover)
}

// Round returns a published round by index. Rounds after today and
// unknown indices are ErrNotFound.
func (s *Service) Round(ctx context.Context, index int) (game.Round, error) {
	today, err := s.Today(ctx)
	if err != nil {
		return game.Round{}, err
	}
	if index == today.Index {
		return today, nil
	}
	if index <= 0 || index > today.Index {
		return game.Round{}, rounds.ErrNotFound
	}
	return s.Rounds.ByIndex(ctx, index)
}

func (s *Service) acquire(player string, round int) bool {
	key := fmt.Sprintf("%s/%d", player, round)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[key]; busy {
		return false
	}
	s.inflight[key] = struct{}{}
	return true
}

func (s *Service) release(player string, round int) {
	s.mu.Lock()
	delete(s.inflight, fmt.Sprintf("%s/%d", player, round))
	s.mu.Unlock()
}

// load returns the saved state for a round or a fresh one.
func (s *Service) load(ctx context.Context, player string, round int) (*game.GameState, error) {
	st, err := s.Store.Load(ctx, player, round)
	if errors.Is(err, store.ErrNotFound) {
		return &game.GameState{Guesses: []game.Guess{}}, nil
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *Service) streaks(ctx context.Context, player string, round int, st *game.GameState) (game.Streaks, error) {
	hist, err := s.Store.History(ctx, player, round)
	if err != nil {
		return game.Streaks{}, err
	}
	return game.ComputeStreaks(round, st.Finished, st.Won, hist), nil
}

// evaluator builds the round's evaluator for the active variant.
func (s *Service) evaluator(r game.Round) game.Evaluator {
	if s.cfg.Variant == VariantExact {
		var allowed func(string) bool
		if s.Words != nil {
			allowed = s.Words.IsAllowed
		}
		return game.NewExact(r.Answer, allowed)
	}
	return &lazySimilarity{s: s, round: r}
}

// lazySimilarity resolves the answer vector on first Evaluate so input
// validation never waits on the embedding service.
type lazySimilarity struct {
	s     *Service
	round game.Round
}

func (l *lazySimilarity) Normalize(text string) (string, error) {
	return game.NewSimilarity(nil, nil).Normalize(text)
}

func (l *lazySimilarity) Evaluate(ctx context.Context, guess string) (game.Evaluation, error) {
	vec, err := l.s.answerVector(ctx, l.round)
	if err != nil {
		return game.Evaluation{}, err
	}
	return game.NewSimilarity(vec, l.s.Embedder).Evaluate(ctx, guess)
}

// answerVector uses the stored embedding, or embeds the answer once per
// round and caches it.
func (s *Service) answerVector(ctx context.Context, r game.Round) ([]float32, error) {
	if len(r.Embedding) > 0 {
		return r.Embedding, nil
	}
	s.cacheMu.Lock()
	vec, ok := s.answers[r.ID]
	s.cacheMu.Unlock()
	if ok {
		return vec, nil
	}
	vec, err := s.Embedder.Embed(ctx, r.Answer)
	if err != nil {
		return nil, fmt.Errorf("embed answer: %w", err)
	}
	s.cacheMu.Lock()
	s.answers[r.ID] = vec
	s.cacheMu.Unlock()
	log.Debug().Int("round", r.Index).Msg("cached answer embedding")
	return vec, nil
}

// Claim moves a guest's records to an account.
func (s *Service) Claim(ctx context.Context, from, to string) error {
	if from == "" || to == "" {
		return nil
	}
	if err := s.Store.Claim(ctx, from, to); err != nil {
		return err
	}
	if s.Results != nil {
		return s.Results.Claim(ctx, from, to)
	}
	return nil
}
