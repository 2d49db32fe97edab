// internal/play/guess.go
//
// Guess submission, result recording, live hints, share text and player
// stats.

package play

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/charades/internal/analytics"
	"github.com/robalobadob/charades/internal/daily"
	"github.com/robalobadob/charades/internal/game"
	"github.com/robalobadob/charades/internal/rounds"
)

// GuessRequest is one submission. Round pins the round the client is
// showing; nil means today's.
type GuessRequest struct {
	Player string
	Text   string
	Round  *int
}

// GuessResult is the scored guess plus the refreshed view.
type GuessResult struct {
	Guess game.Guess  `json:"guess"`
	Bands []game.Band `json:"bands,omitempty"`
	Marks []game.Mark `json:"marks,omitempty"`
	View  View        `json:"round"`
}

// Guess scores a guess against today's round and persists the outcome.
// Errors leave the saved state unchanged.
func (s *Service) Guess(ctx context.Context, req GuessRequest) (GuessResult, error) {
	r, err := s.Today(ctx)
	if err != nil {
		return GuessResult{}, err
	}
	if req.Round != nil && *req.Round != r.Index {
		return GuessResult{}, ErrRoundClosed
	}
	if !s.acquire(req.Player, r.Index) {
		return GuessResult{}, ErrProcessing
	}
	defer s.release(req.Player, r.Index)

	st, err := s.load(ctx, req.Player, r.Index)
	if err != nil {
		return GuessResult{}, err
	}
	g := game.New(r, st, s.cfg.MaxGuesses, s.evaluator(r))
	guess, eval, err := g.Submit(ctx, req.Text)
	if err != nil {
		return GuessResult{}, err
	}

	if err := s.Store.Save(ctx, req.Player, r.Index, *g.State); err != nil {
		return GuessResult{}, err
	}
	streaks, err := s.streaks(ctx, req.Player, r.Index, g.State)
	if err != nil {
		return GuessResult{}, err
	}

	for _, e := range analytics.GuessEvents(req.Player, guess.Text, len(g.State.Guesses), g.State, streaks) {
		s.Analytics.Track(ctx, e)
	}
	if g.State.Finished {
		s.record(ctx, req.Player, r, g.State)
	}

	log.Debug().
		Str("player", req.Player).
		Int("round", r.Index).
		Int("n", len(g.State.Guesses)).
		Str("status", g.Status()).
		Msg("guess scored")

	return GuessResult{
		Guess: guess,
		Bands: eval.Bands,
		Marks: eval.Marks,
		View:  s.view(r, g.State, streaks),
	}, nil
}

// record stores a finished round. Elapsed time runs from the round's
// opening. Failures are logged; the player's state is already saved.
func (s *Service) record(ctx context.Context, player string, r game.Round, st *game.GameState) {
	if s.Results == nil || rounds.IsHiatus(r) {
		return
	}
	opened := r.Date.Add(s.cfg.Rollover)
	if r.Date.IsZero() {
		if d, err := daily.ParseKey(r.DateID); err == nil {
			opened = d.Add(s.cfg.Rollover)
		}
	}
	elapsed := s.Now().Sub(opened)
	if elapsed < 0 {
		elapsed = 0
	}
	err := s.Results.Insert(ctx, daily.Result{
		PlayerID:   player,
		RoundIndex: r.Index,
		Guesses:    len(st.Guesses),
		Won:        st.Won,
		ElapsedMs:  elapsed.Milliseconds(),
	})
	if err != nil {
		log.Warn().Err(err).Str("player", player).Int("round", r.Index).Msg("record result")
	}
}

// Hints renders live typing feedback for the exact variant.
func (s *Service) Hints(ctx context.Context, player, typed string) (string, error) {
	if s.cfg.Variant != VariantExact {
		return "", ErrUnsupported
	}
	r, err := s.Today(ctx)
	if err != nil {
		return "", err
	}
	st, err := s.load(ctx, player, r.Index)
	if err != nil {
		return "", err
	}
	return game.BuildHints(r.Answer, st.Guesses).Feedback(typed), nil
}

// Share returns the share text for a finished round and tracks the click.
func (s *Service) Share(ctx context.Context, player string) (string, error) {
	r, err := s.Today(ctx)
	if err != nil {
		return "", err
	}
	st, err := s.load(ctx, player, r.Index)
	if err != nil {
		return "", err
	}
	if !st.Finished {
		return "", ErrNotFinished
	}
	s.Analytics.Track(ctx, analytics.ShareEvent(player))
	return game.ShareString(r.Index, st, s.cfg.MaxGuesses, s.cfg.SiteURL), nil
}

// PlayerStats summarizes a player's saved rounds up to today.
type PlayerStats struct {
	Streaks game.Streaks `json:"streaks"`
	Played  int          `json:"played"`
	Won     int          `json:"won"`
}

func (s *Service) Stats(ctx context.Context, player string) (PlayerStats, error) {
	r, err := s.Today(ctx)
	if err != nil {
		return PlayerStats{}, err
	}
	hist, err := s.Store.History(ctx, player, r.Index+1)
	if err != nil {
		return PlayerStats{}, err
	}
	cur := hist[r.Index]
	out := PlayerStats{Streaks: game.ComputeStreaks(r.Index, cur.Finished, cur.Won, hist)}
	for _, st := range hist {
		if st.Finished {
			out.Played++
		}
		if st.Won {
			out.Won++
		}
	}
	return out, nil
}
