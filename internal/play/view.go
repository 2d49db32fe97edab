package play

import (
	"context"
	"strings"

	"github.com/robalobadob/charades/internal/daily"
	"github.com/robalobadob/charades/internal/game"
	"github.com/robalobadob/charades/internal/rounds"
)

// View is a player's picture of today's round.
type View struct {
	RoundIndex  int          `json:"roundIndex"`
	RoundID     string       `json:"roundId"`
	DateID      string       `json:"dateId"`
	Hiatus      bool         `json:"hiatus"`
	Variant     Variant      `json:"variant"`
	Images      []string     `json:"images"`
	PreviewURL  string       `json:"previewUrl"`
	Guesses     []game.Guess `json:"guesses"`
	Status      string       `json:"status"`
	Finished    bool         `json:"gameFinished"`
	Won         bool         `json:"gameWon"`
	MaxGuesses  int          `json:"maxGuesses"`
	Remaining   int          `json:"remainingGuesses"`
	Streaks     game.Streaks `json:"streaks"`
	Answer      string       `json:"answer,omitempty"`
	NextRoundIn string       `json:"nextRoundIn"`
	Permalink   string       `json:"permalink"`
}

// RoundInfo is the public metadata of a round; it never carries the answer.
type RoundInfo struct {
	Index      int      `json:"roundIndex"`
	ID         string   `json:"roundId"`
	DateID     string   `json:"dateId"`
	Images     []string `json:"images"`
	PreviewURL string   `json:"previewUrl"`
	Permalink  string   `json:"permalink"`
}

// View returns today's round as seen by player.
func (s *Service) View(ctx context.Context, player string) (View, error) {
	r, err := s.Today(ctx)
	if err != nil {
		return View{}, err
	}
	st, err := s.load(ctx, player, r.Index)
	if err != nil {
		return View{}, err
	}
	streaks, err := s.streaks(ctx, player, r.Index, st)
	if err != nil {
		return View{}, err
	}
	return s.view(r, st, streaks), nil
}

func (s *Service) view(r game.Round, st *game.GameState, streaks game.Streaks) View {
	guesses := st.Guesses
	if guesses == nil {
		guesses = []game.Guess{}
	}
	revealed := 1 + len(guesses)
	if st.Finished || revealed > rounds.ImagesPerRound {
		revealed = rounds.ImagesPerRound
	}
	v := View{
		RoundIndex:  r.Index,
		RoundID:     r.ID,
		DateID:      r.DateID,
		Hiatus:      rounds.IsHiatus(r),
		Variant:     s.cfg.Variant,
		Images:      s.imageURLs(r.ID)[:revealed],
		PreviewURL:  s.assetURL(rounds.PreviewKey(r.Index)),
		Guesses:     guesses,
		Status:      game.StatusOf(st),
		Finished:    st.Finished,
		Won:         st.Won,
		MaxGuesses:  s.cfg.MaxGuesses,
		Remaining:   remaining(s.cfg.MaxGuesses, st),
		Streaks:     streaks,
		NextRoundIn: daily.Countdown(s.Now(), s.cfg.Rollover),
		Permalink:   game.RoundURL(s.cfg.SiteURL, r.Index),
	}
	if st.Finished {
		v.Answer = r.Answer
	}
	return v
}

// Info returns public metadata for a round.
func (s *Service) Info(r game.Round) RoundInfo {
	return RoundInfo{
		Index:      r.Index,
		ID:         r.ID,
		DateID:     r.DateID,
		Images:     s.imageURLs(r.ID),
		PreviewURL: s.assetURL(rounds.PreviewKey(r.Index)),
		Permalink:  game.RoundURL(s.cfg.SiteURL, r.Index),
	}
}

func remaining(maxGuesses int, st *game.GameState) int {
	if st.Finished {
		return 0
	}
	return max(maxGuesses-len(st.Guesses), 0)
}

func (s *Service) imageURLs(id string) []string {
	keys := rounds.ImageKeys(id)
	for i, k := range keys {
		keys[i] = s.assetURL(k)
	}
	return keys
}

func (s *Service) assetURL(key string) string {
	return strings.TrimRight(s.cfg.ImageBaseURL, "/") + "/" + key
}
