// internal/httpserver/routes_round.go
//
// HTTP routes for the daily round.
//   - GET  /round               → today's round as seen by the player
//   - POST /round/guess         → submit a guess {guess, roundIndex?}
//   - GET  /round/share         → share text for a finished round
//   - GET  /round/hints?guess=  → live letter feedback (exact variant)
//   - GET  /round/{index}       → public metadata for a past/current round
//   - GET  /round/{index}/qr    → PNG QR code of the round permalink
//   - GET  /round/{index}/stats → aggregate results + leaderboard
//
// Only today's round is playable. Past rounds expose metadata only, and
// future rounds are 404 so permalinks cannot leak them.

package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"

	"github.com/robalobadob/charades/internal/daily"
	"github.com/robalobadob/charades/internal/play"
)

type guessBody struct {
	Guess      string `json:"guess"`
	RoundIndex *int   `json:"roundIndex,omitempty"`
}

type statsResponse struct {
	Summary     daily.Summary `json:"summary"`
	Leaderboard []daily.LBRow `json:"leaderboard"`
}

// mountRound registers all /round routes.
func (s *Server) mountRound(r chi.Router) {
	r.Route("/round", func(r chi.Router) {
		r.Get("/", s.handleView)
		r.Post("/guess", s.handleGuess)
		r.Get("/share", s.handleShare)
		r.Get("/hints", s.handleHints)
		r.Route("/{index}", func(r chi.Router) {
			r.Get("/", s.handleRoundInfo)
			r.Get("/qr", s.handleRoundQR)
			r.Get("/stats", s.handleRoundStats)
		})
	})
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	v, err := s.play.View(r.Context(), s.playerID(w, r))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// handleGuess scores one guess. Bodies are limited to 4KiB.
func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	player := s.playerID(w, r)
	if !s.limiter.allow(player) {
		writeJSON(w, http.StatusTooManyRequests, errBody{"rate_limited", "Slow down a little and try again."})
		return
	}
	var body guessBody
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<10)).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errBody{Error: "invalid_json"})
		return
	}
	res, err := s.play.Guess(r.Context(), play.GuessRequest{
		Player: player,
		Text:   body.Guess,
		Round:  body.RoundIndex,
	})
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	text, err := s.play.Share(r.Context(), s.playerID(w, r))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}

func (s *Server) handleHints(w http.ResponseWriter, r *http.Request) {
	fb, err := s.play.Hints(r.Context(), s.playerID(w, r), r.URL.Query().Get("guess"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"feedback": fb})
}

// roundIndex parses {index}; it writes a 404 and returns false on bad input.
func roundIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || n <= 0 {
		writeJSON(w, http.StatusNotFound, errBody{Error: "not_found"})
		return 0, false
	}
	return n, true
}

func (s *Server) handleRoundInfo(w http.ResponseWriter, r *http.Request) {
	idx, ok := roundIndex(w, r)
	if !ok {
		return
	}
	rd, err := s.play.Round(r.Context(), idx)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.play.Info(rd))
}

func (s *Server) handleRoundQR(w http.ResponseWriter, r *http.Request) {
	idx, ok := roundIndex(w, r)
	if !ok {
		return
	}
	rd, err := s.play.Round(r.Context(), idx)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	png, err := qrcode.Encode(s.play.Info(rd).Permalink, qrcode.Medium, 256)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		log.Debug().Err(err).Msg("write qr")
	}
}

func (s *Server) handleRoundStats(w http.ResponseWriter, r *http.Request) {
	if s.results == nil {
		writeJSON(w, http.StatusNotFound, errBody{Error: "not_found"})
		return
	}
	idx, ok := roundIndex(w, r)
	if !ok {
		return
	}
	if _, err := s.play.Round(r.Context(), idx); err != nil {
		writeErr(w, r, err)
		return
	}
	limit := 20
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	sum, err := s.results.Summary(r.Context(), idx)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	lb, err := s.results.Leaderboard(r.Context(), idx, limit)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{Summary: sum, Leaderboard: lb})
}
