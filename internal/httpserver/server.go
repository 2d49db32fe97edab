// internal/httpserver/server.go
//
// HTTP server wiring for the charades backend.
// Responsibilities:
//   - Router + middleware (request IDs, access log, panic recovery,
//     timeouts, JSON, CORS).
//   - Public endpoints: "/", "/health".
//   - Round endpoints (optional auth): mounted under /round.
//   - Auth + player stats: /auth/*, /stats/me.
//   - JWT cookie handling and the anonymous player cookie.
//
// Notes:
//   - Guests play under an anonymous cookie id. Signing up or logging in
//     claims that id's saved rounds for the account.
//   - The 10s handler timeout also bounds embedding calls, which inherit
//     the request context.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/charades/internal/accounts"
	"github.com/robalobadob/charades/internal/daily"
	"github.com/robalobadob/charades/internal/game"
	"github.com/robalobadob/charades/internal/play"
	"github.com/robalobadob/charades/internal/rounds"
)

// Options are the HTTP-facing settings.
type Options struct {
	ClientOrigin string
	CookieName   string
	Production   bool
	GuessRate    float64
	GuessBurst   int
	Timeout      time.Duration
}

// Server bundles the router and the services behind it.
type Server struct {
	r        *chi.Mux
	play     *play.Service
	accounts *accounts.Service // nil disables /auth
	results  *daily.Store      // nil disables round stats
	opts     Options
	limiter  *playerLimiter
}

// New constructs a Server, installs middleware, and registers routes.
func New(p *play.Service, acct *accounts.Service, results *daily.Store, opts Options) *Server {
	if opts.CookieName == "" {
		opts.CookieName = "charades_token"
	}
	if opts.ClientOrigin == "" {
		opts.ClientOrigin = "http://localhost:5173"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	s := &Server{
		r:        chi.NewRouter(),
		play:     p,
		accounts: acct,
		results:  results,
		opts:     opts,
		limiter:  newPlayerLimiter(opts.GuessRate, opts.GuessBurst),
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)             // add X-Request-ID
	s.r.Use(chimw.RealIP)                // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(accessLog)                   // zerolog request line
	s.r.Use(chimw.Recoverer)             // recover from panics
	s.r.Use(chimw.Timeout(opts.Timeout)) // bound handler time
	s.r.Use(jsonContentType)             // default JSON responses
	s.r.Use(s.cors)                      // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"service":   "charades",
			"variant":   p.Config().Variant,
			"endpoints": []string{"/health", "GET /round", "POST /round/guess", "GET /round/share", "GET /round/{index}", "/auth/*"},
		})
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	// Rounds: OPTIONAL AUTH (guests can play)
	s.mountRound(s.r.With(s.withOptionalAuth()))

	// Auth + stats
	s.mountAuthRoutes()

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s
}

// Handler exposes the router (used by the serve command and tests).
func (s *Server) Handler() http.Handler { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for a single origin.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", s.opts.ClientOrigin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// accessLog writes one zerolog line per request.
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Str("request_id", chimw.GetReqID(r.Context())).
			Msg("http")
	})
}

// ------------------------------ responses ----------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeErr maps domain errors to status codes and user-facing messages.
func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	status, body := http.StatusInternalServerError, errBody{Error: "server_error"}
	switch {
	case errors.Is(err, game.ErrInvalidGuess):
		status, body = http.StatusBadRequest, errBody{"invalid_guess", "Guesses must be letters and spaces only."}
	case errors.Is(err, game.ErrRepeatGuess):
		status, body = http.StatusConflict, errBody{"repeat_guess", "You've already guessed this word, please try again."}
	case errors.Is(err, play.ErrProcessing):
		status, body = http.StatusConflict, errBody{"processing", "Still checking your last guess."}
	case errors.Is(err, game.ErrGameFinished):
		status, body = http.StatusConflict, errBody{"game_finished", "This round is over. Come back for the next one!"}
	case errors.Is(err, play.ErrRoundClosed):
		status, body = http.StatusConflict, errBody{"round_closed", "A new round has started, refresh to play it."}
	case errors.Is(err, play.ErrNotFinished):
		status, body = http.StatusConflict, errBody{Error: "not_finished"}
	case errors.Is(err, play.ErrUnsupported):
		status, body = http.StatusBadRequest, errBody{Error: "unsupported"}
	case errors.Is(err, game.ErrEvaluation):
		status, body = http.StatusBadGateway, errBody{"evaluation_failed", "Error comparing guess to answer, please try again in a moment."}
	case errors.Is(err, rounds.ErrNotFound):
		status, body = http.StatusNotFound, errBody{Error: "not_found"}
	case errors.Is(err, context.DeadlineExceeded):
		status, body = http.StatusServiceUnavailable, errBody{Error: "timeout"}
	}
	if status >= 500 {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeJSON(w, status, body)
}

// ------------------------------- AUTH --------------------------------------

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// mountAuthRoutes registers /auth/* and /stats/me.
func (s *Server) mountAuthRoutes() {
	s.r.With(s.withOptionalAuth()).Get("/stats/me", s.handleMyStats)
	if s.accounts == nil {
		return
	}
	s.r.Post("/auth/signup", s.handleSignup)
	s.r.Post("/auth/login", s.handleLogin)
	s.r.Post("/auth/logout", s.handleLogout)
	s.r.With(s.requireAuth()).Get("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, currentUser(r))
	})
}

// handleSignup creates a user, sets the auth cookie, and claims guest history.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errBody{Error: "invalid_json"})
		return
	}
	u, err := s.accounts.Signup(r.Context(), body.Username, body.Password)
	var verr *accounts.ValidationError
	switch {
	case errors.Is(err, accounts.ErrUsernameTaken):
		writeJSON(w, http.StatusConflict, errBody{"username_taken", "Username taken"})
		return
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errBody{"invalid_signup", verr.Msg})
		return
	case err != nil:
		writeErr(w, r, err)
		return
	}
	if err := s.startSession(w, r, u); err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// handleLogin authenticates, sets the auth cookie, and claims guest history.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errBody{Error: "invalid_json"})
		return
	}
	u, err := s.accounts.Login(r.Context(), body.Username, body.Password)
	if errors.Is(err, accounts.ErrInvalidCredentials) {
		writeJSON(w, http.StatusUnauthorized, errBody{"invalid_credentials", "Invalid username or password"})
		return
	}
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if err := s.startSession(w, r, u); err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// startSession sets the auth cookie and moves the guest's rounds to u.
func (s *Server) startSession(w http.ResponseWriter, r *http.Request, u *accounts.User) error {
	tok, exp, err := s.accounts.Sign(u)
	if err != nil {
		return err
	}
	s.setCookie(w, s.opts.CookieName, tok, exp)
	if c, err := r.Cookie(anonCookieName); err == nil && c.Value != "" {
		if err := s.play.Claim(r.Context(), c.Value, u.ID); err != nil {
			log.Warn().Err(err).Str("user", u.ID).Msg("claim guest rounds")
		}
	}
	return nil
}

// handleLogout clears the auth cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.setCookie(w, s.opts.CookieName, "", time.Time{})
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleMyStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.play.Stats(r.Context(), s.playerID(w, r))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// --------------------------- optional auth ---------------------------------

// ctxUserKey is the context key type for storing the account.
type ctxUserKey struct{}

func currentUser(r *http.Request) *accounts.User {
	u, _ := r.Context().Value(ctxUserKey{}).(*accounts.User)
	return u
}

// withOptionalAuth decorates requests with the account if a valid JWT is
// present. It never 401s.
func (s *Server) withOptionalAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if s.accounts != nil {
				if tok := s.bearerOrCookie(r); tok != "" {
					if u, err := s.accounts.Parse(r.Context(), tok); err == nil {
						r = r.WithContext(context.WithValue(r.Context(), ctxUserKey{}, u))
					}
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requireAuth enforces a valid JWT.
func (s *Server) requireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := s.bearerOrCookie(r)
			if tok == "" {
				writeJSON(w, http.StatusUnauthorized, errBody{Error: "Unauthorized"})
				return
			}
			u, err := s.accounts.Parse(r.Context(), tok)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, errBody{Error: "Invalid token"})
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxUserKey{}, u)))
		})
	}
}

const anonCookieName = "charades_anon"

// playerID is the account id when logged in, otherwise the anonymous
// cookie id (set on first use).
func (s *Server) playerID(w http.ResponseWriter, r *http.Request) string {
	if u := currentUser(r); u != nil {
		return u.ID
	}
	if c, err := r.Cookie(anonCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	id := uuid.NewString()
	s.setCookie(w, anonCookieName, id, time.Now().Add(400*24*time.Hour))
	return id
}

// setCookie writes an HttpOnly cookie; a zero exp deletes it.
func (s *Server) setCookie(w http.ResponseWriter, name, value string, exp time.Time) {
	sameSite := http.SameSiteLaxMode
	if s.opts.Production {
		sameSite = http.SameSiteNoneMode // required for third-party contexts when Secure
	}
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.Production,
		SameSite: sameSite,
		Expires:  exp,
	}
	if exp.IsZero() {
		c.MaxAge = -1
	}
	http.SetCookie(w, c)
}

// bearerOrCookie extracts a bearer token from Authorization header or auth cookie.
func (s *Server) bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(s.opts.CookieName); err == nil {
		return c.Value
	}
	return ""
}
