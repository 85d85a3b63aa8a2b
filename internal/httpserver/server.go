// internal/httpserver/server.go
//
// HTTP server wiring for the anagram backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", "/debug/words".
//   - Round endpoints (optional auth): /round/*, including the websocket
//     event stream.
//   - Daily round endpoints (optional auth): mounted under /daily.
//   - Auth + profile endpoints: /auth/*, /stats/me, /rounds/mine.
//   - Persisting each finished play for its owner.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Guests are identified by an anonymous cookie; their results move to
//     their account on signup/login.
//   - Mutating round routes are rate limited per client IP.

package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/robalobadob/anagram/internal/auth"
	"github.com/robalobadob/anagram/internal/daily"
	"github.com/robalobadob/anagram/internal/game"
	"github.com/robalobadob/anagram/internal/results"
	"github.com/robalobadob/anagram/internal/store"
	"github.com/robalobadob/anagram/internal/words"
)

// Config holds host settings read from the environment by main.
type Config struct {
	ClientOrigin   string
	DailySalt      string
	RateLimitRPS   int
	RateLimitBurst int
	Production     bool
}

// Deps are the collaborators a Server drives.
type Deps struct {
	Dict    *words.Dictionary
	Rounds  store.Store
	Results *results.Store
	Auth    *auth.Service

	// RoundOptions are appended to every round the server creates
	// (tests pass a mock clock or manual ticking).
	RoundOptions []game.Option
	// Now defaults to time.Now.
	Now func() time.Time
}

// Server bundles the router and its collaborators.
type Server struct {
	r    *chi.Mux
	cfg  Config
	deps Deps

	limMu    sync.Mutex
	limiters map[string]*clientLimiter

	dailyMu sync.Mutex
	daily   map[string]string // owner|date -> round id
}

// New constructs a Server, installs middleware, and registers routes.
func New(cfg Config, deps Deps) *Server {
	if cfg.ClientOrigin == "" {
		cfg.ClientOrigin = "http://localhost:5173"
	}
	if cfg.DailySalt == "" {
		cfg.DailySalt = "local_dev_salt"
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	s := &Server{
		r:        chi.NewRouter(),
		cfg:      cfg,
		deps:     deps,
		limiters: make(map[string]*clientLimiter),
		daily:    make(map[string]string),
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)  // add X-Request-ID
	s.r.Use(chimw.RealIP)     // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer)  // recover from panics
	s.r.Use(s.corsFromConfig) // credentials-friendly CORS
	s.r.Use(deps.Auth.OptionalAuth)

	// Websocket upgrades stay outside the handler timeout.
	s.r.Get("/round/{id}/events", s.handleEvents)

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
		r.Use(jsonContentType)                 // default JSON responses

		// --- diagnostics ---
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"service":"anagram-go","endpoints":["/health","POST /round/new","POST /round/{id}/guess","/daily/*","/auth/*"]}`))
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"ok":true}`))
		})
		r.Get("/debug/words", s.handleDebugWords)

		s.mountRounds(r)
		s.mountDaily(r)
		s.mountAuthRoutes(r)
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Prune forgets rate-limit buckets idle since cutoff and daily bookkeeping
// for dates before today. main calls it alongside the round store sweep.
func (s *Server) Prune(cutoff time.Time) (limiters, dailies int) {
	return s.pruneLimiters(cutoff), s.pruneDaily(daily.DateKey(s.deps.Now()))
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// handleDebugWords reports dictionary counts per word length.
func (s *Server) handleDebugWords(w http.ResponseWriter, r *http.Request) {
	counts := s.deps.Dict.CountByLength()
	out := make(map[string]int, len(counts)+1)
	for n, c := range counts {
		out[strconv.Itoa(n)] = c
	}
	out["total"] = s.deps.Dict.Len()
	_ = json.NewEncoder(w).Encode(out)
}

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// corsFromConfig enables credentialed CORS for the configured client origin.
func (s *Server) corsFromConfig(next http.Handler) http.Handler {
	origin := s.cfg.ClientOrigin
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
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

// writeError writes {"error":code} with status.
func writeError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code})
}
