package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/anagram/internal/auth"
)

// credentials is the body of signup and login.
type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// mountAuthRoutes registers authentication + gated routes (/auth/*, /stats/me, /rounds/mine).
func (s *Server) mountAuthRoutes(r chi.Router) {
	a := s.deps.Auth
	r.With(s.rateLimit).Post("/auth/signup", s.handleSignup)
	r.With(s.rateLimit).Post("/auth/login", s.handleLogin)
	r.Post("/auth/logout", s.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(a.RequireAuth)
		r.Get("/auth/me", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(auth.FromContext(r.Context()))
		})
		r.Get("/stats/me", s.handleStats)
		r.Get("/rounds/mine", s.handleMyRounds)
	})
}

// handleSignup creates a new user, signs a JWT, sets the auth cookie, and claims anon history.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	acct, err := s.deps.Auth.Users().Create(r.Context(), body.Username, body.Password)
	if err != nil {
		if errors.Is(err, auth.ErrUsernameTaken) {
			writeError(w, http.StatusConflict, "Username taken")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !s.issue(w, acct.User()) {
		return
	}
	s.claimAnon(r.Context(), r, acct.ID)
	log.Info().Str("user", acct.ID).Msg("signup")
	_ = json.NewEncoder(w).Encode(acct)
}

// handleLogin authenticates the user, sets the cookie, and claims anon history.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	acct, err := s.deps.Auth.Login(r.Context(), body.Username, body.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}
	if !s.issue(w, acct.User()) {
		return
	}
	s.claimAnon(r.Context(), r, acct.ID)
	_ = json.NewEncoder(w).Encode(acct.User())
}

// handleLogout clears the auth cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.deps.Auth.ClearCookie(w)
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// issue signs a token for u and sets it as a cookie. The token is also
// returned in a header for clients that prefer Bearer auth.
func (s *Server) issue(w http.ResponseWriter, u auth.User) bool {
	tok, exp, err := s.deps.Auth.Sign(u)
	if err != nil {
		log.Error().Err(err).Msg("sign token")
		writeError(w, http.StatusInternalServerError, "sign_failed")
		return false
	}
	s.deps.Auth.SetCookie(w, tok, exp)
	w.Header().Set("X-Auth-Token", tok)
	return true
}

// handleStats returns aggregates over the caller's finished rounds.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	me := auth.FromContext(r.Context())
	st, err := s.deps.Results.UserStats(r.Context(), me.ID)
	if err != nil {
		log.Error().Err(err).Str("user", me.ID).Msg("user stats")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":           me.ID,
		"username":     me.Username,
		"roundsPlayed": st.RoundsPlayed,
		"bestScore":    st.BestScore,
		"totalScore":   st.TotalScore,
		"wordsFound":   st.WordsFound,
	})
}

// handleMyRounds returns the caller's latest results.
func (s *Server) handleMyRounds(w http.ResponseWriter, r *http.Request) {
	me := auth.FromContext(r.Context())
	rows, err := s.deps.Results.Recent(r.Context(), me.ID, 50)
	if err != nil {
		log.Error().Err(err).Str("user", me.ID).Msg("recent rounds")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	_ = json.NewEncoder(w).Encode(rows)
}
