// internal/httpserver/routes_daily.go
//
// HTTP routes for the daily round.
//   - POST /daily/new         → start (or resume) today's shared round
//   - GET  /daily/leaderboard → top scores for today (or ?date=YYYY-MM-DD)
//
// Every player gets the same secret word for a given UTC date and length.
// Each owner plays once per day: a persisted daily result blocks /daily/new
// with 409, and a still-running daily round is handed back instead of a
// fresh one. Guesses go through the ordinary /round/{id} routes.

package httpserver

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/anagram/internal/daily"
	"github.com/robalobadob/anagram/internal/game"
)

// mountDaily registers all /daily routes.
func (s *Server) mountDaily(r chi.Router) {
	r.Route("/daily", func(r chi.Router) {
		r.With(s.rateLimit).Post("/new", s.handleDailyNew)
		r.Get("/leaderboard", s.handleLeaderboard)
	})
}

// dailyRes is returned by /daily/new.
type dailyRes struct {
	Date  string        `json:"date"`
	Round game.Snapshot `json:"round"`
}

// handleDailyNew starts today's round for the caller.
func (s *Server) handleDailyNew(w http.ResponseWriter, r *http.Request) {
	var req newRoundReq
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	o := s.ownerOf(w, r)
	now := s.deps.Now()
	date := daily.DateKey(now)

	played, err := s.deps.Results.AlreadyPlayedDaily(r.Context(), o.key(), date)
	if err != nil {
		log.Error().Err(err).Msg("daily lookup")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	if played {
		writeError(w, http.StatusConflict, "already_played")
		return
	}

	// One daily round per owner and date; hand back a live one.
	key := dailyKey(o, date)
	s.dailyMu.Lock()
	defer s.dailyMu.Unlock()
	if id, ok := s.daily[key]; ok {
		if rd, err := s.deps.Rounds.Get(r.Context(), id); err == nil {
			if rd.State() == game.StateRunning {
				_ = json.NewEncoder(w).Encode(dailyRes{Date: date, Round: rd.Snapshot()})
				return
			}
			writeError(w, http.StatusConflict, "already_played")
			return
		}
	}

	rd, err := s.startRound(r, o, game.Config{UseSevenLetters: req.SevenLetters}, date,
		game.WithMode(game.ModeDaily),
		game.WithPicker(daily.Picker(now, s.cfg.DailySalt)),
	)
	if err != nil {
		s.roundError(w, err)
		return
	}
	s.daily[key] = rd.ID()
	log.Info().Str("roundId", rd.ID()).Str("date", date).Msg("daily round created")
	_ = json.NewEncoder(w).Encode(dailyRes{Date: date, Round: rd.Snapshot()})
}

func dailyKey(o owner, date string) string { return o.key() + "|" + date }

// pruneDaily drops entries for dates before today. Date keys are
// YYYY-MM-DD, so string order is date order.
func (s *Server) pruneDaily(today string) int {
	s.dailyMu.Lock()
	defer s.dailyMu.Unlock()
	n := 0
	for key := range s.daily {
		if key[strings.LastIndexByte(key, '|')+1:] < today {
			delete(s.daily, key)
			n++
		}
	}
	return n
}

// lbRes is returned by /daily/leaderboard.
type lbRes struct {
	Date string `json:"date"`
	Top  any    `json:"top"`
}

// handleLeaderboard returns the leaderboard for the given date (default today).
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = daily.DateKey(s.deps.Now())
	}
	rows, err := s.deps.Results.Leaderboard(r.Context(), string(game.ModeDaily), date, 20)
	if err != nil {
		log.Error().Err(err).Msg("daily leaderboard")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	_ = json.NewEncoder(w).Encode(lbRes{Date: date, Top: rows})
}
