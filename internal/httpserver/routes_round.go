// internal/httpserver/routes_round.go
//
// HTTP routes for classic rounds.
//   - POST /round/new           → create and start a round
//   - GET  /round/{id}          → snapshot
//   - POST /round/{id}/guess    → submit one guess (owner only)
//   - POST /round/{id}/restart  → start the same round over (owner only)
//   - POST /round/{id}/shuffle  → rearrange the letters (owner only)
//   - GET  /round/{id}/words    → end-of-round review (409 while running)
//
// Rounds live in the store; their countdown runs server-side, so clients
// only poll or listen on /round/{id}/events.

package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/anagram/internal/game"
	"github.com/robalobadob/anagram/internal/store"
)

// mountRounds registers all /round routes.
func (s *Server) mountRounds(r chi.Router) {
	r.With(s.rateLimit).Post("/round/new", s.handleNewRound)
	r.Route("/round/{id}", func(r chi.Router) {
		r.Get("/", s.handleGetRound)
		r.With(s.rateLimit).Post("/guess", s.handleGuess)
		r.With(s.rateLimit).Post("/restart", s.handleRestart)
		r.With(s.rateLimit).Post("/shuffle", s.handleShuffle)
		r.Get("/words", s.handleWords)
	})
}

// newRoundReq is the optional body of /round/new and /round/{id}/restart.
type newRoundReq struct {
	SevenLetters bool `json:"sevenLetters"`
}

// guessReq/Res payloads for POST /round/{id}/guess.
type guessReq struct {
	Guess string `json:"guess"`
}
type guessRes struct {
	Result game.Result   `json:"result"`
	Round  game.Snapshot `json:"round"`
}

// wordsRes is returned by /round/{id}/words.
type wordsRes struct {
	Answer string             `json:"answer"`
	Score  int                `json:"score"`
	Words  []game.DisplayWord `json:"words"`
}

// decodeOptional decodes a JSON body if present. An empty body is not an error.
func decodeOptional(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// startRound creates, starts, and stores a round for o.
func (s *Server) startRound(r *http.Request, o owner, cfg game.Config, date string, extra ...game.Option) (*game.Round, error) {
	opts := append([]game.Option{
		game.WithListener(s.recorder(o, date)),
		game.WithOwner(o.key()),
		game.WithLogger(log.Logger),
	}, extra...)
	opts = append(opts, s.deps.RoundOptions...)

	rd := game.New(s.deps.Dict, opts...)
	if err := rd.StartRound(cfg); err != nil {
		return nil, err
	}
	if err := s.deps.Rounds.Save(r.Context(), rd); err != nil {
		return nil, err
	}
	return rd, nil
}

// handleNewRound creates a classic round for the caller.
func (s *Server) handleNewRound(w http.ResponseWriter, r *http.Request) {
	var req newRoundReq
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	rd, err := s.startRound(r, s.ownerOf(w, r), game.Config{UseSevenLetters: req.SevenLetters}, "")
	if err != nil {
		s.roundError(w, err)
		return
	}
	log.Info().Str("roundId", rd.ID()).Bool("sevenLetters", req.SevenLetters).Msg("round created")
	_ = json.NewEncoder(w).Encode(rd.Snapshot())
}

// round loads the {id} round or writes 404.
func (s *Server) round(w http.ResponseWriter, r *http.Request) (*game.Round, bool) {
	rd, err := s.deps.Rounds.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "round_not_found")
		} else {
			writeError(w, http.StatusInternalServerError, "store_error")
		}
		return nil, false
	}
	return rd, true
}

// ownedRound loads the {id} round for the player who created it. Anyone
// else gets 403.
func (s *Server) ownedRound(w http.ResponseWriter, r *http.Request) (*game.Round, bool) {
	rd, ok := s.round(w, r)
	if !ok {
		return nil, false
	}
	if !s.owns(r, rd) {
		writeError(w, http.StatusForbidden, "not_round_owner")
		return nil, false
	}
	return rd, true
}

func (s *Server) handleGetRound(w http.ResponseWriter, r *http.Request) {
	rd, ok := s.round(w, r)
	if !ok {
		return
	}
	_ = json.NewEncoder(w).Encode(rd.Snapshot())
}

// handleGuess applies one guess. Rejections are ordinary 200 responses
// carrying their outcome.
func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	rd, ok := s.ownedRound(w, r)
	if !ok {
		return
	}
	var req guessReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	res := rd.SubmitGuess(req.Guess)
	_ = json.NewEncoder(w).Encode(guessRes{Result: res, Round: rd.Snapshot()})
}

// handleRestart starts the round over with a new secret word. Daily rounds
// cannot be restarted.
func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	rd, ok := s.ownedRound(w, r)
	if !ok {
		return
	}
	if rd.Mode() == game.ModeDaily {
		writeError(w, http.StatusConflict, "daily_no_restart")
		return
	}
	req := newRoundReq{SevenLetters: rd.Config().UseSevenLetters}
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	if err := rd.StartRound(game.Config{UseSevenLetters: req.SevenLetters}); err != nil {
		s.roundError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(rd.Snapshot())
}

func (s *Server) handleShuffle(w http.ResponseWriter, r *http.Request) {
	rd, ok := s.ownedRound(w, r)
	if !ok {
		return
	}
	letters := rd.Shuffle()
	_ = json.NewEncoder(w).Encode(map[string]string{"letters": letters})
}

// handleWords returns the review list once the round is over. Serving it
// mid-round would hand out the answers.
func (s *Server) handleWords(w http.ResponseWriter, r *http.Request) {
	rd, ok := s.round(w, r)
	if !ok {
		return
	}
	snap := rd.Snapshot()
	if snap.State == game.StateRunning {
		writeError(w, http.StatusConflict, "round_running")
		return
	}
	list := rd.AllWordsForDisplay()
	if list == nil {
		list = []game.DisplayWord{}
	}
	_ = json.NewEncoder(w).Encode(wordsRes{Answer: snap.Answer, Score: snap.Score, Words: list})
}

// roundError maps engine errors to HTTP responses.
func (s *Server) roundError(w http.ResponseWriter, err error) {
	if errors.Is(err, game.ErrNoCandidates) {
		writeError(w, http.StatusServiceUnavailable, "no_words")
		return
	}
	log.Error().Err(err).Msg("start round")
	writeError(w, http.StatusInternalServerError, "start_failed")
}
