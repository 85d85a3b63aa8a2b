package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/anagram/internal/auth"
	"github.com/robalobadob/anagram/internal/daily"
	"github.com/robalobadob/anagram/internal/game"
	"github.com/robalobadob/anagram/internal/results"
)

const anonCookieName = "anagram_anon"

// owner identifies who a round's results belong to.
type owner struct {
	userID string
	anonID string
}

// key is the id used for daily bookkeeping.
func (o owner) key() string {
	if o.userID != "" {
		return o.userID
	}
	return o.anonID
}

// ownerOf returns the signed-in user, or the guest's anonymous id (setting
// the cookie on first contact).
func (s *Server) ownerOf(w http.ResponseWriter, r *http.Request) owner {
	if me := auth.FromContext(r.Context()); me != nil {
		return owner{userID: me.ID}
	}
	return owner{anonID: s.ensureAnonID(w, r)}
}

// ensureAnonID returns an existing anon cookie or sets a new one.
func (s *Server) ensureAnonID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(anonCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	id := uuid.NewString()
	sameSite := http.SameSiteLaxMode
	if s.cfg.Production {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     anonCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.Production,
		SameSite: sameSite,
		Expires:  time.Now().Add(180 * 24 * time.Hour),
	})
	// Later reads in this request see the same id.
	r.AddCookie(&http.Cookie{Name: anonCookieName, Value: id})
	return id
}

// owns reports whether the caller is the player rd was created for. A guest
// who signs up mid-round still owns it through the anon cookie.
func (s *Server) owns(r *http.Request, rd *game.Round) bool {
	key := rd.Owner()
	if key == "" {
		return true
	}
	if me := auth.FromContext(r.Context()); me != nil && me.ID == key {
		return true
	}
	c, err := r.Cookie(anonCookieName)
	return err == nil && c.Value == key
}

// claimAnon transfers a guest's results to userID after auth.
func (s *Server) claimAnon(ctx context.Context, r *http.Request, userID string) {
	c, err := r.Cookie(anonCookieName)
	if err != nil || c.Value == "" {
		return
	}
	n, err := s.deps.Results.ClaimAnon(ctx, c.Value, userID)
	if err != nil {
		log.Warn().Err(err).Str("user", userID).Msg("claim anon results")
		return
	}
	if n > 0 {
		log.Info().Str("user", userID).Int64("rounds", n).Msg("claimed anon results")
	}
}

// recorder persists every finished play of a round for its owner, keyed by
// the play number the round stamped on the event. A daily round passes the
// date it was started for; otherwise the end date is used.
func (s *Server) recorder(o owner, date string) game.Listener {
	return game.ListenerFunc(func(e game.Event) {
		if e.Kind == game.EventEnded {
			s.record(o, date, e.Snapshot)
		}
	})
}

func (s *Server) record(o owner, date string, snap game.Snapshot) {
	play := snap.Play
	now := s.deps.Now()
	if date == "" {
		date = daily.DateKey(now)
	}
	possible := 0
	if snap.Answer != "" {
		possible = len(s.deps.Dict.AllValidWords(snap.Answer))
	}
	res := results.Result{
		RoundID:       snap.ID,
		Play:          play,
		UserID:        o.userID,
		AnonymousID:   o.anonID,
		Mode:          string(snap.Mode),
		Date:          date,
		WordLength:    snap.WordLength,
		Score:         snap.Score,
		WordsFound:    len(snap.Guessed),
		WordsPossible: possible,
		FinishedAt:    now,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.deps.Results.Insert(ctx, res); err != nil {
		log.Warn().Err(err).Str("roundId", snap.ID).Msg("persist round result")
		return
	}
	log.Info().Str("roundId", snap.ID).Int("play", play).Int("score", snap.Score).Msg("round finished")
}
