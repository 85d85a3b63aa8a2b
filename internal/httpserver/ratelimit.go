package httpserver

import (
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// clientLimiter is one client's token bucket and when it was last used.
type clientLimiter struct {
	lim  *rate.Limiter
	seen time.Time
}

// limiter returns the token bucket for a client key (usually its IP).
func (s *Server) limiter(key string) *rate.Limiter {
	s.limMu.Lock()
	defer s.limMu.Unlock()
	now := s.deps.Now()
	if cl, ok := s.limiters[key]; ok {
		cl.seen = now
		return cl.lim
	}
	rps := s.cfg.RateLimitRPS
	if rps <= 0 {
		rps = 5
	}
	burst := s.cfg.RateLimitBurst
	if burst <= 0 {
		burst = 10
	}
	lim := rate.NewLimiter(rate.Every(time.Second/time.Duration(rps)), burst)
	s.limiters[key] = &clientLimiter{lim: lim, seen: now}
	return lim
}

// pruneLimiters drops buckets not used since cutoff.
func (s *Server) pruneLimiters(cutoff time.Time) int {
	s.limMu.Lock()
	defer s.limMu.Unlock()
	n := 0
	for key, cl := range s.limiters {
		if cl.seen.Before(cutoff) {
			delete(s.limiters, key)
			n++
		}
	}
	return n
}

// rateLimit rejects requests beyond the per-client budget with 429.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientIP(r)
		if !s.limiter(key).Allow() {
			log.Debug().Str("client", key).Str("path", r.URL.Path).Msg("rate limited")
			writeError(w, http.StatusTooManyRequests, "too_many_requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP strips the port from RemoteAddr (RealIP may already have).
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
