package auth

import (
	"context"
	"net/http"
)

type ctxUserKey struct{}

// WithUser returns a copy of ctx carrying u.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, ctxUserKey{}, u)
}

// FromContext returns the authenticated user, or nil for guests.
func FromContext(ctx context.Context) *User {
	u, _ := ctx.Value(ctxUserKey{}).(*User)
	return u
}

// RequireAuth rejects requests without a valid token for an existing user.
func (s *Service) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := s.TokenFrom(r)
		if tok == "" {
			http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
			return
		}
		u, ok := s.verify(r.Context(), tok)
		if !ok {
			http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
	})
}

// OptionalAuth decorates the request with the user when a valid token is
// present. It never rejects; guests pass through.
func (s *Service) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tok := s.TokenFrom(r); tok != "" {
			if u, ok := s.verify(r.Context(), tok); ok {
				r = r.WithContext(WithUser(r.Context(), u))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// verify parses tok and ensures the user still exists.
func (s *Service) verify(ctx context.Context, tok string) (*User, bool) {
	u, err := s.Parse(tok)
	if err != nil {
		return nil, false
	}
	if _, err := s.users.ByID(ctx, u.ID); err != nil {
		return nil, false
	}
	return &u, true
}
