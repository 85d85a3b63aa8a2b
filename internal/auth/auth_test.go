package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/anagram/internal/db"
)

func newService(t *testing.T, cfg Config) *Service {
	t.Helper()
	sqlDB, err := db.Open(filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.Migrate(sqlDB))
	return NewService(cfg, NewUsers(sqlDB))
}

func TestValidateSignup(t *testing.T) {
	for _, tc := range []struct {
		user, pass string
		ok         bool
	}{
		{"alice", "password1", true},
		{"a_b_9", "12345678", true},
		{"al", "password1", false},
		{"this_name_is_far_too_long", "password1", false},
		{"bad name", "password1", false},
		{"alice", "short", false},
	} {
		err := ValidateSignup(tc.user, tc.pass)
		assert.Equal(t, tc.ok, err == nil, "%q/%q: %v", tc.user, tc.pass, err)
	}
}

func TestPasswordHashing(t *testing.T) {
	h, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, CheckPassword(h, "correct horse"))
	assert.False(t, CheckPassword(h, "wrong horse"))
}

func TestTokenRoundTrip(t *testing.T) {
	s := newService(t, Config{Secret: "s3cret"})
	tok, exp, err := s.Sign(User{ID: "u1", Username: "alice"})
	require.NoError(t, err)
	assert.False(t, exp.IsZero())

	u, err := s.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, User{ID: "u1", Username: "alice"}, u)

	other := newService(t, Config{Secret: "different"})
	_, err = other.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = s.Parse("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiredTokenIsRejected(t *testing.T) {
	s := newService(t, Config{Secret: "s3cret", ExpiresDays: -1})
	tok, _, err := s.Sign(User{ID: "u1", Username: "alice"})
	require.NoError(t, err)
	_, err = s.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestUsersCreateAndLookup(t *testing.T) {
	s := newService(t, Config{})
	ctx := context.Background()

	a, err := s.Users().Create(ctx, "  Alice ", "password1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", a.Username)
	assert.NotEmpty(t, a.ID)

	_, err = s.Users().Create(ctx, "alice", "password2")
	assert.ErrorIs(t, err, ErrUsernameTaken)

	got, err := s.Users().ByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.Username, got.Username)
	assert.Equal(t, a.CreatedAt, got.CreatedAt)

	_, err = s.Users().ByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)

	acct, err := s.Login(ctx, "ALICE", "password1")
	require.NoError(t, err)
	assert.Equal(t, a.ID, acct.ID)

	_, err = s.Login(ctx, "alice", "nope-nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.Login(ctx, "nobody", "password1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestMiddleware(t *testing.T) {
	s := newService(t, Config{CookieName: "tok"})
	a, err := s.Users().Create(context.Background(), "alice", "password1")
	require.NoError(t, err)
	tok, _, err := s.Sign(a.User())
	require.NoError(t, err)
	ghost, _, err := s.Sign(User{ID: "deleted", Username: "ghost"})
	require.NoError(t, err)

	echo := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u := FromContext(r.Context()); u != nil {
			_, _ = w.Write([]byte(u.Username))
			return
		}
		_, _ = w.Write([]byte("guest"))
	})

	run := func(h http.Handler, mod func(*http.Request)) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		mod(req)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}
	bearer := func(t string) func(*http.Request) {
		return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+t) }
	}
	cookie := func(t string) func(*http.Request) {
		return func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "tok", Value: t}) }
	}
	none := func(*http.Request) {}

	req := s.RequireAuth(echo)
	assert.Equal(t, http.StatusUnauthorized, run(req, none).Code)
	assert.Equal(t, http.StatusUnauthorized, run(req, bearer("junk")).Code)
	assert.Equal(t, http.StatusUnauthorized, run(req, bearer(ghost)).Code)
	assert.Equal(t, "alice", run(req, bearer(tok)).Body.String())
	assert.Equal(t, "alice", run(req, cookie(tok)).Body.String())

	opt := s.OptionalAuth(echo)
	assert.Equal(t, "guest", run(opt, none).Body.String())
	assert.Equal(t, "guest", run(opt, bearer("junk")).Body.String())
	assert.Equal(t, "alice", run(opt, cookie(tok)).Body.String())
}

func TestCookieAttributes(t *testing.T) {
	s := newService(t, Config{CookieName: "tok", Production: true})
	rec := httptest.NewRecorder()
	s.ClearCookie(rec)
	c := rec.Result().Cookies()
	require.Len(t, c, 1)
	assert.Equal(t, "tok", c[0].Name)
	assert.True(t, c[0].Secure)
	assert.True(t, c[0].HttpOnly)
	assert.Equal(t, http.SameSiteNoneMode, c[0].SameSite)
	assert.Equal(t, -1, c[0].MaxAge)
}
