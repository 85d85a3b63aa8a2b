// internal/auth/auth.go
//
// Accounts for the anagram server.
// Responsibilities:
//   - Username/password rules and bcrypt hashing.
//   - HS256 JWT signing and parsing.
//   - Auth cookie set/clear and token extraction (Bearer header or cookie).
//   - Request middleware: RequireAuth (401 without a valid token) and
//     OptionalAuth (decorates the request when a token is present).
//
// Notes:
//   - Tokens carry the user id and username; middleware re-checks that the
//     user still exists before trusting them.
//   - Cookies are Secure + SameSite=None in production, Lax otherwise.

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidToken is returned by Parse for missing, expired, or forged tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrInvalidCredentials is returned by Login for an unknown user or wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// Config holds token and cookie settings.
type Config struct {
	Secret      string
	ExpiresDays int
	CookieName  string
	Production  bool
}

// User is the authenticated identity placed into the request context.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Claims is the JWT payload.
type Claims struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Service signs and verifies tokens and guards routes.
type Service struct {
	cfg   Config
	users *Users
}

// NewService builds a Service. Empty settings fall back to development defaults.
func NewService(cfg Config, users *Users) *Service {
	if cfg.Secret == "" {
		cfg.Secret = "dev_secret_change_me"
	}
	if cfg.ExpiresDays == 0 {
		cfg.ExpiresDays = 14
	}
	if cfg.CookieName == "" {
		cfg.CookieName = "anagram_token"
	}
	return &Service{cfg: cfg, users: users}
}

// Users exposes the account store.
func (s *Service) Users() *Users { return s.users }

// Production reports whether cookies are issued with production attributes.
func (s *Service) Production() bool { return s.cfg.Production }

// ---- validation & passwords ----

// NormalizeUsername trims whitespace.
func NormalizeUsername(u string) string {
	return strings.TrimSpace(u)
}

// ValidateSignup enforces basic username/password rules.
func ValidateSignup(u, p string) error {
	if len(u) < 3 || len(u) > 24 {
		return errors.New("username must be 3-24 chars")
	}
	for _, r := range u {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return errors.New("username: letters, numbers, underscore only")
		}
	}
	if len(p) < 8 || len(p) > 72 {
		return errors.New("password must be 8-72 chars")
	}
	return nil
}

// HashPassword returns the bcrypt hash of pw.
func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b), err
}

// CheckPassword reports whether pw matches hash.
func CheckPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// ---- tokens ----

// Sign issues a token for u and returns it with its expiry.
func (s *Service) Sign(u User) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(time.Duration(s.cfg.ExpiresDays) * 24 * time.Hour)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		ID:       u.ID,
		Username: u.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
	ss, err := t.SignedString([]byte(s.cfg.Secret))
	return ss, exp, err
}

// Parse verifies tok and returns the identity it carries.
func (s *Service) Parse(tok string) (User, error) {
	var c Claims
	t, err := jwt.ParseWithClaims(tok, &c, func(*jwt.Token) (any, error) {
		return []byte(s.cfg.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !t.Valid {
		return User{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if c.ID == "" || c.Username == "" {
		return User{}, ErrInvalidToken
	}
	return User{ID: c.ID, Username: c.Username}, nil
}

// Login checks credentials and returns the matching account.
func (s *Service) Login(ctx context.Context, username, pw string) (*Account, error) {
	a, err := s.users.ByUsername(ctx, NormalizeUsername(username))
	if err != nil || !CheckPassword(a.PasswordHash, pw) {
		return nil, ErrInvalidCredentials
	}
	return a, nil
}

// ---- cookies ----

// SetCookie writes the auth cookie.
func (s *Service) SetCookie(w http.ResponseWriter, token string, exp time.Time) {
	http.SetCookie(w, s.cookie(token, exp, 0))
}

// ClearCookie deletes the auth cookie.
func (s *Service) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, s.cookie("", time.Time{}, -1))
}

func (s *Service) cookie(value string, exp time.Time, maxAge int) *http.Cookie {
	sameSite := http.SameSiteLaxMode
	if s.cfg.Production {
		sameSite = http.SameSiteNoneMode
	}
	return &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.Production,
		SameSite: sameSite,
		Expires:  exp,
		MaxAge:   maxAge,
	}
}

// TokenFrom extracts a bearer token from the Authorization header, falling
// back to the auth cookie.
func (s *Service) TokenFrom(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(s.cfg.CookieName); err == nil {
		return c.Value
	}
	return ""
}
