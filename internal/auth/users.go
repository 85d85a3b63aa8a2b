package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrUsernameTaken is returned by Create when the name exists (case-insensitive).
	ErrUsernameTaken = errors.New("username taken")
	// ErrUserNotFound is returned by the lookups.
	ErrUserNotFound = errors.New("user not found")
)

// Account matches the users table shape.
type Account struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// User returns the token identity of a.
func (a *Account) User() User { return User{ID: a.ID, Username: a.Username} }

// Users reads and writes the users table.
type Users struct{ db *sql.DB }

// NewUsers wraps db.
func NewUsers(db *sql.DB) *Users { return &Users{db: db} }

// Create validates input, checks uniqueness, hashes the password, and inserts a new user.
func (u *Users) Create(ctx context.Context, username, pw string) (*Account, error) {
	username = NormalizeUsername(username)
	if err := ValidateSignup(username, pw); err != nil {
		return nil, err
	}
	var exists int
	err := u.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE lower(username)=lower(?)`, username).Scan(&exists)
	switch {
	case err == nil:
		return nil, ErrUsernameTaken
	case !errors.Is(err, sql.ErrNoRows):
		return nil, err
	}

	h, err := HashPassword(pw)
	if err != nil {
		return nil, err
	}
	a := &Account{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: h,
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
	if _, err := u.db.ExecContext(ctx, `INSERT INTO users (id, username, password_hash, created_at) VALUES (?,?,?,?)`,
		a.ID, a.Username, a.PasswordHash, a.CreatedAt.Format(time.RFC3339)); err != nil {
		return nil, err
	}
	return a, nil
}

// ByUsername looks a user up case-insensitively.
func (u *Users) ByUsername(ctx context.Context, username string) (*Account, error) {
	return scanAccount(u.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE lower(username)=lower(?)`, username))
}

// ByID looks a user up by id.
func (u *Users) ByID(ctx context.Context, id string) (*Account, error) {
	return scanAccount(u.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE id=?`, id))
}

func scanAccount(row *sql.Row) (*Account, error) {
	var (
		a       Account
		created string
	)
	if err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	a.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return &a, nil
}
