// internal/results/results.go
//
// Persistence of finished rounds.
// Responsibilities:
//   - Recording one row per finished round for its owner (user or anonymous id).
//   - Answering "has this owner already played today's daily round?".
//   - Daily leaderboard and per-user aggregates.
//   - Moving anonymous history onto an account after signup/login.
//
// Notes:
//   - A round id is reused when the player restarts, so a row is keyed by
//     round id and play number. Inserting the same play twice is a no-op.
//   - Timestamps are stored as fixed-width UTC text so they sort as strings.

package results

import (
	"context"
	"database/sql"
	"time"
)

// Result is one finished round.
type Result struct {
	RoundID       string    `json:"roundId"`
	Play          int       `json:"play"` // 1 for the first play of the round id
	UserID        string    `json:"userId,omitempty"`
	AnonymousID   string    `json:"-"`
	Mode          string    `json:"mode"`
	Date          string    `json:"date"` // YYYY-MM-DD (UTC)
	WordLength    int       `json:"wordLength"`
	Score         int       `json:"score"`
	WordsFound    int       `json:"wordsFound"`
	WordsPossible int       `json:"wordsPossible"`
	FinishedAt    time.Time `json:"finishedAt"`
}

// LBRow is one leaderboard entry.
type LBRow struct {
	Owner      string    `json:"owner"` // username, or "guest"
	Score      int       `json:"score"`
	WordsFound int       `json:"wordsFound"`
	FinishedAt time.Time `json:"finishedAt"`
}

// Stats aggregates a user's finished rounds.
type Stats struct {
	RoundsPlayed int `json:"roundsPlayed"`
	BestScore    int `json:"bestScore"`
	TotalScore   int `json:"totalScore"`
	WordsFound   int `json:"wordsFound"`
}

// Store reads and writes round_results.
type Store struct{ db *sql.DB }

// NewStore wraps db.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Insert records r. A second insert for the same play, or a second daily
// result for the same owner and date, is ignored.
func (s *Store) Insert(ctx context.Context, r Result) error {
	if r.FinishedAt.IsZero() {
		r.FinishedAt = time.Now()
	}
	if r.Play == 0 {
		r.Play = 1
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT OR IGNORE INTO round_results
            (round_id, play, user_id, anonymous_id, mode, date, word_length,
             score, words_found, words_possible, finished_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RoundID, r.Play, nullable(r.UserID), nullable(r.AnonymousID), r.Mode, r.Date, r.WordLength,
		r.Score, r.WordsFound, r.WordsPossible, r.FinishedAt.UTC().Format(timeLayout),
	)
	return err
}

// AlreadyPlayedDaily reports whether owner (a user id or anonymous id) has a
// daily result for date.
func (s *Store) AlreadyPlayedDaily(ctx context.Context, owner, date string) (bool, error) {
	var cnt int
	err := s.db.QueryRowContext(ctx, `
        SELECT COUNT(1) FROM round_results
        WHERE mode='daily' AND date=? AND (user_id=? OR anonymous_id=?)`,
		date, owner, owner,
	).Scan(&cnt)
	return cnt > 0, err
}

// Leaderboard returns the best results of mode on date: highest score first,
// earliest finish breaking ties. Default limit is 20.
func (s *Store) Leaderboard(ctx context.Context, mode, date string, limit int) ([]LBRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT COALESCE(u.username, 'guest'), r.score, r.words_found, r.finished_at
        FROM round_results r
        LEFT JOIN users u ON u.id = r.user_id
        WHERE r.mode=? AND r.date=?
        ORDER BY r.score DESC, r.finished_at ASC
        LIMIT ?`, mode, date, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]LBRow, 0, limit)
	for rows.Next() {
		var (
			r        LBRow
			finished string
		)
		if err := rows.Scan(&r.Owner, &r.Score, &r.WordsFound, &finished); err != nil {
			return nil, err
		}
		r.FinishedAt = parseTime(finished)
		out = append(out, r)
	}
	return out, rows.Err()
}

// UserStats aggregates every result owned by userID.
func (s *Store) UserStats(ctx context.Context, userID string) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `
        SELECT COUNT(1), COALESCE(MAX(score), 0), COALESCE(SUM(score), 0), COALESCE(SUM(words_found), 0)
        FROM round_results WHERE user_id=?`, userID,
	).Scan(&st.RoundsPlayed, &st.BestScore, &st.TotalScore, &st.WordsFound)
	return st, err
}

// Recent returns the latest results of userID, newest first.
func (s *Store) Recent(ctx context.Context, userID string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT round_id, play, mode, date, word_length, score, words_found, words_possible, finished_at
        FROM round_results WHERE user_id=?
        ORDER BY finished_at DESC LIMIT ?`, userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Result{}
	for rows.Next() {
		var (
			r        Result
			finished string
		)
		if err := rows.Scan(&r.RoundID, &r.Play, &r.Mode, &r.Date, &r.WordLength, &r.Score,
			&r.WordsFound, &r.WordsPossible, &finished); err != nil {
			return nil, err
		}
		r.UserID = userID
		r.FinishedAt = parseTime(finished)
		out = append(out, r)
	}
	return out, rows.Err()
}

// ClaimAnon moves anonymous results onto userID. Rows that would give the
// user a second daily result for the same date stay anonymous.
func (s *Store) ClaimAnon(ctx context.Context, anonID, userID string) (int64, error) {
	if anonID == "" || userID == "" {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE OR IGNORE round_results SET user_id=?, anonymous_id=NULL WHERE anonymous_id=?`,
		userID, anonID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}
