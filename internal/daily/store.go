// internal/daily/store.go
//
// SQLite access for daily results: one row per player and date, ranked
// by moves then time.

package daily

import (
	"context"
	"database/sql"
)

// Result is one finished daily level.
type Result struct {
	UserID    string `json:"userId"`
	Date      string `json:"date"`
	Level     int    `json:"level"`
	Moves     int    `json:"moves"`
	ElapsedMs int    `json:"elapsedMs"`
}

// Store reads and writes daily_results.
type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) AlreadyPlayed(ctx context.Context, userID, date string) (bool, error) {
	var cnt int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM daily_results WHERE user_id=? AND date=?",
		userID, date,
	).Scan(&cnt)
	return cnt > 0, err
}

// InsertResult records r. A second result for the same user and date is
// ignored.
func (s *Store) InsertResult(ctx context.Context, r Result) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO daily_results(user_id, date, level, moves, elapsed_ms)
         VALUES(?,?,?,?,?)`, r.UserID, r.Date, r.Level, r.Moves, r.ElapsedMs,
	)
	return err
}

// Claim moves guest results to an account. Dates the account already has
// a result for keep the account's row.
func (s *Store) Claim(ctx context.Context, from, to string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE OR IGNORE daily_results SET user_id=? WHERE user_id=?`, to, from)
	return err
}

// LBRow is one leaderboard line. Username is empty for guests.
type LBRow struct {
	UserID    string `json:"userId"`
	Username  string `json:"username,omitempty"`
	Moves     int    `json:"moves"`
	ElapsedMs int    `json:"elapsedMs"`
}

// Leaderboard ranks a date by fewest moves, then fastest, then earliest.
func (s *Store) Leaderboard(ctx context.Context, date string, limit int) ([]LBRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT d.user_id, COALESCE(u.username, ''), d.moves, d.elapsed_ms
         FROM daily_results d
         LEFT JOIN users u ON u.id = d.user_id
         WHERE d.date=?
         ORDER BY d.moves ASC, d.elapsed_ms ASC, d.created_at ASC
         LIMIT ?`, date, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []LBRow{}
	for rows.Next() {
		var r LBRow
		if err := rows.Scan(&r.UserID, &r.Username, &r.Moves, &r.ElapsedMs); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
