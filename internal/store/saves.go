// internal/store/saves.go
//
// Durable save slots: game.State JSON in the SQLite saves table, keyed by
// save ID and scoped to an owner (user ID or anonymous cookie).

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/robalobadob/wordslide/internal/game"
)

// Saves persists session state.
type Saves struct{ db *sql.DB }

func NewSaves(db *sql.DB) *Saves { return &Saves{db: db} }

// SaveInfo describes one slot without its state.
type SaveInfo struct {
	ID        string `json:"id"`
	UpdatedAt string `json:"updatedAt"`
}

// Save writes st under its session ID, overwriting an earlier save by the
// same owner.
func (s *Saves) Save(ctx context.Context, owner string, st game.State) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := s.db.ExecContext(ctx, `
        INSERT INTO saves (id, owner, state, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET state=excluded.state, updated_at=excluded.updated_at
        WHERE saves.owner=excluded.owner`,
		st.ID, owner, string(raw), now, now,
	)
	if err != nil {
		return fmt.Errorf("save %s: %w", st.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// the ID exists under someone else
		return ErrNotFound
	}
	return nil
}

// Load reads the saved state for id.
func (s *Saves) Load(ctx context.Context, owner, id string) (game.State, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT state FROM saves WHERE id=? AND owner=?`, id, owner,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return game.State{}, ErrNotFound
	}
	if err != nil {
		return game.State{}, err
	}
	var st game.State
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return game.State{}, fmt.Errorf("decode save %s: %w", id, err)
	}
	return st, nil
}

// List returns the owner's saves, newest first.
func (s *Saves) List(ctx context.Context, owner string) ([]SaveInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, updated_at FROM saves WHERE owner=? ORDER BY updated_at DESC, id LIMIT 50`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []SaveInfo{}
	for rows.Next() {
		var si SaveInfo
		if err := rows.Scan(&si.ID, &si.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, si)
	}
	return out, rows.Err()
}

// Claim moves every save of one owner to another (anonymous play carried
// into a new account).
func (s *Saves) Claim(ctx context.Context, from, to string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE saves SET owner=? WHERE owner=?`, to, from)
	return err
}
