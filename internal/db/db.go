// internal/db/db.go
//
// SQLite helpers for the wordslide server.
// Responsibilities:
//   - Opening SQLite with WAL, a busy timeout and foreign keys on.
//   - Applying the embedded migrations (assets/sql) once each, recorded
//     in _migrations. Applied names are read up front; only the pending
//     scripts are loaded.
//
// ":memory:" is accepted for tests; each call opens a private database.

package db

import (
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
	"github.com/zyedidia/generic/mapset"

	"github.com/robalobadob/wordslide/assets"
)

// Open opens (and creates if missing) the database at dsn.
func Open(dsn string) (*sql.DB, error) {
	if dsn == ":memory:" {
		db, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
		if err != nil {
			return nil, err
		}
		// every pooled connection would get its own empty database
		db.SetMaxOpenConns(1)
		return db, nil
	}

	dir := filepath.Dir(dsn)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite3", dsn+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}
	return db, nil
}

// OpenAndMigrate is Open followed by Migrate with the embedded scripts.
func OpenAndMigrate(dsn string) (*sql.DB, error) {
	db, err := Open(dsn)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db, assets.Migrations()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate applies every top-level *.sql file in fsys that _migrations has
// no record of, in lexical order.
func Migrate(db *sql.DB, fsys fs.FS) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY)`); err != nil {
		return fmt.Errorf("create _migrations: %w", err)
	}
	applied, err := appliedMigrations(db)
	if err != nil {
		return err
	}
	pending, err := pendingMigrations(fsys, applied)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		log.Debug().Int("applied", applied.Size()).Msg("schema up to date")
		return nil
	}
	for _, m := range pending {
		if err := m.apply(db); err != nil {
			return err
		}
		log.Info().Str("migration", m.name).Bool("ownTx", m.ownsTx()).Msg("applied migration")
	}
	return nil
}

type migration struct {
	name string
	text string
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func appliedMigrations(db *sql.DB) (mapset.Set[string], error) {
	done := mapset.New[string]()
	rows, err := db.Query(`SELECT name FROM _migrations`)
	if err != nil {
		return done, fmt.Errorf("query _migrations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return done, fmt.Errorf("scan _migrations: %w", err)
		}
		done.Put(name)
	}
	return done, rows.Err()
}

func pendingMigrations(fsys fs.FS, applied mapset.Set[string]) ([]migration, error) {
	names, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	slices.Sort(names)

	var out []migration
	for _, name := range names {
		if applied.Has(name) {
			continue
		}
		raw, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		out = append(out, migration{name: name, text: string(raw)})
	}
	return out, nil
}

// ownsTx reports whether the script opens its own transaction or turns
// foreign keys off; SQLite ignores that pragma inside a transaction.
func (m migration) ownsTx() bool {
	compact := strings.ToUpper(strings.Join(strings.Fields(m.text), ""))
	return strings.Contains(compact, "BEGINTRANSACTION") ||
		strings.Contains(compact, "PRAGMAFOREIGN_KEYS=OFF")
}

func (m migration) record(e execer) error {
	if _, err := e.Exec(`INSERT INTO _migrations(name) VALUES (?)`, m.name); err != nil {
		return fmt.Errorf("record %s: %w", m.name, err)
	}
	return nil
}

func (m migration) apply(db *sql.DB) error {
	if m.ownsTx() {
		if _, err := db.Exec(m.text); err != nil {
			return fmt.Errorf("apply %s: %w", m.name, err)
		}
		return m.record(db)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin %s: %w", m.name, err)
	}
	defer tx.Rollback()
	if _, err := tx.Exec(m.text); err != nil {
		return fmt.Errorf("apply %s: %w", m.name, err)
	}
	if err := m.record(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", m.name, err)
	}
	return nil
}
