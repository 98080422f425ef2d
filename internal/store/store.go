package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const currentVersion = 1

type Store struct {
	db *sql.DB
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:")
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	var version int
	err := s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := migrateV1(s.db); err != nil {
			return err
		}
	}

	_, err = s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

const schemaV1 = `
	CREATE TABLE IF NOT EXISTS seasons (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		name         TEXT NOT NULL UNIQUE,
		start_date   TEXT NOT NULL,
		end_date     TEXT,
		is_active    INTEGER NOT NULL DEFAULT 0,
		daily_decay  REAL NOT NULL DEFAULT 56.0,
		timezone     TEXT NOT NULL DEFAULT ''
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_seasons_one_active ON seasons(is_active) WHERE is_active = 1;

	CREATE TABLE IF NOT EXISTS tasks (
		id                INTEGER PRIMARY KEY AUTOINCREMENT,
		season_id         INTEGER NOT NULL REFERENCES seasons(id),
		dow               TEXT NOT NULL DEFAULT '',
		description       TEXT NOT NULL,
		project           TEXT NOT NULL DEFAULT '',
		difficulty        TEXT NOT NULL DEFAULT '',
		start_time        TEXT,
		finish_time       TEXT,
		duration_minutes  REAL,
		lp_gain           REAL,
		reflection        TEXT NOT NULL DEFAULT '',
		completed         INTEGER NOT NULL DEFAULT 0,
		created_at        TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_season ON tasks(season_id, completed);
	`

func migrateV1(db execer) error {
	_, err := db.Exec(schemaV1)
	return err
}

func dropAll(db execer) error {
	for _, stmt := range []string{
		`DROP TABLE IF EXISTS tasks`,
		`DROP TABLE IF EXISTS seasons`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("%s: %w", stmt, err)
		}
	}
	return nil
}

// Reset drops every table and recreates the schema.
func (s *Store) Reset() error {
	return s.withTx(func(tx *sql.Tx) error {
		if err := dropAll(tx); err != nil {
			return err
		}
		return migrateV1(tx)
	})
}

// Restore replaces all data with the given seasons and tasks, keeping their
// identifiers. It runs in a single transaction.
func (s *Store) Restore(seasons []Season, tasks []Task) error {
	return s.withTx(func(tx *sql.Tx) error {
		if err := dropAll(tx); err != nil {
			return err
		}
		if err := migrateV1(tx); err != nil {
			return err
		}
		for i := range seasons {
			if err := insertSeason(tx, &seasons[i], true); err != nil {
				return err
			}
		}
		for i := range tasks {
			if err := insertTask(tx, &tasks[i], true); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) withTx(fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// DefaultDBPath returns ~/.config/lptrack/lptrack.db
func DefaultDBPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "lptrack", "lptrack.db"), nil
}

// Timestamps are stored as RFC 3339 text with the offset they were recorded in.

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func parseTime(col, v string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %s: %w", col, err)
	}
	return t, nil
}

func parseNullTime(col string, v sql.NullString) (*time.Time, error) {
	if !v.Valid {
		return nil, nil
	}
	t, err := parseTime(col, v.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
