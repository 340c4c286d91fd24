package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrVersionConflict is returned by a compare-and-swap whose expected
	// version no longer matches the stored row.
	ErrVersionConflict = errors.New("store: version conflict")
)

// Store holds the database handle and provides access to repositories.
type Store struct {
	db  *sql.DB
	seq *sequenceCounter
}

// builder renders SQL in the SQLite dialect.
func builder() *entsql.DialectBuilder {
	return entsql.Dialect(dialect.SQLite)
}

// Open creates a new Store connected to the SQLite database at dsn.
// It applies recommended pragmas and creates missing tables.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite allows one writer; a single connection keeps pragmas and
	// in-memory databases consistent across calls.
	db.SetMaxOpenConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	if err := migrate(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}

	seq, err := newSequenceCounter(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, seq: seq}, nil
}

// DB returns the underlying *sql.DB for raw queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ReviewRepo returns a ReviewRepo backed by this store.
func (s *Store) ReviewRepo() ReviewRepo {
	return &reviewRepo{db: s.db}
}

// QuizRepo returns a QuizRepo backed by this store.
func (s *Store) QuizRepo() QuizRepo {
	return &quizRepo{db: s.db, seq: s.seq}
}

// PerformanceRepo returns a PerformanceRepo backed by this store.
func (s *Store) PerformanceRepo() PerformanceRepo {
	return &performanceRepo{db: s.db, seq: s.seq}
}

// SnapshotRepo returns a SnapshotRepo backed by this store.
func (s *Store) SnapshotRepo() SnapshotRepo {
	return &snapshotRepo{db: s.db, seq: s.seq}
}

// applyPragmas configures SQLite for optimal single-user performance.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS review_items (
		id TEXT PRIMARY KEY,
		learner_id TEXT NOT NULL,
		topic TEXT NOT NULL,
		level TEXT NOT NULL,
		last_review TEXT NOT NULL,
		next_review TEXT NOT NULL,
		interval_days INTEGER NOT NULL CHECK (interval_days >= 1),
		ease_factor REAL NOT NULL CHECK (ease_factor >= 1.3),
		review_count INTEGER NOT NULL CHECK (review_count >= 0),
		version INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE (learner_id, topic)
	)`,
	`CREATE INDEX IF NOT EXISTS review_items_due ON review_items (learner_id, next_review)`,
	`CREATE TABLE IF NOT EXISTS quiz_results (
		id TEXT PRIMARY KEY,
		sequence INTEGER NOT NULL,
		learner_id TEXT NOT NULL,
		score REAL NOT NULL CHECK (score >= 0 AND score <= 1),
		total_questions INTEGER NOT NULL CHECK (total_questions > 0),
		difficulty TEXT NOT NULL,
		taken_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS quiz_results_learner ON quiz_results (learner_id, sequence)`,
	`CREATE TABLE IF NOT EXISTS performance_records (
		id TEXT PRIMARY KEY,
		sequence INTEGER NOT NULL,
		learner_id TEXT NOT NULL,
		topic TEXT NOT NULL,
		score REAL NOT NULL CHECK (score >= 0 AND score <= 1),
		recorded_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS performance_records_learner ON performance_records (learner_id, sequence)`,
	`CREATE TABLE IF NOT EXISTS snapshots (
		id TEXT PRIMARY KEY,
		sequence INTEGER NOT NULL,
		learner_id TEXT NOT NULL,
		taken_at TEXT NOT NULL,
		data TEXT NOT NULL
	)`,
}

func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// DefaultDBPath resolves the database file path in priority order:
// 1. ADAPTIVE_DB environment variable
// 2. $XDG_DATA_HOME/adaptive/adaptive.db
// 3. ~/.local/share/adaptive/adaptive.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("ADAPTIVE_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "adaptive", "adaptive.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}
