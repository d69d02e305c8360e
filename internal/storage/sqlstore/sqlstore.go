// Package sqlstore provides the SQL storage implementation. The same queries
// run on SQLite (modernc.org/sqlite) and Postgres (pgx stdlib driver).
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect selects placeholder style and driver.
type Dialect int

// Supported dialects
const (
	SQLite Dialect = iota
	Postgres
)

// timeLayout is fixed-width so that stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000Z"

// Store implements the storage.Storage interface on database/sql.
type Store struct {
	db      *sql.DB
	dialect Dialect
	mu      sync.RWMutex
	closed  bool
}

// Open picks the dialect from dsn: postgres:// and postgresql:// URLs go to
// Postgres, anything else is treated as a SQLite file path.
func Open(dsn string) (*Store, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return NewPostgres(dsn)
	}
	return NewSQLite(dsn)
}

// NewSQLite opens (or creates) a SQLite database file.
func NewSQLite(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite works best with single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	return &Store{db: db, dialect: SQLite}, nil
}

// NewPostgres opens a Postgres connection pool through the pgx stdlib driver.
func NewPostgres(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	return &Store{db: db, dialect: Postgres}, nil
}

// Dialect reports which database the store talks to.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// schema is valid for both dialects. Timestamps are TEXT in timeLayout and
// JSON documents are TEXT.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id            TEXT PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at    TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		token_hash TEXT PRIMARY KEY,
		account_id TEXT NOT NULL,
		created_at TEXT NOT NULL,
		expires_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_account ON sessions(account_id)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at)`,

	`CREATE TABLE IF NOT EXISTS profiles (
		id             TEXT PRIMARY KEY,
		display_name   TEXT,
		avatar_url     TEXT,
		timezone       TEXT,
		locale         TEXT,
		bio            TEXT,
		website        TEXT,
		username       TEXT UNIQUE,
		public_profile INTEGER NOT NULL DEFAULT 0,
		theme          TEXT NOT NULL DEFAULT 'light',
		created_at     TEXT NOT NULL,
		updated_at     TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS daily_usage (
		account_id  TEXT NOT NULL,
		day         TEXT NOT NULL,
		token_total BIGINT NOT NULL DEFAULT 0,
		updated_at  TEXT NOT NULL,
		PRIMARY KEY (account_id, day)
	)`,

	`CREATE TABLE IF NOT EXISTS runs (
		id          TEXT PRIMARY KEY,
		account_id  TEXT NOT NULL,
		type        TEXT NOT NULL,
		source      TEXT NOT NULL,
		input_text  TEXT NOT NULL,
		output_text TEXT,
		output_json TEXT,
		params      TEXT NOT NULL,
		model       TEXT NOT NULL,
		token_in    BIGINT NOT NULL DEFAULT 0,
		token_out   BIGINT NOT NULL DEFAULT 0,
		token_total BIGINT NOT NULL DEFAULT 0,
		latency_ms  BIGINT NOT NULL DEFAULT 0,
		created_at  TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_account_type ON runs(account_id, type, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at)`,

	`CREATE TABLE IF NOT EXISTS collections (
		id         TEXT PRIMARY KEY,
		account_id TEXT NOT NULL,
		name       TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_collections_account ON collections(account_id, created_at)`,

	`CREATE TABLE IF NOT EXISTS collection_items (
		id            TEXT PRIMARY KEY,
		collection_id TEXT NOT NULL,
		run_id        TEXT,
		type          TEXT NOT NULL,
		source        TEXT NOT NULL,
		input_text    TEXT NOT NULL,
		output_text   TEXT,
		output_json   TEXT,
		params        TEXT NOT NULL,
		created_at    TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_items_collection ON collection_items(collection_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_items_run ON collection_items(run_id)`,
}

// Migrate creates tables and indexes that do not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStorageClosed
	}

	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrStorageClosed
	}
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}

// rebind rewrites ? placeholders to $1, $2, ... for Postgres.
func (s *Store) rebind(query string) string {
	if s.dialect != Postgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// generateID creates a new unique ID with a prefix
func generateID(prefix string) string {
	return prefix + "_" + uuid.New().String()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// nullString maps "" to NULL.
func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func ptrValue(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

// rawJSON returns the stored document, or nil for NULL.
func rawJSON(ns sql.NullString) []byte {
	if !ns.Valid {
		return nil
	}
	return []byte(ns.String)
}

// jsonText maps an empty or literal null document to NULL.
func jsonText(doc []byte) sql.NullString {
	if len(doc) == 0 || string(doc) == "null" {
		return sql.NullString{}
	}
	return sql.NullString{String: string(doc), Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
