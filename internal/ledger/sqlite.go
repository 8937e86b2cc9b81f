package ledger

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteLedger implements Ledger using SQLite.
type SQLiteLedger struct {
	db   *sql.DB
	path string
}

// NewSQLiteLedger creates a new SQLite ledger instance.
func NewSQLiteLedger(dbPath string) (*SQLiteLedger, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &SQLiteLedger{
		db:   db,
		path: dbPath,
	}, nil
}

// Initialize creates the database schema.
func (s *SQLiteLedger) Initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS calls (
		id TEXT PRIMARY KEY,
		operation TEXT NOT NULL,
		provider TEXT NOT NULL,
		model TEXT NOT NULL DEFAULT '',
		status_code INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		duration_ms INTEGER NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_calls_created_at ON calls(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_calls_provider ON calls(provider);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteLedger) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *SQLiteLedger) Path() string {
	return s.path
}

// Record stores one call.
func (s *SQLiteLedger) Record(e *Entry) error {
	query := `
	INSERT INTO calls (id, operation, provider, model, status_code, error, duration_ms, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query,
		e.ID, e.Operation, e.Provider, e.Model, e.StatusCode, e.Error, e.DurationMs, e.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert call: %w", err)
	}
	return nil
}

// Recent returns up to limit calls, newest first.
func (s *SQLiteLedger) Recent(limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(`
	SELECT id, operation, provider, model, status_code, error, duration_ms, created_at
	FROM calls
	ORDER BY created_at DESC
	LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query calls: %w", err)
	}
	defer rows.Close()

	entries := []*Entry{}
	for rows.Next() {
		var (
			e         Entry
			createdAt time.Time
		)
		if err := rows.Scan(&e.ID, &e.Operation, &e.Provider, &e.Model, &e.StatusCode, &e.Error, &e.DurationMs, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan call: %w", err)
		}
		e.CreatedAt = createdAt
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// Summary returns per-provider call counts ordered by provider name.
func (s *SQLiteLedger) Summary() ([]*ProviderSummary, error) {
	rows, err := s.db.Query(`
	SELECT provider,
		COUNT(*),
		SUM(CASE WHEN error != '' THEN 1 ELSE 0 END),
		AVG(duration_ms)
	FROM calls
	GROUP BY provider
	ORDER BY provider
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize calls: %w", err)
	}
	defer rows.Close()

	summaries := []*ProviderSummary{}
	for rows.Next() {
		var ps ProviderSummary
		if err := rows.Scan(&ps.Provider, &ps.Calls, &ps.Failures, &ps.AvgDurationMs); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		summaries = append(summaries, &ps)
	}
	return summaries, rows.Err()
}
