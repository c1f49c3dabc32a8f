package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// sqliteTimeLayout matches CURRENT_TIMESTAMP output and keeps sub-second
// precision for rows written from Go, so created_at sorts as text.
const sqliteTimeLayout = "2006-01-02 15:04:05.999999999"

// New opens a SQLite database connection at the given path.
// It enables foreign keys and sets connection pool settings.
func New(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	// Enable foreign keys (disabled by default in SQLite)
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate runs database migrations to create the required tables.
// It is idempotent and can be run multiple times safely.
func Migrate(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			hashed_password TEXT NOT NULL,
			is_active INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			filename TEXT NOT NULL,
			content_type TEXT NOT NULL,
			file_size INTEGER NOT NULL,
			original_text TEXT NOT NULL,
			chunks_count INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE INDEX IF NOT EXISTS idx_documents_tenant ON documents (tenant_id, created_at);`,
		`CREATE TABLE IF NOT EXISTS query_logs (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			question TEXT NOT NULL,
			answer TEXT NOT NULL,
			response_time_ms INTEGER NOT NULL,
			retrieved_chunks_count INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);`,
		`CREATE INDEX IF NOT EXISTS idx_query_logs_tenant ON query_logs (tenant_id, created_at);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}

// formatTimestamp renders t for a DATETIME column.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

// parseTimestamp parses a DATETIME column, falling back to RFC3339.
func parseTimestamp(raw string) (time.Time, error) {
	if t, err := time.Parse(sqliteTimeLayout, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", raw, err)
	}
	return t, nil
}
