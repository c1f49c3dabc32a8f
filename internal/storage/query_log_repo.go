package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_query_log_store.go -package=mocks docqa/internal/storage QueryLogStore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// QueryLogStore defines the interface for query log storage operations.
type QueryLogStore interface {
	// Insert stores a query log entry.
	Insert(ctx context.Context, entry *QueryLogRecord) error
	// ListByTenant returns a tenant's most recent entries, newest first.
	ListByTenant(ctx context.Context, tenantID string, limit int) ([]*QueryLogRecord, error)
}

// QueryLogRepo provides methods for query log operations.
// It implements the QueryLogStore interface.
type QueryLogRepo struct {
	db *sql.DB
}

// NewQueryLogRepo creates a new QueryLogRepo.
func NewQueryLogRepo(db *sql.DB) *QueryLogRepo {
	return &QueryLogRepo{db: db}
}

// Insert stores a query log entry.
func (r *QueryLogRepo) Insert(ctx context.Context, entry *QueryLogRecord) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO query_logs (id, tenant_id, question, answer, response_time_ms, retrieved_chunks_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.TenantID, entry.Question, entry.Answer, entry.ResponseTimeMs, entry.RetrievedChunksCount,
		formatTimestamp(entry.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert query log: %w", err)
	}
	return nil
}

// ListByTenant returns up to limit entries for tenantID, newest first.
func (r *QueryLogRepo) ListByTenant(ctx context.Context, tenantID string, limit int) ([]*QueryLogRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, tenant_id, question, answer, response_time_ms, retrieved_chunks_count, created_at
		 FROM query_logs WHERE tenant_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		tenantID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query logs: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	entries := []*QueryLogRecord{}
	for rows.Next() {
		var entry QueryLogRecord
		var createdAtStr string
		if err := rows.Scan(&entry.ID, &entry.TenantID, &entry.Question, &entry.Answer,
			&entry.ResponseTimeMs, &entry.RetrievedChunksCount, &createdAtStr); err != nil {
			return nil, fmt.Errorf("failed to scan query log: %w", err)
		}
		if entry.CreatedAt, err = parseTimestamp(createdAtStr); err != nil {
			return nil, err
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return entries, nil
}
