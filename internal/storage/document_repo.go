package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_document_store.go -package=mocks docqa/internal/storage DocumentStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// DocumentStore defines the interface for document storage operations.
// Every lookup is scoped to a tenant; a document owned by another tenant is
// reported as ErrNotFound.
type DocumentStore interface {
	// Create inserts a new document. ID and CreatedAt are assigned when empty.
	Create(ctx context.Context, doc *DocumentRecord) error
	// GetForTenant gets a document by ID if it belongs to tenantID.
	GetForTenant(ctx context.Context, id, tenantID string) (*DocumentRecord, error)
	// ListByTenant lists a tenant's documents, newest first, without their text.
	ListByTenant(ctx context.Context, tenantID string) ([]*DocumentRecord, error)
	// DeleteForTenant deletes a document by ID if it belongs to tenantID.
	DeleteForTenant(ctx context.Context, id, tenantID string) error
}

// DocumentRepo provides methods for document operations.
// It implements the DocumentStore interface.
type DocumentRepo struct {
	db *sql.DB
}

// NewDocumentRepo creates a new DocumentRepo.
func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

// Create inserts a new document.
func (r *DocumentRepo) Create(ctx context.Context, doc *DocumentRecord) error {
	if doc.TenantID == "" {
		return fmt.Errorf("document tenant ID is required")
	}
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO documents (id, tenant_id, filename, content_type, file_size, original_text, chunks_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.TenantID, doc.Filename, doc.ContentType, doc.FileSize, doc.OriginalText, doc.ChunksCount,
		formatTimestamp(doc.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}

	return nil
}

// GetForTenant gets a document by ID if it belongs to tenantID.
// Returns nil and ErrNotFound if not found.
func (r *DocumentRepo) GetForTenant(ctx context.Context, id, tenantID string) (*DocumentRecord, error) {
	var doc DocumentRecord
	var createdAtStr string

	err := r.db.QueryRowContext(ctx,
		`SELECT id, tenant_id, filename, content_type, file_size, original_text, chunks_count, created_at
		 FROM documents WHERE id = ? AND tenant_id = ?`,
		id, tenantID,
	).Scan(&doc.ID, &doc.TenantID, &doc.Filename, &doc.ContentType, &doc.FileSize, &doc.OriginalText, &doc.ChunksCount, &createdAtStr)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query document: %w", err)
	}

	if doc.CreatedAt, err = parseTimestamp(createdAtStr); err != nil {
		return nil, err
	}

	return &doc, nil
}

// ListByTenant lists a tenant's documents, newest first.
// OriginalText is left empty.
func (r *DocumentRepo) ListByTenant(ctx context.Context, tenantID string) ([]*DocumentRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, tenant_id, filename, content_type, file_size, chunks_count, created_at
		 FROM documents WHERE tenant_id = ? ORDER BY created_at DESC, rowid DESC`,
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	docs := []*DocumentRecord{}
	for rows.Next() {
		var doc DocumentRecord
		var createdAtStr string
		if err := rows.Scan(&doc.ID, &doc.TenantID, &doc.Filename, &doc.ContentType, &doc.FileSize, &doc.ChunksCount, &createdAtStr); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		if doc.CreatedAt, err = parseTimestamp(createdAtStr); err != nil {
			return nil, err
		}
		docs = append(docs, &doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return docs, nil
}

// DeleteForTenant deletes a document by ID if it belongs to tenantID.
// Returns ErrNotFound if no row matched.
func (r *DocumentRepo) DeleteForTenant(ctx context.Context, id, tenantID string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ? AND tenant_id = ?", id, tenantID)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}
