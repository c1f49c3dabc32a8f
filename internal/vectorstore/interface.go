package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_store.go -package=mocks docqa/internal/vectorstore VectorStore

import (
	"context"
	"errors"
	"time"
)

// ErrTenantRequired is returned when a search or delete is not scoped to a tenant.
var ErrTenantRequired = errors.New("vector store filter requires a tenant id")

// Payload keys as stored in the index.
const (
	FieldTenantID   = "tenant_id"
	FieldDocumentID = "document_id"
	FieldFilename   = "filename"
	FieldText       = "text"
	FieldChunkIndex = "chunk_index"
	FieldCreatedAt  = "created_at"
)

// Payload is the metadata stored alongside every embedding.
type Payload struct {
	TenantID   string
	DocumentID string
	Filename   string
	Text       string
	ChunkIndex int
	CreatedAt  time.Time
}

// Record is a single embedding to store.
type Record struct {
	ID      string // UUID, fresh per write
	Vector  []float32
	Payload Payload
}

// Filter restricts searches and deletes. TenantID is mandatory; DocumentID is optional.
type Filter struct {
	TenantID   string
	DocumentID string
}

// Validate reports ErrTenantRequired when the filter is not tenant-scoped.
func (f Filter) Validate() error {
	if f.TenantID == "" {
		return ErrTenantRequired
	}
	return nil
}

// SearchResult represents a search result from vector search.
type SearchResult struct {
	ID      string
	Score   float32
	Payload Payload
}

// VectorStore defines the interface for vector storage operations.
type VectorStore interface {
	// Upsert inserts or updates records in the collection.
	Upsert(ctx context.Context, collection string, records []Record) error

	// Search returns up to limit records matching filter whose similarity to
	// query is at least scoreThreshold, in descending score order.
	Search(ctx context.Context, collection string, query []float32, filter Filter, limit int, scoreThreshold float32) ([]SearchResult, error)

	// DeleteByFilter removes every record matching filter.
	DeleteByFilter(ctx context.Context, collection string, filter Filter) error
}
