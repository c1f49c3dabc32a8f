package indexer

import (
	"docqa/internal/storage"
)

// Chunk is a span of a document's text produced by the segmenter.
type Chunk struct {
	Index     int    // Position within the document (starts at 0)
	Text      string // Trimmed chunk text
	StartChar int    // Rune offset where the untrimmed span starts
	EndChar   int    // Rune offset where the untrimmed span ends (exclusive)
}

// IngestRequest describes a document whose text has already been extracted.
type IngestRequest struct {
	TenantID    string
	Filename    string
	ContentType string
	FileSize    int64
	Text        string
}

// ChunkOutcome records what happened to a single chunk during ingestion.
type ChunkOutcome struct {
	Index   int
	PointID string // Empty when the chunk failed
	Err     error
}

// Succeeded reports whether the chunk was embedded and stored.
func (o ChunkOutcome) Succeeded() bool {
	return o.Err == nil
}

// IngestResult is the batch outcome of an ingestion.
type IngestResult struct {
	Document *storage.DocumentRecord
	Outcomes []ChunkOutcome
	Embedded int
	Failed   int
	Stats    ChunkTokenStats
}

// DeleteOutcome reports how far a two-phase delete got.
// VectorErr is set when the document record was removed but its embedding
// records could not be; the orphans are unreachable by tenant-scoped lookups.
type DeleteOutcome struct {
	DocumentID      string
	DocumentDeleted bool
	VectorsDeleted  bool
	VectorErr       error
}

// Partial reports whether the delete left orphaned embedding records behind.
func (o *DeleteOutcome) Partial() bool {
	return o.DocumentDeleted && !o.VectorsDeleted
}
