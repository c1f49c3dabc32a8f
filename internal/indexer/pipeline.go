package indexer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"docqa/internal/contextutil"
	"docqa/internal/metrics"
	"docqa/internal/storage"
	"docqa/internal/vectorstore"
)

var (
	// ErrEmptyContent is returned when a document has no text after trimming.
	ErrEmptyContent = errors.New("document content is empty")
	// ErrNoChunksProduced is returned when segmentation yields nothing to embed.
	ErrNoChunksProduced = errors.New("no chunks produced from document")
	// ErrDocumentNotFound is returned for documents that are missing or owned
	// by another tenant. The two cases are indistinguishable to the caller.
	ErrDocumentNotFound = errors.New("document not found or access denied")
	// ErrTenantRequired is returned when an operation is not scoped to a tenant.
	ErrTenantRequired = errors.New("tenant id is required")
)

// Embedder maps text to a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Pipeline drives documents through segmentation, embedding and vector storage,
// and removes them again.
type Pipeline struct {
	docs        storage.DocumentStore
	embedder    Embedder
	vectorStore vectorstore.VectorStore
	collection  string
	segmenter   *Segmenter
	concurrency int
	metrics     *metrics.Metrics
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithConcurrency bounds the number of chunks embedded at once. Values below 2
// keep the loop sequential.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) {
		p.concurrency = n
	}
}

// WithMetrics records ingestion metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	docs storage.DocumentStore,
	embedder Embedder,
	vectorStore vectorstore.VectorStore,
	collection string,
	segmenter *Segmenter,
	opts ...Option,
) *Pipeline {
	if segmenter == nil {
		segmenter = NewSegmenter(DefaultChunkMaxLength, DefaultChunkOverlap)
	}
	p := &Pipeline{
		docs:        docs,
		embedder:    embedder,
		vectorStore: vectorStore,
		collection:  collection,
		segmenter:   segmenter,
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Ingest stores the document record, then embeds and upserts every chunk.
// Chunk failures are recorded in the result and do not fail the ingestion;
// only validation and document-store errors are returned.
func (p *Pipeline) Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	logger := contextutil.LoggerFromContext(ctx)
	started := time.Now()

	if req.TenantID == "" {
		return nil, ErrTenantRequired
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, ErrEmptyContent
	}

	chunks := p.segmenter.Split(req.Text)
	if len(chunks) == 0 {
		return nil, ErrNoChunksProduced
	}

	doc := &storage.DocumentRecord{
		TenantID:     req.TenantID,
		Filename:     req.Filename,
		ContentType:  req.ContentType,
		FileSize:     req.FileSize,
		OriginalText: req.Text,
		ChunksCount:  len(chunks),
	}
	if err := p.docs.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	outcomes := p.embedChunks(ctx, doc, chunks)

	result := &IngestResult{
		Document: doc,
		Outcomes: outcomes,
		Stats:    computeChunkStats(chunks),
	}
	for _, outcome := range outcomes {
		if outcome.Succeeded() {
			result.Embedded++
		} else {
			result.Failed++
		}
	}

	p.metrics.RecordIngestion(result.Embedded, result.Failed, time.Since(started))

	logger.InfoContext(ctx, "ingested document",
		"document_id", doc.ID,
		"filename", doc.Filename,
		"chunks", len(chunks),
		"embedded", result.Embedded,
		"failed", result.Failed,
		"tokens_mean", result.Stats.Mean,
	)
	return result, nil
}

// embedChunks processes every chunk and returns one outcome per chunk, in
// chunk order.
func (p *Pipeline) embedChunks(ctx context.Context, doc *storage.DocumentRecord, chunks []Chunk) []ChunkOutcome {
	outcomes := make([]ChunkOutcome, len(chunks))

	if p.concurrency < 2 {
		for i, chunk := range chunks {
			outcomes[i] = p.embedChunk(ctx, doc, chunk)
		}
		return outcomes
	}

	// Workers never return an error so one failed chunk does not cancel the rest.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, chunk := range chunks {
		g.Go(func() error {
			outcomes[i] = p.embedChunk(gctx, doc, chunk)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

// embedChunk embeds one chunk and writes it under a fresh point ID.
func (p *Pipeline) embedChunk(ctx context.Context, doc *storage.DocumentRecord, chunk Chunk) ChunkOutcome {
	logger := contextutil.LoggerFromContext(ctx)
	outcome := ChunkOutcome{Index: chunk.Index}

	vector, err := p.embedder.Embed(ctx, chunk.Text)
	if err != nil {
		outcome.Err = fmt.Errorf("failed to embed chunk: %w", err)
		logger.WarnContext(ctx, "chunk embedding failed", "document_id", doc.ID, "chunk_index", chunk.Index, "error", err)
		return outcome
	}

	record := vectorstore.Record{
		ID:     uuid.New().String(),
		Vector: vector,
		Payload: vectorstore.Payload{
			TenantID:   doc.TenantID,
			DocumentID: doc.ID,
			Filename:   doc.Filename,
			Text:       chunk.Text,
			ChunkIndex: chunk.Index,
			CreatedAt:  time.Now().UTC(),
		},
	}
	if err := p.vectorStore.Upsert(ctx, p.collection, []vectorstore.Record{record}); err != nil {
		outcome.Err = fmt.Errorf("failed to store chunk vector: %w", err)
		logger.WarnContext(ctx, "chunk upsert failed", "document_id", doc.ID, "chunk_index", chunk.Index, "error", err)
		return outcome
	}

	outcome.PointID = record.ID
	return outcome
}

// Delete removes a tenant's document record, then its embedding records.
// A vector-store failure after the record is gone is reported in the outcome
// rather than as an error.
func (p *Pipeline) Delete(ctx context.Context, documentID, tenantID string) (*DeleteOutcome, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if tenantID == "" {
		return nil, ErrTenantRequired
	}

	if _, err := p.docs.GetForTenant(ctx, documentID, tenantID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to look up document: %w", err)
	}

	if err := p.docs.DeleteForTenant(ctx, documentID, tenantID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to delete document: %w", err)
	}

	outcome := &DeleteOutcome{DocumentID: documentID, DocumentDeleted: true}

	filter := vectorstore.Filter{TenantID: tenantID, DocumentID: documentID}
	if err := p.vectorStore.DeleteByFilter(ctx, p.collection, filter); err != nil {
		outcome.VectorErr = err
		logger.WarnContext(ctx, "document deleted but its vectors were not", "document_id", documentID, "error", err)
		return outcome, nil
	}
	outcome.VectorsDeleted = true

	logger.InfoContext(ctx, "deleted document", "document_id", documentID)
	return outcome, nil
}

// List returns a tenant's documents, newest first.
func (p *Pipeline) List(ctx context.Context, tenantID string) ([]*storage.DocumentRecord, error) {
	if tenantID == "" {
		return nil, ErrTenantRequired
	}
	docs, err := p.docs.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, nil
}
