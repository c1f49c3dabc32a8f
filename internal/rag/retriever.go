package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"docqa/internal/contextutil"
	"docqa/internal/metrics"
	"docqa/internal/vectorstore"
)

// DefaultRetrievalLimit is used when a request does not set a limit.
const DefaultRetrievalLimit = 5

var (
	// ErrEmptyQuery is returned for blank questions.
	ErrEmptyQuery = errors.New("query text is empty")
	// ErrTenantRequired is returned when a retrieval is not scoped to a tenant.
	ErrTenantRequired = errors.New("tenant id is required")
)

// Embedder maps text to a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Retriever embeds a question and searches the tenant's embedding records.
type Retriever struct {
	embedder     Embedder
	vectorStore  vectorstore.VectorStore
	collection   string
	defaultLimit int
	metrics      *metrics.Metrics
}

// NewRetriever creates a new Retriever. A non-positive defaultLimit falls back
// to DefaultRetrievalLimit.
func NewRetriever(embedder Embedder, vectorStore vectorstore.VectorStore, collection string, defaultLimit int, m *metrics.Metrics) *Retriever {
	if defaultLimit <= 0 {
		defaultLimit = DefaultRetrievalLimit
	}
	return &Retriever{
		embedder:     embedder,
		vectorStore:  vectorStore,
		collection:   collection,
		defaultLimit: defaultLimit,
		metrics:      m,
	}
}

// Retrieve returns up to req.Limit chunks owned by req.TenantID whose score is
// at least req.ScoreThreshold, in the vector store's descending score order.
func (r *Retriever) Retrieve(ctx context.Context, req RetrieveRequest) (*Retrieval, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if strings.TrimSpace(req.Question) == "" {
		return nil, ErrEmptyQuery
	}
	if req.TenantID == "" {
		return nil, ErrTenantRequired
	}
	limit := req.Limit
	if limit <= 0 {
		limit = r.defaultLimit
	}

	started := time.Now()
	retrieval, err := r.search(ctx, req, limit)
	r.metrics.RecordRetrieval(len(retrieval.Chunks), time.Since(started), err)
	if err != nil {
		logger.ErrorContext(ctx, "retrieval failed", "error", err)
		return nil, err
	}

	scores := make([]float32, 0, len(retrieval.Chunks))
	for _, chunk := range retrieval.Chunks {
		scores = append(scores, chunk.Score)
	}
	logger.InfoContext(ctx, "retrieval completed",
		"limit", limit,
		"score_threshold", req.ScoreThreshold,
		"results", len(retrieval.Chunks),
	)
	logger.DebugContext(ctx, "retrieval scores", "scores", scores)

	return retrieval, nil
}

// search always returns a non-nil Retrieval so callers can record metrics
// before checking err.
func (r *Retriever) search(ctx context.Context, req RetrieveRequest, limit int) (*Retrieval, error) {
	retrieval := &Retrieval{Chunks: []RetrievedChunk{}, ScoreThreshold: req.ScoreThreshold}

	vector, err := r.embedder.Embed(ctx, req.Question)
	if err != nil {
		return retrieval, fmt.Errorf("failed to embed question: %w", err)
	}
	retrieval.QueryVector = vector

	filter := vectorstore.Filter{TenantID: req.TenantID}
	results, err := r.vectorStore.Search(ctx, r.collection, vector, filter, limit, req.ScoreThreshold)
	if err != nil {
		return retrieval, fmt.Errorf("failed to search vector store: %w", err)
	}

	for _, result := range results {
		// Adapters may not enforce the threshold or the tenant filter themselves.
		if result.Score < req.ScoreThreshold || result.Payload.TenantID != req.TenantID {
			continue
		}
		retrieval.Chunks = append(retrieval.Chunks, RetrievedChunk{
			Text:  result.Payload.Text,
			Score: result.Score,
			Metadata: ChunkMetadata{
				DocumentID: result.Payload.DocumentID,
				Filename:   result.Payload.Filename,
				ChunkIndex: result.Payload.ChunkIndex,
			},
		})
		if len(retrieval.Chunks) == limit {
			break
		}
	}
	return retrieval, nil
}
