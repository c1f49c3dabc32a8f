package rag

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_engine.go -package=mocks docqa/internal/rag Engine

import (
	"context"
	"time"

	"docqa/internal/contextutil"
	"docqa/internal/metrics"
	"docqa/internal/storage"
)

// DefaultAskScoreThreshold is the minimum score for chunks used in answers.
const DefaultAskScoreThreshold float32 = 0.1

// Engine provides RAG (Retrieval-Augmented Generation) functionality.
type Engine interface {
	// Ask answers a question from the tenant's documents and logs the query.
	Ask(ctx context.Context, req AskRequest) (*AskResponse, error)
	// History lists the tenant's logged queries, newest first.
	History(ctx context.Context, tenantID string, limit int) ([]*storage.QueryLogRecord, error)
}

// EngineConfig holds retrieval parameters for answering.
type EngineConfig struct {
	Limit          int
	ScoreThreshold float32
}

// ragEngine implements the Engine interface.
type ragEngine struct {
	retriever   *Retriever
	synthesizer *Synthesizer
	queryLogs   storage.QueryLogStore
	cfg         EngineConfig
	metrics     *metrics.Metrics
}

// NewEngine creates a new RAG engine. queryLogs may be nil to disable query logging.
func NewEngine(
	retriever *Retriever,
	synthesizer *Synthesizer,
	queryLogs storage.QueryLogStore,
	cfg EngineConfig,
	m *metrics.Metrics,
) Engine {
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultRetrievalLimit
	}
	return &ragEngine{
		retriever:   retriever,
		synthesizer: synthesizer,
		queryLogs:   queryLogs,
		cfg:         cfg,
		metrics:     m,
	}
}

// Ask retrieves context, synthesizes an answer and logs the query.
// A failure to log is logged and otherwise ignored.
func (e *ragEngine) Ask(ctx context.Context, req AskRequest) (resp *AskResponse, err error) {
	logger := contextutil.LoggerFromContext(ctx)
	started := time.Now()
	defer func() {
		e.metrics.RecordAsk(time.Since(started), err)
	}()

	logger.InfoContext(ctx, "RAG query started", "question_length", len(req.Question))

	retrieval, err := e.retriever.Retrieve(ctx, RetrieveRequest{
		Question:       req.Question,
		TenantID:       req.TenantID,
		Limit:          e.cfg.Limit,
		ScoreThreshold: e.cfg.ScoreThreshold,
	})
	if err != nil {
		return nil, err
	}

	answer, err := e.synthesizer.Synthesize(ctx, req.Question, retrieval.Chunks)
	if err != nil {
		logger.ErrorContext(ctx, "failed to generate answer", "error", err)
		return nil, err
	}

	resp = &AskResponse{
		Question:        req.Question,
		Answer:          answer,
		RetrievedChunks: retrieval.Chunks,
		ResponseTimeMs:  time.Since(started).Milliseconds(),
	}

	e.logQuery(ctx, req.TenantID, resp)

	logger.InfoContext(ctx, "RAG query completed",
		"chunks_used", len(resp.RetrievedChunks),
		"answer_length", len(answer),
		"response_time_ms", resp.ResponseTimeMs,
	)
	return resp, nil
}

func (e *ragEngine) logQuery(ctx context.Context, tenantID string, resp *AskResponse) {
	if e.queryLogs == nil {
		return
	}
	record := &storage.QueryLogRecord{
		TenantID:             tenantID,
		Question:             resp.Question,
		Answer:               resp.Answer,
		ResponseTimeMs:       resp.ResponseTimeMs,
		RetrievedChunksCount: len(resp.RetrievedChunks),
	}
	if err := e.queryLogs.Insert(ctx, record); err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to log query", "error", err)
	}
}

// History lists the tenant's logged queries.
func (e *ragEngine) History(ctx context.Context, tenantID string, limit int) ([]*storage.QueryLogRecord, error) {
	if tenantID == "" {
		return nil, ErrTenantRequired
	}
	if e.queryLogs == nil {
		return []*storage.QueryLogRecord{}, nil
	}
	return e.queryLogs.ListByTenant(ctx, tenantID, limit)
}
