package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_document_service.go -package=mocks docqa/internal/service DocumentService

import (
	"context"
	"fmt"
	"strings"

	"docqa/internal/contextutil"
	"docqa/internal/extract"
	"docqa/internal/indexer"
	"docqa/internal/rag"
	"docqa/internal/storage"
)

// Defaults for the diagnostic query.
const (
	DefaultQueryLimit          = 10
	DefaultQueryScoreThreshold = float32(0.01)
	embeddingPreviewSize       = 5
)

// UploadRequest is a file submitted for ingestion.
type UploadRequest struct {
	TenantID    string
	Filename    string
	ContentType string
	Data        []byte
}

// QueryRequest is a retrieval-only diagnostic query.
type QueryRequest struct {
	TenantID       string
	Query          string
	Limit          int
	ScoreThreshold *float32 // nil uses the configured default
}

// QueryResult exposes what the retriever saw for a query.
type QueryResult struct {
	Query              string               `json:"query"`
	EmbeddingPreview   []float32            `json:"embedding_preview"`
	ChunksFound        int                  `json:"chunks_found"`
	RetrievedChunks    []rag.RetrievedChunk `json:"retrieved_chunks"`
	ScoreThresholdUsed float32              `json:"score_threshold_used"`
}

// DocumentService manages a tenant's documents.
type DocumentService interface {
	// Upload validates, extracts and ingests a file.
	Upload(ctx context.Context, req UploadRequest) (*indexer.IngestResult, error)
	// List returns the tenant's documents, newest first.
	List(ctx context.Context, tenantID string) ([]*storage.DocumentRecord, error)
	// Delete removes a tenant's document and its embedding records.
	Delete(ctx context.Context, tenantID, documentID string) (*indexer.DeleteOutcome, error)
	// Query runs a retrieval without answer generation.
	Query(ctx context.Context, req QueryRequest) (*QueryResult, error)
}

// DocumentConfig holds upload and diagnostic query limits.
type DocumentConfig struct {
	MaxFileSizeBytes    int64
	QueryLimit          int
	QueryScoreThreshold float32
}

// documentService implements DocumentService.
type documentService struct {
	extractor extract.Extractor
	pipeline  *indexer.Pipeline
	retriever *rag.Retriever
	cfg       DocumentConfig
}

// NewDocumentService creates a new DocumentService.
func NewDocumentService(extractor extract.Extractor, pipeline *indexer.Pipeline, retriever *rag.Retriever, cfg DocumentConfig) DocumentService {
	if cfg.QueryLimit <= 0 {
		cfg.QueryLimit = DefaultQueryLimit
	}
	return &documentService{
		extractor: extractor,
		pipeline:  pipeline,
		retriever: retriever,
		cfg:       cfg,
	}
}

// ResolveContentType normalizes the declared media type, inferring it from
// the filename when the client sent none or a generic one.
func ResolveContentType(filename, declared string) string {
	mediaType := extract.NormalizeMediaType(declared)
	if mediaType == "" || mediaType == "application/octet-stream" {
		if inferred := extract.MediaTypeForFilename(filename); inferred != "" {
			return inferred
		}
	}
	return mediaType
}

// validateUpload rejects uploads before any external call is made.
func (s *documentService) validateUpload(req UploadRequest) error {
	if strings.TrimSpace(req.Filename) == "" {
		return &ValidationError{Field: "filename", Message: "filename is required"}
	}
	if s.cfg.MaxFileSizeBytes > 0 && int64(len(req.Data)) > s.cfg.MaxFileSizeBytes {
		return fmt.Errorf("%w: exceeds %dMB limit", ErrFileTooLarge, s.cfg.MaxFileSizeBytes/(1024*1024))
	}
	if !extract.IsSupported(req.ContentType) {
		return &ValidationError{
			Field:   "file",
			Message: "unsupported file type. Allowed types: " + strings.Join(extract.SupportedMediaTypes(), ", "),
		}
	}
	return nil
}

// Upload validates, extracts and ingests a file.
func (s *documentService) Upload(ctx context.Context, req UploadRequest) (*indexer.IngestResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	req.ContentType = ResolveContentType(req.Filename, req.ContentType)
	if err := s.validateUpload(req); err != nil {
		logger.WarnContext(ctx, "upload rejected", "filename", req.Filename, "content_type", req.ContentType, "error", err)
		return nil, err
	}

	text, err := s.extractor.Extract(ctx, req.Data, req.ContentType)
	if err != nil {
		logger.WarnContext(ctx, "text extraction failed", "filename", req.Filename, "error", err)
		return nil, WrapError(err, "failed to extract text")
	}

	result, err := s.pipeline.Ingest(ctx, indexer.IngestRequest{
		TenantID:    req.TenantID,
		Filename:    req.Filename,
		ContentType: req.ContentType,
		FileSize:    int64(len(req.Data)),
		Text:        text,
	})
	if err != nil {
		logger.ErrorContext(ctx, "ingestion failed", "filename", req.Filename, "error", err)
		return nil, WrapError(err, "failed to ingest document")
	}

	if result.Failed > 0 {
		logger.WarnContext(ctx, "document ingested with failed chunks",
			"document_id", result.Document.ID,
			"failed", result.Failed,
			"embedded", result.Embedded,
		)
	}
	return result, nil
}

// List returns the tenant's documents.
func (s *documentService) List(ctx context.Context, tenantID string) ([]*storage.DocumentRecord, error) {
	docs, err := s.pipeline.List(ctx, tenantID)
	if err != nil {
		return nil, WrapError(err, "failed to list documents")
	}
	return docs, nil
}

// Delete removes a tenant's document.
func (s *documentService) Delete(ctx context.Context, tenantID, documentID string) (*indexer.DeleteOutcome, error) {
	if strings.TrimSpace(documentID) == "" {
		return nil, &ValidationError{Field: "document_id", Message: "cannot be empty"}
	}
	outcome, err := s.pipeline.Delete(ctx, documentID, tenantID)
	if err != nil {
		return nil, WrapError(err, "failed to delete document")
	}
	return outcome, nil
}

// Query runs a retrieval and reports the first values of the query vector.
func (s *documentService) Query(ctx context.Context, req QueryRequest) (*QueryResult, error) {
	threshold := s.cfg.QueryScoreThreshold
	if req.ScoreThreshold != nil {
		threshold = *req.ScoreThreshold
	}
	limit := req.Limit
	if limit <= 0 {
		limit = s.cfg.QueryLimit
	}

	retrieval, err := s.retriever.Retrieve(ctx, rag.RetrieveRequest{
		Question:       req.Query,
		TenantID:       req.TenantID,
		Limit:          limit,
		ScoreThreshold: threshold,
	})
	if err != nil {
		return nil, WrapError(err, "failed to test retrieval")
	}

	preview := retrieval.QueryVector
	if len(preview) > embeddingPreviewSize {
		preview = preview[:embeddingPreviewSize]
	}

	return &QueryResult{
		Query:              req.Query,
		EmbeddingPreview:   preview,
		ChunksFound:        len(retrieval.Chunks),
		RetrievedChunks:    retrieval.Chunks,
		ScoreThresholdUsed: threshold,
	}, nil
}
