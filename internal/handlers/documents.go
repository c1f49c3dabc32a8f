package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"docqa/internal/contextutil"
	"docqa/internal/service"
	"docqa/internal/storage"
)

// multipartOverhead leaves room for the form boundary and headers on top of
// the file size limit.
const multipartOverhead = 1 << 20

// DocumentsHandler handles document upload, listing, deletion and
// diagnostic queries for the authenticated tenant.
type DocumentsHandler struct {
	documents        service.DocumentService
	maxFileSizeBytes int64
}

// NewDocumentsHandler creates a new DocumentsHandler.
func NewDocumentsHandler(documents service.DocumentService, maxFileSizeBytes int64) *DocumentsHandler {
	return &DocumentsHandler{
		documents:        documents,
		maxFileSizeBytes: maxFileSizeBytes,
	}
}

// DocumentResponse describes a stored document.
type DocumentResponse struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	FileSize    int64     `json:"file_size"`
	ChunksCount int       `json:"chunks_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// UploadResponse is returned for a successful upload.
type UploadResponse struct {
	DocumentResponse
	ChunksEmbedded int `json:"chunks_embedded"`
	ChunksFailed   int `json:"chunks_failed"`
}

// DeleteResponse is returned for a successful delete.
type DeleteResponse struct {
	Message        string `json:"message"`
	DocumentID     string `json:"document_id"`
	VectorsDeleted bool   `json:"vectors_deleted"`
}

// QueryRequest is the diagnostic retrieval request body.
type QueryRequest struct {
	Query          string   `json:"query" validate:"required,min=1,max=1000"`
	ScoreThreshold *float32 `json:"score_threshold,omitempty"`
	Limit          int      `json:"limit,omitempty" validate:"omitempty,min=1,max=100"`
}

func toDocumentResponse(doc *storage.DocumentRecord) DocumentResponse {
	return DocumentResponse{
		ID:          doc.ID,
		Filename:    doc.Filename,
		ContentType: doc.ContentType,
		FileSize:    doc.FileSize,
		ChunksCount: doc.ChunksCount,
		CreatedAt:   doc.CreatedAt,
	}
}

// Upload handles POST /documents/upload with a multipart "file" field.
func (h *DocumentsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	tenantID, ok := tenantOrUnauthorized(w, r)
	if !ok {
		return
	}

	if h.maxFileSizeBytes > 0 {
		limit := h.maxFileSizeBytes + multipartOverhead
		if r.ContentLength > limit {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		logger.WarnContext(ctx, "missing file in upload", "error", err)
		writeError(w, http.StatusBadRequest, "A file field is required")
		return
	}
	defer func() {
		_ = file.Close()
	}()

	data, err := io.ReadAll(file)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		logger.WarnContext(ctx, "failed to read upload", "error", err)
		writeError(w, http.StatusBadRequest, "Failed to read file")
		return
	}

	result, err := h.documents.Upload(ctx, service.UploadRequest{
		TenantID:    tenantID,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		writeServiceError(ctx, w, err, "Document not found or access denied")
		return
	}

	writeJSON(ctx, w, http.StatusCreated, UploadResponse{
		DocumentResponse: toDocumentResponse(result.Document),
		ChunksEmbedded:   result.Embedded,
		ChunksFailed:     result.Failed,
	})
}

// List handles GET /documents/.
func (h *DocumentsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID, ok := tenantOrUnauthorized(w, r)
	if !ok {
		return
	}

	docs, err := h.documents.List(ctx, tenantID)
	if err != nil {
		writeServiceError(ctx, w, err, "Document not found or access denied")
		return
	}

	resp := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		resp = append(resp, toDocumentResponse(doc))
	}
	writeJSON(ctx, w, http.StatusOK, resp)
}

// Delete handles DELETE /documents/{documentID}.
func (h *DocumentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	tenantID, ok := tenantOrUnauthorized(w, r)
	if !ok {
		return
	}
	documentID := chi.URLParam(r, "documentID")

	outcome, err := h.documents.Delete(ctx, tenantID, documentID)
	if err != nil {
		writeServiceError(ctx, w, err, "Document not found or access denied")
		return
	}
	if outcome.Partial() {
		logger.WarnContext(ctx, "document deleted but embedding records remain",
			"document_id", documentID,
			"error", outcome.VectorErr,
		)
	}

	writeJSON(ctx, w, http.StatusOK, DeleteResponse{
		Message:        "Document deleted successfully",
		DocumentID:     documentID,
		VectorsDeleted: outcome.VectorsDeleted,
	})
}

// Query handles POST /documents/query.
func (h *DocumentsHandler) Query(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID, ok := tenantOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req QueryRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.documents.Query(ctx, service.QueryRequest{
		TenantID:       tenantID,
		Query:          req.Query,
		Limit:          req.Limit,
		ScoreThreshold: req.ScoreThreshold,
	})
	if err != nil {
		writeServiceError(ctx, w, err, "Document not found or access denied")
		return
	}
	writeJSON(ctx, w, http.StatusOK, result)
}
