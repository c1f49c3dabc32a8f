package handlers

import (
	"net/http"
	"strconv"
	"time"

	"docqa/internal/rag"
)

// Bounds for GET /queries.
const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// AskHandler handles HTTP requests for RAG questions and query history.
type AskHandler struct {
	engine rag.Engine
}

// NewAskHandler creates a new AskHandler.
func NewAskHandler(engine rag.Engine) *AskHandler {
	return &AskHandler{engine: engine}
}

// AskRequest represents the HTTP request payload for RAG queries.
type AskRequest struct {
	Question string `json:"question" validate:"required,min=1,max=1000"`
}

// QueryLogResponse is one entry of the tenant's question history.
type QueryLogResponse struct {
	ID                   string    `json:"id"`
	Question             string    `json:"question"`
	Answer               string    `json:"answer"`
	ResponseTimeMs       int64     `json:"response_time_ms"`
	RetrievedChunksCount int       `json:"retrieved_chunks_count"`
	CreatedAt            time.Time `json:"created_at"`
}

// ServeHTTP handles POST /ask.
func (h *AskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	tenantID, ok := tenantOrUnauthorized(w, r)
	if !ok {
		return
	}

	var req AskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	resp, err := h.engine.Ask(ctx, rag.AskRequest{Question: req.Question, TenantID: tenantID})
	if err != nil {
		writeServiceError(ctx, w, err, "Not found")
		return
	}
	writeJSON(ctx, w, http.StatusOK, resp)
}

// History handles GET /queries?limit=N.
func (h *AskHandler) History(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID, ok := tenantOrUnauthorized(w, r)
	if !ok {
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxHistoryLimit {
			writeError(w, http.StatusBadRequest, "limit must be an integer between 1 and 100")
			return
		}
		limit = n
	}

	logs, err := h.engine.History(ctx, tenantID, limit)
	if err != nil {
		writeServiceError(ctx, w, err, "Not found")
		return
	}

	resp := make([]QueryLogResponse, 0, len(logs))
	for _, entry := range logs {
		resp = append(resp, QueryLogResponse{
			ID:                   entry.ID,
			Question:             entry.Question,
			Answer:               entry.Answer,
			ResponseTimeMs:       entry.ResponseTimeMs,
			RetrievedChunksCount: entry.RetrievedChunksCount,
			CreatedAt:            entry.CreatedAt,
		})
	}
	writeJSON(ctx, w, http.StatusOK, resp)
}
