package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"docqa/internal/contextutil"
)

// CollectionChecker reports whether a vector collection exists.
type CollectionChecker interface {
	CollectionExists(ctx context.Context, collection string) (bool, error)
}

// Pinger checks a database connection.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// ModelChecker reports whether a provider serves a model.
type ModelChecker interface {
	HasModel(ctx context.Context, model string) (bool, error)
}

// ModelCheck names a provider model to verify during health checks.
type ModelCheck struct {
	Name    string // check key, e.g. "embedding_model"
	Model   string
	Checker ModelChecker
}

// HealthHandler handles HTTP requests for health checks.
type HealthHandler struct {
	vectorStore        CollectionChecker
	db                 Pinger
	collectionName     string
	models             []ModelCheck
	healthCheckTimeout time.Duration
}

// NewHealthHandler creates a new HealthHandler. Model checks are optional and
// only degrade the status when they fail.
func NewHealthHandler(vectorStore CollectionChecker, db Pinger, collectionName string, models ...ModelCheck) *HealthHandler {
	return &HealthHandler{
		vectorStore:        vectorStore,
		db:                 db,
		collectionName:     collectionName,
		models:             models,
		healthCheckTimeout: 5 * time.Second,
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	// Overall health status: "healthy", "degraded", or "unhealthy"
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
	Issues    []string          `json:"issues,omitempty"`
}

// ServeHTTP handles GET /health. It returns 200 when healthy and 503 when
// degraded or unhealthy.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodGet {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	checkCtx, cancel := context.WithTimeout(ctx, h.healthCheckTimeout)
	defer cancel()

	checks := make(map[string]string)
	var issues []string
	critical := false

	if h.checkVectorStore(checkCtx, logger) {
		checks["vector_store"] = "ok"
	} else {
		checks["vector_store"] = "error"
		issues = append(issues, "vector_store_unavailable")
		critical = true
	}

	if err := h.db.PingContext(checkCtx); err != nil {
		logger.WarnContext(ctx, "database health check failed", "error", err)
		checks["database"] = "error"
		issues = append(issues, "database_unavailable")
		critical = true
	} else {
		checks["database"] = "ok"
	}

	for _, mc := range h.models {
		ok, err := mc.Checker.HasModel(checkCtx, mc.Model)
		switch {
		case err != nil:
			logger.WarnContext(ctx, "model health check failed", "check", mc.Name, "error", err)
			checks[mc.Name] = "error"
			issues = append(issues, mc.Name+"_unavailable")
		case !ok:
			checks[mc.Name] = "missing"
			issues = append(issues, mc.Name+"_missing")
		default:
			checks[mc.Name] = "ok"
		}
	}

	status := "healthy"
	httpStatus := http.StatusOK
	switch {
	case critical:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	case len(issues) > 0:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(ctx, w, httpStatus, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Issues:    issues,
	})
}

// checkVectorStore checks if the vector store is accessible.
func (h *HealthHandler) checkVectorStore(ctx context.Context, logger *slog.Logger) bool {
	exists, err := h.vectorStore.CollectionExists(ctx, h.collectionName)
	if err != nil {
		logger.WarnContext(ctx, "vector store health check failed", "error", err)
		return false
	}
	if !exists {
		logger.WarnContext(ctx, "vector store collection does not exist", "collection", h.collectionName)
		return false
	}
	return true
}
