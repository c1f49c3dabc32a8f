// Package app constructs the collaborators shared by the API server and the
// command-line client.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"docqa/internal/auth"
	"docqa/internal/config"
	"docqa/internal/extract"
	"docqa/internal/indexer"
	"docqa/internal/llm"
	"docqa/internal/metrics"
	"docqa/internal/rag"
	"docqa/internal/service"
	"docqa/internal/storage"
	"docqa/internal/vectorstore"
)

// App holds the wired collaborators. Close releases the database and the
// Qdrant connection.
type App struct {
	Config      *config.Config
	DB          *sql.DB
	VectorStore *vectorstore.QdrantStore
	Embedder    *llm.EmbeddingsClient
	LLM         *llm.Client
	Metrics     *metrics.Metrics
	Tokens      *auth.TokenManager

	Pipeline  *indexer.Pipeline
	Retriever *rag.Retriever
	Engine    rag.Engine
	Documents service.DocumentService
	Auth      service.AuthService
}

// NewLogger builds the process logger from the configured level and format.
func NewLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// New opens the stores, ensures the vector collection exists and wires the
// orchestrators and services. reg may be nil to disable metrics.
func New(ctx context.Context, cfg *config.Config, reg prometheus.Registerer) (_ *App, err error) {
	a := &App{Config: cfg}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	a.DB, err = storage.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := storage.Migrate(a.DB); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	a.VectorStore, err = vectorstore.NewQdrantStore(cfg.QdrantURL, cfg.QdrantAPIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}
	if err := a.VectorStore.EnsureCollection(ctx, cfg.QdrantCollection, cfg.QdrantVectorSize); err != nil {
		return nil, fmt.Errorf("failed to ensure Qdrant collection: %w", err)
	}
	slog.Info("Qdrant collection ready", "collection", cfg.QdrantCollection, "vector_size", cfg.QdrantVectorSize)

	if reg != nil {
		a.Metrics = metrics.New(reg)
	}

	a.Embedder = llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModelName, cfg.QdrantVectorSize)
	a.LLM = llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModelName, llm.ChatParams{
		MaxTokens:   cfg.LLMMaxTokens,
		Temperature: cfg.LLMTemperature,
	})
	a.Tokens = auth.NewTokenManager([]byte(cfg.JWTSecretKey), cfg.JWTIssuer, cfg.TokenTTL)

	documents := storage.NewDocumentRepo(a.DB)
	a.Pipeline = indexer.NewPipeline(
		documents,
		a.Embedder,
		a.VectorStore,
		cfg.QdrantCollection,
		indexer.NewSegmenter(cfg.ChunkMaxLength, cfg.ChunkOverlap),
		indexer.WithConcurrency(cfg.IngestConcurrency),
		indexer.WithMetrics(a.Metrics),
	)
	a.Retriever = rag.NewRetriever(a.Embedder, a.VectorStore, cfg.QdrantCollection, cfg.RetrievalLimit, a.Metrics)
	a.Engine = rag.NewEngine(
		a.Retriever,
		rag.NewSynthesizer(a.LLM),
		storage.NewQueryLogRepo(a.DB),
		rag.EngineConfig{Limit: cfg.RetrievalLimit, ScoreThreshold: cfg.AskScoreThreshold},
		a.Metrics,
	)
	a.Documents = service.NewDocumentService(extract.NewFileExtractor(), a.Pipeline, a.Retriever, service.DocumentConfig{
		MaxFileSizeBytes:    cfg.MaxFileSizeBytes,
		QueryLimit:          cfg.QueryLimit,
		QueryScoreThreshold: cfg.QueryScoreThreshold,
	})
	a.Auth = service.NewAuthService(storage.NewUserRepo(a.DB), a.Tokens, 0)

	return a, nil
}

// ValidateEmbeddings embeds a probe text and checks the vector size against
// the collection.
func (a *App) ValidateEmbeddings(ctx context.Context) error {
	vectors, err := a.Embedder.EmbedTexts(ctx, []string{"test"})
	if err != nil {
		return fmt.Errorf("failed to validate embedding client: %w", err)
	}
	if len(vectors) == 0 || len(vectors[0]) != a.Config.QdrantVectorSize {
		return fmt.Errorf("embedding vector size mismatch: expected %d", a.Config.QdrantVectorSize)
	}
	return nil
}

// Close releases the database and the Qdrant connection.
func (a *App) Close() error {
	var errs []error
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	if a.VectorStore != nil {
		errs = append(errs, a.VectorStore.Close())
	}
	return errors.Join(errs...)
}
