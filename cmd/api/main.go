package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"docqa/internal/app"
	"docqa/internal/config"
	"docqa/internal/handlers"
	"docqa/internal/http"
	"docqa/internal/llm"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := app.NewLogger(cfg, os.Stdout)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		slog.Error("API server exited", "error", err)
		stop()
		os.Exit(1)
	}
}

// run serves until ctx is done. Resources are closed before it returns.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	a, err := app.New(ctx, cfg, prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Error("Failed to close resources", "error", err)
		}
	}()

	// Fail fast when the embedding model does not match the collection
	if err := a.ValidateEmbeddings(ctx); err != nil {
		return fmt.Errorf("embedding validation failed: %w", err)
	}
	slog.Info("Embedding client validated", "vector_size", cfg.QdrantVectorSize)

	health := handlers.NewHealthHandler(a.VectorStore, a.DB, cfg.QdrantCollection,
		handlers.ModelCheck{
			Name:    "embedding_model",
			Model:   cfg.EmbeddingModelName,
			Checker: llm.NewModelProbe(cfg.EmbeddingBaseURL, cfg.EmbeddingAPIKey),
		},
		handlers.ModelCheck{
			Name:    "chat_model",
			Model:   cfg.LLMModelName,
			Checker: llm.NewModelProbe(cfg.LLMBaseURL, cfg.LLMAPIKey),
		},
	)

	router := http.NewRouter(&http.Deps{
		Documents:        a.Documents,
		Auth:             a.Auth,
		Engine:           a.Engine,
		Health:           health,
		MetricsHandler:   promhttp.Handler(),
		Metrics:          a.Metrics,
		Logger:           logger,
		MaxFileSizeBytes: cfg.MaxFileSizeBytes,
	})

	server := &nethttp.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting API server", "addr", server.Addr)
		slog.Debug("LLM configuration", "base_url", cfg.LLMBaseURL, "model", cfg.LLMModelName)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			return fmt.Errorf("API server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
