package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"docqa/internal/app"
	"docqa/internal/cli"
	"docqa/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	load := func(ctx context.Context) (*cli.Deps, func() error, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		slog.SetDefault(app.NewLogger(cfg, os.Stderr))

		// Metrics are only scraped from the API server.
		a, err := app.New(ctx, cfg, nil)
		if err != nil {
			return nil, nil, err
		}
		return &cli.Deps{Documents: a.Documents, Engine: a.Engine}, a.Close, nil
	}

	if err := cli.NewRootCmd(load).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
