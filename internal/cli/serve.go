package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cribconcierge/concierge-go/internal/answer"
	"github.com/cribconcierge/concierge-go/internal/chunker"
	"github.com/cribconcierge/concierge-go/internal/config"
	"github.com/cribconcierge/concierge-go/internal/index"
	"github.com/cribconcierge/concierge-go/internal/llm"
	"github.com/cribconcierge/concierge-go/internal/memory"
	"github.com/cribconcierge/concierge-go/internal/metrics"
	"github.com/cribconcierge/concierge-go/internal/server"
	"github.com/cribconcierge/concierge-go/internal/service"
	"github.com/cribconcierge/concierge-go/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the concierge backend",
	Long: `Run the concierge HTTP backend. Configuration comes from environment
variables, with an optional YAML file via CONCIERGE_CONFIG.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer cleanup()

	logger.Info("starting concierge",
		"addr", cfg.HTTPAddr,
		"llm", string(cfg.LLMProvider)+"/"+cfg.LLMModel,
		"embeddings", string(cfg.EmbedProvider)+"/"+cfg.EmbedModel,
		"store", cfg.StoreBackend)

	ctx := context.Background()

	var st store.Store
	switch cfg.StoreBackend {
	case "surrealdb":
		surreal, err := store.NewSurreal(ctx, store.SurrealConfig{
			URL:       cfg.SurrealDBURL,
			Namespace: cfg.SurrealDBNamespace,
			Database:  cfg.SurrealDBDatabase,
			Username:  cfg.SurrealDBUser,
			Password:  cfg.SurrealDBPass,
		}, logger)
		if err != nil {
			return fmt.Errorf("connect to store: %w", err)
		}
		defer surreal.Close(context.Background())
		st = surreal
	default:
		st = store.NewMemory()
	}

	embedder, err := llm.NewEmbedder(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init embedder: %w", err)
	}
	model, err := llm.NewModel(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init model: %w", err)
	}

	stats := metrics.NewCollector()

	controller, err := index.NewController(embedder, st, chunker.Config{
		Size:      cfg.ChunkSize,
		Overlap:   cfg.ChunkOverlap,
		Separator: cfg.ChunkSeparator,
	}, logger, stats)
	if err != nil {
		return err
	}

	core := service.New(st, controller,
		memory.NewSessions(),
		answer.NewRAG(embedder, model, cfg.TopK, logger, stats),
		answer.NewFallback(logger),
		stats,
		service.Options{AutoRetry: cfg.AutoRetry},
		logger)

	// Build the index from whatever records already exist. Questions
	// arriving before this finishes get fallback answers.
	go func() {
		buildCtx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if _, err := controller.Rebuild(buildCtx); err != nil {
			if errors.Is(err, index.ErrIndexBuild) {
				logger.Warn("initial index build skipped", "error", err)
				return
			}
			logger.Error("initial index build failed", "error", err)
		}
	}()

	srv := server.New(cfg.HTTPAddr, core, logger)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
