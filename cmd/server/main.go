package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/blackmichael/replyguard/internal/artifact"
	"github.com/blackmichael/replyguard/internal/config"
	"github.com/blackmichael/replyguard/internal/domain"
	"github.com/blackmichael/replyguard/internal/gemini"
	"github.com/blackmichael/replyguard/internal/httpserver"
	"github.com/blackmichael/replyguard/internal/moderation"
	"github.com/blackmichael/replyguard/internal/source"
	"github.com/blackmichael/replyguard/internal/sqlite"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Best effort; in production the environment is already set.
	godotenv.Load(".env")

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, logger)
	if err != nil {
		return fmt.Errorf("failed to create gemini client: %w", err)
	}

	moderationStore := moderation.NewStore(logger)
	publisher := artifact.NewPublisher(cfg.ArtifactPath, moderationStore, logger)

	archive, err := sqlite.NewRepository(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open session archive: %w", err)
	}
	defer archive.Close()

	analyzer := domain.NewReplyAnalyzer(
		gemini.NewReplyClassifier(client, moderationStore),
		moderationStore,
		publisher,
		cfg.GroupSize,
		logger,
	)
	planner := domain.NewNextStepPlanner(gemini.NewAdvisor(client), logger)
	pipeline := domain.NewPipeline(
		gemini.NewPostClassifier(client),
		analyzer,
		publisher,
		gemini.NewSummaryWriter(client),
		planner,
		archive,
		moderationStore,
		logger,
	)

	go pipeline.StartArchiveJanitor(ctx, 6*time.Hour, 30*24*time.Hour, 500)

	feed := source.NewFileSource(cfg.FeedPath)
	server := httpserver.NewServer(cfg, pipeline, feed, moderationStore, publisher, archive, logger)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig.String())
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}

	logger.Info("shutdown complete")
	return nil
}
