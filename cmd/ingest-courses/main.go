// ingest-courses fetches the course catalog, embeds each course and upserts the rows
// into the configured store. Run it on demand or from a scheduler; it exits when done.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/classfinder/courses/internal/config"
	"github.com/classfinder/courses/internal/embeddings"
	"github.com/classfinder/courses/internal/ingesterrors"
	"github.com/classfinder/courses/internal/observability"
	"github.com/classfinder/courses/internal/service"
	"github.com/classfinder/courses/internal/store"
	"github.com/classfinder/courses/pkg/classsearch"
)

const (
	exitSuccess = 0
	exitFailure = 1

	metricsShutdownTimeout = 10 * time.Second
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		if errors.Is(err, ingesterrors.ErrConfig) {
			slog.Error("Invalid configuration", "error", err)
		} else {
			slog.Error("Failed to load configuration", "error", err)
		}

		return exitFailure
	}

	runID, err := uuid.NewV7()
	if err != nil {
		runID = uuid.New()
	}

	logger := observability.NewLogger(os.Stdout, cfg.LogLevel).With("run_id", runID.String())
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	meterProvider, err := observability.NewMeterProvider(ctx, cfg)
	if err != nil {
		slog.Error("Failed to create meter provider", "error", err)

		return exitFailure
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()

		if err := observability.ShutdownMeterProvider(shutdownCtx, meterProvider); err != nil {
			slog.Warn("Failed to flush metrics", "error", err)
		}
	}()

	var metrics observability.IngestMetrics

	if meterProvider != nil {
		metrics, err = observability.NewIngestMetrics(meterProvider.Meter(observability.ServiceName))
		if err != nil {
			slog.Error("Failed to create ingest metrics", "error", err)

			return exitFailure
		}
	}

	courseStore, closeStore, err := store.Open(ctx, cfg)
	if err != nil {
		slog.Error("Failed to open course store", "backend", cfg.StoreBackend, "error", err)

		return exitFailure
	}
	defer closeStore()

	embeddingClient, err := embeddings.New(ctx, cfg)
	if err != nil {
		slog.Error("Failed to create embedding client", "provider", cfg.EmbeddingProvider, "error", err)

		return exitFailure
	}

	catalog := classsearch.NewClientWithOptions(classsearch.ClientOptions{
		URL:      cfg.CatalogURL,
		RetryMax: cfg.FetchMaxRetries,
	})

	ingestService := service.NewIngestService(service.IngestServiceParams{
		Catalog:             catalog,
		EmbeddingClient:     embeddingClient,
		Store:               courseStore,
		Terms:               cfg.Terms,
		Keywords:            cfg.Keywords,
		BatchSize:           cfg.EmbeddingBatchSize,
		FailurePolicy:       cfg.EmbeddingFailurePolicy,
		EmbeddingMaxRetries: cfg.EmbeddingMaxRetries,
		StoreMaxRetries:     cfg.StoreMaxRetries,
		Metrics:             metrics,
		Logger:              logger,
	})

	slog.Info("Starting course ingestion",
		"terms", cfg.Terms,
		"keywords", len(cfg.Keywords),
		"store", cfg.StoreBackend,
		"embedding_provider", cfg.EmbeddingProvider,
		"embedding_model", cfg.EmbeddingModel,
		"batch_size", cfg.EmbeddingBatchSize,
	)

	report, err := ingestService.Run(ctx)
	if err != nil {
		slog.Error("Ingestion interrupted", "error", err, "report", report)

		return exitFailure
	}

	if report.Partial() {
		for _, stageErr := range report.Errors {
			slog.Debug("Recovered error", "error", stageErr)
		}

		slog.Warn("Ingestion finished with recovered errors", "errors", len(report.Errors), "report", report)

		return exitSuccess
	}

	slog.Info("Ingestion finished", "report", report)

	return exitSuccess
}
