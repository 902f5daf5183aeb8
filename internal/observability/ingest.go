package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// IngestMetrics records ingestion pipeline metrics.
// A nil IngestMetrics means metrics are disabled; callers check before recording.
type IngestMetrics interface {
	RecordKeywordFetch(ctx context.Context, status string, records int)
	RecordEmbeddingBatch(ctx context.Context, status string, duration time.Duration)
	RecordRowsUpserted(ctx context.Context, rows int)
	RecordUpsertError(ctx context.Context, reason string)
	RecordRunDuration(ctx context.Context, duration time.Duration)
}

type ingestMetrics struct {
	keywordFetches   metric.Int64Counter
	recordsFetched   metric.Int64Counter
	embeddingBatches metric.Int64Counter
	batchDuration    metric.Float64Histogram
	rowsUpserted     metric.Int64Counter
	upsertErrors     metric.Int64Counter
	runDuration      metric.Float64Histogram
}

// NewIngestMetrics creates IngestMetrics. Returns (nil, nil) when meter is nil (metrics disabled).
func NewIngestMetrics(meter metric.Meter) (IngestMetrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	keywordFetches, err := meter.Int64Counter(
		MetricNameKeywordFetches,
		metric.WithDescription("Catalog keyword queries by status"),
	)
	if err != nil {
		return nil, fmt.Errorf("create keyword fetches counter: %w", err)
	}

	recordsFetched, err := meter.Int64Counter(
		MetricNameRecordsFetched,
		metric.WithDescription("Catalog records returned before deduplication"),
	)
	if err != nil {
		return nil, fmt.Errorf("create records fetched counter: %w", err)
	}

	embeddingBatches, err := meter.Int64Counter(
		MetricNameEmbeddingBatches,
		metric.WithDescription("Embedding batches by status"),
	)
	if err != nil {
		return nil, fmt.Errorf("create embedding batches counter: %w", err)
	}

	batchDuration, err := meter.Float64Histogram(
		MetricNameEmbeddingBatchDuration,
		metric.WithDescription("Embedding provider call duration per batch (seconds)"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create embedding batch duration histogram: %w", err)
	}

	rowsUpserted, err := meter.Int64Counter(
		MetricNameRowsUpserted,
		metric.WithDescription("Course rows written to the store"),
	)
	if err != nil {
		return nil, fmt.Errorf("create rows upserted counter: %w", err)
	}

	upsertErrors, err := meter.Int64Counter(
		MetricNameUpsertErrors,
		metric.WithDescription("Failed store upserts by reason"),
	)
	if err != nil {
		return nil, fmt.Errorf("create upsert errors counter: %w", err)
	}

	runDuration, err := meter.Float64Histogram(
		MetricNameRunDuration,
		metric.WithDescription("Ingestion run duration (seconds)"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create run duration histogram: %w", err)
	}

	return &ingestMetrics{
		keywordFetches:   keywordFetches,
		recordsFetched:   recordsFetched,
		embeddingBatches: embeddingBatches,
		batchDuration:    batchDuration,
		rowsUpserted:     rowsUpserted,
		upsertErrors:     upsertErrors,
		runDuration:      runDuration,
	}, nil
}

func (m *ingestMetrics) RecordKeywordFetch(ctx context.Context, status string, records int) {
	status = NormalizeStatus(status)
	m.keywordFetches.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrStatus, status)))

	if records > 0 {
		m.recordsFetched.Add(ctx, int64(records))
	}
}

func (m *ingestMetrics) RecordEmbeddingBatch(ctx context.Context, status string, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String(AttrStatus, NormalizeStatus(status)))
	m.embeddingBatches.Add(ctx, 1, attrs)
	m.batchDuration.Record(ctx, duration.Seconds(), attrs)
}

func (m *ingestMetrics) RecordRowsUpserted(ctx context.Context, rows int) {
	m.rowsUpserted.Add(ctx, int64(rows))
}

func (m *ingestMetrics) RecordUpsertError(ctx context.Context, reason string) {
	reason = NormalizeReason(reason, AllowedUpsertReasons)
	m.upsertErrors.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrReason, reason)))
}

func (m *ingestMetrics) RecordRunDuration(ctx context.Context, duration time.Duration) {
	m.runDuration.Record(ctx, duration.Seconds())
}
