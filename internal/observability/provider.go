package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"

	"github.com/classfinder/courses/internal/config"
)

// ServiceName identifies the job in exported telemetry.
const ServiceName = "course-ingest"

const metricsExporterOTLP = "otlp"

func newResource() (*resource.Resource, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(ServiceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("merge resource: %w", err)
	}

	return res, nil
}

// NewMeterProvider creates a MeterProvider when metrics are enabled via OTLP push.
// When cfg.OtelMetricsExporter is not "otlp" (or empty), returns (nil, nil).
// A batch run ends before a periodic export fires, so callers must ShutdownMeterProvider to flush.
func NewMeterProvider(ctx context.Context, cfg *config.Config) (*sdkmetric.MeterProvider, error) {
	if cfg == nil || cfg.OtelMetricsExporter != metricsExporterOTLP {
		//nolint:nilnil // intentional: metrics disabled or unsupported exporter, caller checks for nil
		return nil, nil
	}

	res, err := newResource()
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	// SDK reads OTEL_EXPORTER_OTLP_ENDPOINT (and scheme/insecure) from env.
	exp, err := otlpmetrichttp.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("create OTLP metric exporter: %w", err)
	}

	return newMeterProvider(res, sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(30*time.Second))), nil
}

func newMeterProvider(res *resource.Resource, reader sdkmetric.Reader) *sdkmetric.MeterProvider {
	// Embedding calls take seconds, whole runs take minutes.
	durationBounds := []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600, 1800}
	view := sdkmetric.NewView(
		sdkmetric.Instrument{Name: "courses_*_duration_seconds"},
		sdkmetric.Stream{Aggregation: sdkmetric.AggregationExplicitBucketHistogram{Boundaries: durationBounds}},
	)

	opts := []sdkmetric.Option{
		sdkmetric.WithReader(reader),
		sdkmetric.WithView(view),
	}
	if res != nil {
		opts = append(opts, sdkmetric.WithResource(res))
	}

	return sdkmetric.NewMeterProvider(opts...)
}

// ShutdownMeterProvider flushes and shuts down the MeterProvider. Safe to call with nil.
func ShutdownMeterProvider(ctx context.Context, provider *sdkmetric.MeterProvider) error {
	if provider == nil {
		return nil
	}

	if err := provider.Shutdown(ctx); err != nil {
		return fmt.Errorf("meter provider shutdown: %w", err)
	}

	return nil
}
