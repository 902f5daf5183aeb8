// Package observability provides OpenTelemetry metrics and logging setup for the ingestion job.
package observability

// Metric names (OpenTelemetry; Prometheus-style suffixes).
const (
	MetricNameKeywordFetches         = "courses_ingest_keyword_fetches_total"
	MetricNameRecordsFetched         = "courses_ingest_records_fetched_total"
	MetricNameEmbeddingBatches       = "courses_ingest_embedding_batches_total"
	MetricNameEmbeddingBatchDuration = "courses_ingest_embedding_batch_duration_seconds"
	MetricNameRowsUpserted           = "courses_ingest_rows_upserted_total"
	MetricNameUpsertErrors           = "courses_ingest_upsert_errors_total"
	MetricNameRunDuration            = "courses_ingest_run_duration_seconds"
)

// Attribute keys.
const (
	AttrStatus = "status"
	AttrReason = "reason"
)

// Statuses shared by fetch and embedding outcomes.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusZero    = "zero_filled"
)

// AllowedStatuses for keyword fetch and embedding batch outcomes.
var AllowedStatuses = map[string]bool{
	StatusSuccess: true,
	StatusFailed:  true,
	StatusZero:    true,
}

// AllowedUpsertReasons for courses_ingest_upsert_errors_total.
var AllowedUpsertReasons = map[string]bool{
	"store_error": true,
	"canceled":    true,
}

// NormalizeReason returns reason if in allowed, otherwise "other".
func NormalizeReason(reason string, allowed map[string]bool) string {
	if allowed[reason] {
		return reason
	}

	return "other"
}

// NormalizeStatus returns status if in AllowedStatuses, otherwise "other".
func NormalizeStatus(status string) string {
	if AllowedStatuses[status] {
		return status
	}

	return "other"
}
