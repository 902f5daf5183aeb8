package service

import (
	"errors"
	"log/slog"
	"time"

	"github.com/classfinder/courses/internal/ingesterrors"
)

// RunReport summarizes one ingestion run. Recovered failures are listed in Errors
// as *ingesterrors.StageError values.
type RunReport struct {
	Terms           []string
	KeywordsQueried int
	KeywordsFailed  int
	RecordsFetched  int
	UniqueCourses   int
	DroppedNoCode   int
	DroppedByFilter int
	Batches         int
	BatchesFailed   int
	UpsertsFailed   int
	RowsUpserted    int
	ZeroVectorRows  int
	Degenerate      bool
	Duration        time.Duration
	Errors          []error
}

func (r *RunReport) addError(err *ingesterrors.StageError) {
	r.Errors = append(r.Errors, err)
}

// StageErrors returns the recovered errors of one stage.
func (r *RunReport) StageErrors(stage ingesterrors.Stage) []*ingesterrors.StageError {
	var out []*ingesterrors.StageError

	for _, err := range r.Errors {
		var stageErr *ingesterrors.StageError
		if errors.As(err, &stageErr) && stageErr.Stage == stage {
			out = append(out, stageErr)
		}
	}

	return out
}

// Partial reports whether any keyword query or batch failed.
func (r *RunReport) Partial() bool {
	return len(r.Errors) > 0
}

// LogValue implements slog.LogValuer so the report logs as one group.
func (r *RunReport) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Any("terms", r.Terms),
		slog.Int("keywords_queried", r.KeywordsQueried),
		slog.Int("keywords_failed", r.KeywordsFailed),
		slog.Int("records_fetched", r.RecordsFetched),
		slog.Int("unique_courses", r.UniqueCourses),
		slog.Int("dropped_no_code", r.DroppedNoCode),
		slog.Int("dropped_by_filter", r.DroppedByFilter),
		slog.Int("batches", r.Batches),
		slog.Int("batches_failed", r.BatchesFailed),
		slog.Int("upserts_failed", r.UpsertsFailed),
		slog.Int("rows_upserted", r.RowsUpserted),
		slog.Int("zero_vector_rows", r.ZeroVectorRows),
		slog.Bool("degenerate", r.Degenerate),
		slog.Duration("duration", r.Duration),
	)
}
