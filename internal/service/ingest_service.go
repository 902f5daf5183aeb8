// Package service implements the course ingestion pipeline and course search.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/classfinder/courses/internal/config"
	"github.com/classfinder/courses/internal/embeddings"
	"github.com/classfinder/courses/internal/ingesterrors"
	"github.com/classfinder/courses/internal/models"
	"github.com/classfinder/courses/internal/observability"
	vectors "github.com/classfinder/courses/pkg/embeddings"
)

// ErrEmbeddingCount is returned when a provider returns a different number of vectors than texts.
var ErrEmbeddingCount = errors.New("embedding count does not match batch size")

// CatalogSearcher runs one keyword query against the class-search API for a term.
type CatalogSearcher interface {
	SearchKeyword(ctx context.Context, term, keyword string) ([]map[string]any, error)
}

// CourseStore persists course rows keyed by course code.
type CourseStore interface {
	Upsert(ctx context.Context, rows []models.CourseRow) error
}

// IngestServiceParams configures IngestService. Metrics and Logger may be nil.
type IngestServiceParams struct {
	Catalog         CatalogSearcher
	EmbeddingClient embeddings.Client
	Store           CourseStore
	Terms           []string
	Keywords        []string
	BatchSize       int
	// FailurePolicy is config.EmbeddingFailureSkip (default) or config.EmbeddingFailureZero.
	FailurePolicy       string
	EmbeddingMaxRetries int
	StoreMaxRetries     int
	Metrics             observability.IngestMetrics
	Logger              *slog.Logger
}

// IngestService runs the fetch, dedupe, embed and upsert pipeline. Calls are sequential.
type IngestService struct {
	catalog         CatalogSearcher
	embeddingClient embeddings.Client
	store           CourseStore
	terms           []string
	keywords        []string
	batchSize       int
	failurePolicy   string
	embedRetries    int
	storeRetries    int
	backOff         newBackOff
	metrics         observability.IngestMetrics
	logger          *slog.Logger
}

// NewIngestService creates an IngestService.
func NewIngestService(p IngestServiceParams) *IngestService {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	policy := p.FailurePolicy
	if policy == "" {
		policy = config.EmbeddingFailureSkip
	}

	return &IngestService{
		catalog:         p.Catalog,
		embeddingClient: p.EmbeddingClient,
		store:           p.Store,
		terms:           p.Terms,
		keywords:        p.Keywords,
		batchSize:       p.BatchSize,
		failurePolicy:   policy,
		embedRetries:    p.EmbeddingMaxRetries,
		storeRetries:    p.StoreMaxRetries,
		backOff:         defaultBackOff,
		metrics:         p.Metrics,
		logger:          logger,
	}
}

// Run executes one ingestion run. Fetch, embedding and store failures are recorded in the
// report and the run continues. The returned error is non-nil only when ctx is canceled;
// the report then covers the work done so far.
func (s *IngestService) Run(ctx context.Context) (*RunReport, error) {
	start := time.Now()
	report := &RunReport{
		Terms:      s.terms,
		Degenerate: embeddings.IsDegenerate(s.embeddingClient),
	}

	defer func() {
		report.Duration = time.Since(start)
		if s.metrics != nil {
			s.metrics.RecordRunDuration(ctx, report.Duration)
		}
	}()

	if singleCharacterKeywords(s.keywords) {
		s.logger.Info("catalog: querying single-character keywords; courses matching none of them are not ingested",
			"keywords", len(s.keywords))
	}

	records, err := s.fetchAll(ctx, report)
	if err != nil {
		return report, err
	}

	set, droppedNoCode := Dedupe(records)
	report.UniqueCourses = set.Len()
	report.DroppedNoCode = droppedNoCode

	prepared, droppedByFilter := PrepareCourses(set.Records())
	report.DroppedByFilter = droppedByFilter

	s.logger.Info("ingest: courses prepared",
		"records_fetched", report.RecordsFetched,
		"unique_courses", report.UniqueCourses,
		"to_embed", len(prepared),
	)

	batches := Batches(prepared, s.batchSize)
	report.Batches = len(batches)

	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("ingest canceled before batch %d: %w", i+1, err)
		}

		s.processBatch(ctx, report, i+1, batch)
	}

	return report, nil
}

// Fetch returns the records matching keyword in term.
func (s *IngestService) Fetch(ctx context.Context, term, keyword string) ([]models.CourseRecord, error) {
	results, err := s.catalog.SearchKeyword(ctx, term, keyword)
	if err != nil {
		return nil, fmt.Errorf("search keyword: %w", err)
	}

	records := make([]models.CourseRecord, 0, len(results))
	for _, raw := range results {
		records = append(records, models.NewCourseRecord(raw))
	}

	return records, nil
}

// fetchAll queries every term and keyword. A failed query counts as an empty result.
func (s *IngestService) fetchAll(ctx context.Context, report *RunReport) ([]models.CourseRecord, error) {
	var all []models.CourseRecord

	for _, term := range s.terms {
		for _, keyword := range s.keywords {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("ingest canceled during fetch: %w", err)
			}

			report.KeywordsQueried++

			records, err := s.Fetch(ctx, term, keyword)
			if err != nil {
				report.KeywordsFailed++
				report.addError(&ingesterrors.StageError{
					Stage:   ingesterrors.StageFetch,
					Term:    term,
					Keyword: keyword,
					Err:     err,
				})

				if s.metrics != nil {
					s.metrics.RecordKeywordFetch(ctx, observability.StatusFailed, 0)
				}

				s.logger.Warn("catalog: keyword query failed, treating as empty",
					"term", term, "keyword", keyword, "error", err)

				continue
			}

			if s.metrics != nil {
				s.metrics.RecordKeywordFetch(ctx, observability.StatusSuccess, len(records))
			}

			s.logger.Debug("catalog: keyword fetched", "term", term, "keyword", keyword, "records", len(records))

			report.RecordsFetched += len(records)
			all = append(all, records...)
		}
	}

	return all, nil
}

func (s *IngestService) processBatch(ctx context.Context, report *RunReport, index int, batch []PreparedCourse) {
	texts := make([]string, len(batch))
	for i, course := range batch {
		texts[i] = course.Text
	}

	vecs, zeroFilled, ok := s.embedBatch(ctx, report, index, texts)
	if !ok {
		return
	}

	rows := make([]models.CourseRow, len(batch))
	for i, course := range batch {
		rows[i] = models.NewCourseRow(course.Record, vecs[i])
	}

	_, err := retry(ctx, s.logger, s.backOff, s.storeRetries, "store: upsert", func() (struct{}, error) {
		return struct{}{}, s.store.Upsert(ctx, rows)
	})
	if err != nil {
		report.UpsertsFailed++
		report.addError(&ingesterrors.StageError{
			Stage:   ingesterrors.StageUpsert,
			Batch:   index,
			Courses: len(rows),
			Err:     err,
		})

		if s.metrics != nil {
			reason := "store_error"
			if errors.Is(err, context.Canceled) {
				reason = "canceled"
			}

			s.metrics.RecordUpsertError(ctx, reason)
		}

		s.logger.Error("store: batch upsert failed", "batch", index, "courses", len(rows), "error", err)

		return
	}

	report.RowsUpserted += len(rows)
	if zeroFilled || report.Degenerate {
		report.ZeroVectorRows += len(rows)
	}

	if s.metrics != nil {
		s.metrics.RecordRowsUpserted(ctx, len(rows))
	}

	s.logger.Info("store: batch upserted", "batch", index, "rows", len(rows))
}

// embedBatch returns one vector per text. ok is false when the batch must be skipped.
func (s *IngestService) embedBatch(
	ctx context.Context, report *RunReport, index int, texts []string,
) (vecs [][]float32, zeroFilled, ok bool) {
	start := time.Now()

	vecs, err := retry(ctx, s.logger, s.backOff, s.embedRetries, "embeddings: batch", func() ([][]float32, error) {
		out, err := s.embeddingClient.EmbedDocuments(ctx, texts)
		if err != nil {
			return nil, err
		}

		if len(out) != len(texts) {
			return nil, fmt.Errorf("%w: got %d, want %d", ErrEmbeddingCount, len(out), len(texts))
		}

		return out, nil
	})
	if err == nil {
		if s.metrics != nil {
			s.metrics.RecordEmbeddingBatch(ctx, observability.StatusSuccess, time.Since(start))
		}

		return vecs, false, true
	}

	report.BatchesFailed++
	report.addError(&ingesterrors.StageError{
		Stage:   ingesterrors.StageEmbed,
		Batch:   index,
		Courses: len(texts),
		Err:     err,
	})

	if s.failurePolicy == config.EmbeddingFailureZero {
		if s.metrics != nil {
			s.metrics.RecordEmbeddingBatch(ctx, observability.StatusZero, time.Since(start))
		}

		s.logger.Warn("embeddings: batch failed, storing zero vectors",
			"batch", index, "courses", len(texts), "error", err)

		return vectors.Zeros(len(texts), s.embeddingClient.Dimensions()), true, true
	}

	if s.metrics != nil {
		s.metrics.RecordEmbeddingBatch(ctx, observability.StatusFailed, time.Since(start))
	}

	s.logger.Error("embeddings: batch failed, skipping", "batch", index, "courses", len(texts), "error", err)

	return nil, false, false
}

func singleCharacterKeywords(keywords []string) bool {
	if len(keywords) == 0 {
		return false
	}

	for _, k := range keywords {
		if len([]rune(k)) != 1 {
			return false
		}
	}

	return true
}
