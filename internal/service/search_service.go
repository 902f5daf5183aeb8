package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/classfinder/courses/internal/embeddings"
	"github.com/classfinder/courses/internal/models"
	"github.com/classfinder/courses/pkg/cache"
)

// Search modes reported in SearchResult.
const (
	SearchModeCourseCode = "course_code"
	SearchModeSemantic   = "semantic"
)

// ErrEmptyQuery is returned for blank queries.
var ErrEmptyQuery = errors.New("query is required and must be non-empty")

// courseCodePattern matches queries such as "CS-UY 1114", "CSCI-UA" and "MATH 101".
var courseCodePattern = regexp.MustCompile(`(?i)^(?:[a-z]{2,}-\w{2,}\s*\d{0,4}|[a-z]{2,}\s*\d{2,4})$`)

// LooksLikeCourseCode reports whether query should be looked up directly in the catalog.
func LooksLikeCourseCode(query string) bool {
	return courseCodePattern.MatchString(strings.TrimSpace(query))
}

// CourseMatcher ranks stored courses by similarity to an embedding.
type CourseMatcher interface {
	NearestCourses(ctx context.Context, embedding []float32, threshold float64, limit int) ([]models.CourseMatch, error)
}

// SearchResult is the outcome of one query. Term is set for course-code lookups that found a match.
type SearchResult struct {
	Query   string
	Mode    string
	Term    string
	Matches []models.CourseMatch
}

// SearchServiceParams configures SearchService. QueryCache and Logger may be nil.
type SearchServiceParams struct {
	EmbeddingClient embeddings.Client
	Store           CourseMatcher
	Catalog         CatalogSearcher
	// Terms are tried in order for course-code lookups; the first with results wins.
	Terms      []string
	Threshold  float64
	Limit      int
	QueryCache *cache.Loader[[]float32]
	Logger     *slog.Logger
}

// SearchService answers course queries: course codes go straight to the catalog,
// everything else is a vector search over stored embeddings.
type SearchService struct {
	embeddingClient embeddings.Client
	store           CourseMatcher
	catalog         CatalogSearcher
	terms           []string
	threshold       float64
	limit           int
	queryCache      *cache.Loader[[]float32]
	logger          *slog.Logger
}

// NewSearchService creates a SearchService.
func NewSearchService(p SearchServiceParams) *SearchService {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &SearchService{
		embeddingClient: p.EmbeddingClient,
		store:           p.Store,
		catalog:         p.Catalog,
		terms:           p.Terms,
		threshold:       p.Threshold,
		limit:           p.Limit,
		queryCache:      p.QueryCache,
		logger:          logger,
	}
}

// Search runs query in course-code or semantic mode.
func (s *SearchService) Search(ctx context.Context, query string) (SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return SearchResult{}, ErrEmptyQuery
	}

	if s.catalog != nil && LooksLikeCourseCode(query) {
		return s.searchCourseCode(ctx, query), nil
	}

	return s.searchSemantic(ctx, query)
}

func (s *SearchService) searchCourseCode(ctx context.Context, query string) SearchResult {
	out := SearchResult{Query: query, Mode: SearchModeCourseCode}

	for _, term := range s.terms {
		results, err := s.catalog.SearchKeyword(ctx, term, query)
		if err != nil {
			s.logger.Warn("search: catalog lookup failed", "term", term, "query", query, "error", err)

			continue
		}

		if len(results) == 0 {
			continue
		}

		out.Term = term
		out.Matches = make([]models.CourseMatch, 0, len(results))

		for _, raw := range results {
			out.Matches = append(out.Matches, models.NewExactMatch(models.NewCourseRecord(raw)))
		}

		return out
	}

	s.logger.Debug("search: no catalog match", "query", query, "terms", len(s.terms))

	return out
}

func (s *SearchService) searchSemantic(ctx context.Context, query string) (SearchResult, error) {
	out := SearchResult{Query: query, Mode: SearchModeSemantic}

	var (
		embedding []float32
		err       error
	)

	if s.queryCache != nil {
		embedding, err = s.getQueryEmbeddingCached(ctx, query)
	} else {
		embedding, err = s.embeddingClient.EmbedQuery(ctx, query)
	}

	if err != nil {
		s.logger.Error("search: create query embedding failed", "error", err)

		return out, fmt.Errorf("create query embedding: %w", err)
	}

	matches, err := s.store.NearestCourses(ctx, embedding, s.threshold, s.limit)
	if err != nil {
		s.logger.Error("search: nearest courses failed", "error", err)

		return out, fmt.Errorf("nearest courses: %w", err)
	}

	out.Matches = matches

	return out, nil
}

func (s *SearchService) getQueryEmbeddingCached(ctx context.Context, query string) ([]float32, error) {
	vec, hit, err := s.queryCache.Get(ctx, query, func(ctx context.Context) ([]float32, error) {
		return s.embeddingClient.EmbedQuery(ctx, query)
	})
	if err != nil {
		return nil, fmt.Errorf("query embedding: %w", err)
	}

	s.logger.Debug("search: query embedding", "cache_hit", hit)

	return vec, nil
}
