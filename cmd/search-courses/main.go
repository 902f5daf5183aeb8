// search-courses answers course queries against the ingested catalog. Queries that look
// like course codes are looked up in the class-search API; others use vector similarity.
// Pass the query as arguments, or pipe one query per line on stdin.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/classfinder/courses/internal/config"
	"github.com/classfinder/courses/internal/embeddings"
	"github.com/classfinder/courses/internal/observability"
	"github.com/classfinder/courses/internal/service"
	"github.com/classfinder/courses/internal/store"
	"github.com/classfinder/courses/pkg/cache"
	"github.com/classfinder/courses/pkg/classsearch"
)

const (
	exitSuccess = 0
	exitFailure = 1

	queryCacheSize = 256
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)

		return exitFailure
	}

	threshold := flag.Float64("threshold", cfg.SearchThreshold, "minimum cosine similarity (0..1)")
	limit := flag.Int("limit", cfg.SearchLimit, "maximum number of results")
	flag.Parse()

	// Results go to stdout; keep logs on stderr.
	slog.SetDefault(observability.NewLogger(os.Stderr, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	courseStore, closeStore, err := store.Open(ctx, cfg)
	if err != nil {
		slog.Error("Failed to open course store", "backend", cfg.StoreBackend, "error", err)

		return exitFailure
	}
	defer closeStore()

	embeddingClient, err := embeddings.New(ctx, cfg)
	if err != nil {
		slog.Error("Failed to create embedding client", "error", err)

		return exitFailure
	}

	if embeddings.IsDegenerate(embeddingClient) {
		slog.Error("Semantic search needs an embedding credential", "provider", cfg.EmbeddingProvider)

		return exitFailure
	}

	queryCache, err := cache.NewLoader[[]float32](queryCacheSize)
	if err != nil {
		slog.Error("Failed to create query cache", "error", err)

		return exitFailure
	}

	searchService := service.NewSearchService(service.SearchServiceParams{
		EmbeddingClient: embeddingClient,
		Store:           courseStore,
		Catalog: classsearch.NewClientWithOptions(classsearch.ClientOptions{
			URL:      cfg.CatalogURL,
			RetryMax: cfg.FetchMaxRetries,
		}),
		Terms:      cfg.Terms,
		Threshold:  *threshold,
		Limit:      *limit,
		QueryCache: queryCache,
	})

	if flag.NArg() > 0 {
		if err := search(ctx, searchService, strings.Join(flag.Args(), " "), os.Stdout); err != nil {
			slog.Error("Search failed", "error", err)

			return exitFailure
		}

		return exitSuccess
	}

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}

		if err := search(ctx, searchService, query, os.Stdout); err != nil {
			slog.Error("Search failed", "query", query, "error", err)
		}
	}

	if err := scanner.Err(); err != nil {
		slog.Error("Failed to read queries", "error", err)

		return exitFailure
	}

	return exitSuccess
}

type searchOutput struct {
	Query   string `json:"query"`
	Mode    string `json:"mode"`
	Term    string `json:"term,omitempty"`
	Courses any    `json:"courses"`
}

// search writes one JSON line per query.
func search(ctx context.Context, svc *service.SearchService, query string, w io.Writer) error {
	result, err := svc.Search(ctx, query)
	if err != nil {
		return fmt.Errorf("search %q: %w", query, err)
	}

	out := searchOutput{
		Query:   result.Query,
		Mode:    result.Mode,
		Term:    result.Term,
		Courses: result.Matches,
	}
	if result.Matches == nil {
		out.Courses = []any{}
	}

	if err := json.NewEncoder(w).Encode(out); err != nil {
		return fmt.Errorf("write result: %w", err)
	}

	return nil
}
