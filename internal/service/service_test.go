package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/classfinder/courses/internal/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type catalogKey struct {
	term    string
	keyword string
}

type fakeCatalog struct {
	mu      sync.Mutex
	results map[catalogKey][]map[string]any
	errs    map[catalogKey]error
	calls   []catalogKey
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		results: make(map[catalogKey][]map[string]any),
		errs:    make(map[catalogKey]error),
	}
}

func (f *fakeCatalog) set(term, keyword string, results ...map[string]any) {
	f.results[catalogKey{term, keyword}] = results
}

func (f *fakeCatalog) fail(term, keyword string, err error) {
	f.errs[catalogKey{term, keyword}] = err
}

func (f *fakeCatalog) SearchKeyword(_ context.Context, term, keyword string) ([]map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := catalogKey{term, keyword}
	f.calls = append(f.calls, key)

	if err := f.errs[key]; err != nil {
		return nil, err
	}

	return f.results[key], nil
}

// fakeEmbedder returns vectors whose first component is the 1-based global position of the text.
type fakeEmbedder struct {
	dims     int
	failCall map[int]error
	calls    [][]string
	queries  []string
	seen     int
}

func (f *fakeEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	f.calls = append(f.calls, texts)

	if err := f.failCall[len(f.calls)]; err != nil {
		return nil, err
	}

	out := make([][]float32, len(texts))
	for i := range texts {
		f.seen++
		out[i] = make([]float32, f.dims)
		out[i][0] = float32(f.seen)
	}

	return out, nil
}

func (f *fakeEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	f.queries = append(f.queries, text)

	if err := f.failCall[-1]; err != nil {
		return nil, err
	}

	vec := make([]float32, f.dims)
	vec[0] = 1

	return vec, nil
}

func (f *fakeEmbedder) Dimensions() int {
	return f.dims
}

type fakeStore struct {
	failCall map[int]error
	calls    int
	rows     []models.CourseRow
}

func (f *fakeStore) Upsert(_ context.Context, rows []models.CourseRow) error {
	f.calls++

	if err := f.failCall[f.calls]; err != nil {
		return err
	}

	f.rows = append(f.rows, rows...)

	return nil
}

func (f *fakeStore) codes() []string {
	out := make([]string, len(f.rows))
	for i, row := range f.rows {
		out[i] = row.CourseCode
	}

	return out
}

func course(code, title string) map[string]any {
	return map[string]any{"code": code, "title": title}
}

func numberedCourses(n int) []map[string]any {
	out := make([]map[string]any, n)
	for i := range out {
		out[i] = course(fmt.Sprintf("C-%03d", i+1), fmt.Sprintf("Course %d", i+1))
	}

	return out
}
