// Package store opens the course store selected by configuration.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/classfinder/courses/internal/config"
	"github.com/classfinder/courses/internal/models"
	"github.com/classfinder/courses/internal/repository"
	"github.com/classfinder/courses/internal/supabase"
	"github.com/classfinder/courses/pkg/database"
)

// CourseStore writes course rows and ranks them by embedding similarity.
type CourseStore interface {
	Upsert(ctx context.Context, rows []models.CourseRow) error
	NearestCourses(ctx context.Context, embedding []float32, threshold float64, limit int) ([]models.CourseMatch, error)
}

var (
	_ CourseStore = (*repository.CoursesRepository)(nil)
	_ CourseStore = (*supabase.Client)(nil)
)

// Open returns the store for cfg.StoreBackend and a function releasing its resources.
// The Supabase backend performs no I/O here; the Postgres backend connects and pings.
func Open(ctx context.Context, cfg *config.Config) (CourseStore, func(), error) {
	switch cfg.StoreBackend {
	case config.StoreBackendSupabase:
		client, err := supabase.NewClient(supabase.ClientOptions{
			URL:   cfg.SupabaseURL,
			Key:   cfg.SupabaseKey,
			Table: cfg.CoursesTable,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("open supabase store: %w", err)
		}

		slog.Info("store: using Supabase REST", "table", cfg.CoursesTable)

		return client, func() {}, nil
	case config.StoreBackendPostgres:
		db, err := database.NewPostgresPool(ctx, cfg.DatabaseURL,
			database.WithVectorTypes(),
			database.WithMaxConns(2),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres store: %w", err)
		}

		slog.Info("store: using PostgreSQL", "table", cfg.CoursesTable)

		return repository.NewCoursesRepository(db, cfg.CoursesTable), db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
