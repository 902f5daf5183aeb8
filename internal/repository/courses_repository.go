package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/classfinder/courses/internal/models"
)

// CoursesRepository handles data access for the courses table.
// The pool must register pgvector types (database.WithVectorTypes).
type CoursesRepository struct {
	db    *pgxpool.Pool
	table string
}

// NewCoursesRepository creates a repository over the given table name.
func NewCoursesRepository(db *pgxpool.Pool, table string) *CoursesRepository {
	return &CoursesRepository{
		db:    db,
		table: pgx.Identifier{table}.Sanitize(),
	}
}

// Upsert writes rows keyed by course_code in one transaction.
// An existing row with the same code has every column replaced.
func (r *CoursesRepository) Upsert(ctx context.Context, rows []models.CourseRow) error {
	if len(rows) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (course_code, title, description, embedding, metadata)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (course_code)
		DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			embedding = EXCLUDED.embedding,
			metadata = EXCLUDED.metadata`, r.table)

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, row := range rows {
			metadata := row.Metadata
			if metadata == nil {
				metadata = map[string]any{}
			}

			batch.Queue(query, row.CourseCode, row.Title, row.Description, pgvector.NewVector(row.Embedding), metadata)
		}

		results := tx.SendBatch(ctx, batch)

		for i := range rows {
			if _, err := results.Exec(); err != nil {
				_ = results.Close()

				return fmt.Errorf("row %d (%s): %w", i, rows[i].CourseCode, err)
			}
		}

		return results.Close()
	})
	if err != nil {
		return fmt.Errorf("courses upsert: %w", err)
	}

	return nil
}

// NearestCourses returns courses whose cosine similarity (1 - distance) to embedding is at least
// threshold, most similar first. Rows stored with zero vectors have undefined distance and never match.
func (r *CoursesRepository) NearestCourses(
	ctx context.Context, embedding []float32, threshold float64, limit int,
) ([]models.CourseMatch, error) {
	query := fmt.Sprintf(`
		SELECT course_code, title, description, (1 - (embedding <=> $1)) AS similarity
		FROM %s
		WHERE (1 - (embedding <=> $1)) >= $2
		ORDER BY embedding <=> $1
		LIMIT $3`, r.table)

	rows, err := r.db.Query(ctx, query, pgvector.NewVector(embedding), threshold, limit)
	if err != nil {
		return nil, fmt.Errorf("nearest courses: %w", err)
	}
	defer rows.Close()

	var matches []models.CourseMatch

	for rows.Next() {
		var (
			match              models.CourseMatch
			title, description *string
		)

		if err := rows.Scan(&match.CourseCode, &title, &description, &match.Similarity); err != nil {
			return nil, fmt.Errorf("scan course match: %w", err)
		}

		if title != nil {
			match.Title = *title
		}

		if description != nil {
			match.Description = *description
		}

		matches = append(matches, match)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating nearest courses: %w", err)
	}

	return matches, nil
}
