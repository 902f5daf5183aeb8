package service

import (
	"github.com/classfinder/courses/internal/models"
)

// PreparedCourse is a course ready for embedding.
type PreparedCourse struct {
	Record models.CourseRecord
	Text   string
}

// Dedupe keeps the first record seen for each course code. Later records with the
// same code are discarded, never merged. Records without a code are dropped; dropped
// reports how many.
func Dedupe(records []models.CourseRecord) (set *models.UniqueCourseSet, dropped int) {
	set = models.NewUniqueCourseSet()

	for _, record := range records {
		if record.Code == "" {
			dropped++

			continue
		}

		set.Add(record)
	}

	return set, dropped
}

// BuildEmbeddingText renders the text embedded for a course: "{title}: {code}. {description}".
func BuildEmbeddingText(record models.CourseRecord) string {
	return record.Title + ": " + record.Code + ". " + record.Description
}

// PrepareCourses builds embedding texts for records that have both a code and a title.
// Other records are excluded from embedding and storage; dropped reports how many.
func PrepareCourses(records []models.CourseRecord) (prepared []PreparedCourse, dropped int) {
	prepared = make([]PreparedCourse, 0, len(records))

	for _, record := range records {
		if record.Code == "" || record.Title == "" {
			dropped++

			continue
		}

		prepared = append(prepared, PreparedCourse{
			Record: record,
			Text:   BuildEmbeddingText(record),
		})
	}

	return prepared, dropped
}

// Batches splits courses into consecutive slices of at most size elements.
// The result has ceil(len(courses)/size) batches.
func Batches(courses []PreparedCourse, size int) [][]PreparedCourse {
	if size <= 0 || len(courses) == 0 {
		return nil
	}

	out := make([][]PreparedCourse, 0, (len(courses)+size-1)/size)
	for start := 0; start < len(courses); start += size {
		end := min(start+size, len(courses))
		out = append(out, courses[start:end])
	}

	return out
}
