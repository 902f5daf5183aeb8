package models

// Catalog document fields read by the pipeline. Everything else stays in Raw.
const (
	FieldCode        = "code"
	FieldTitle       = "title"
	FieldDescription = "description"
)

// CourseRecord is one course as returned by the class-search API.
// Raw holds the full provider document; it is never mutated after decode.
type CourseRecord struct {
	Code        string
	Title       string
	Description string
	Raw         map[string]any
}

// NewCourseRecord extracts code, title and description from a raw catalog document.
// Non-string or null values are treated as empty.
func NewCourseRecord(raw map[string]any) CourseRecord {
	if raw == nil {
		raw = map[string]any{}
	}

	return CourseRecord{
		Code:        stringField(raw, FieldCode),
		Title:       stringField(raw, FieldTitle),
		Description: stringField(raw, FieldDescription),
		Raw:         raw,
	}
}

func stringField(raw map[string]any, key string) string {
	if s, ok := raw[key].(string); ok {
		return s
	}

	return ""
}

// UniqueCourseSet maps course code to the first record seen with that code.
// Order keeps first-seen order so batching is deterministic across runs.
type UniqueCourseSet struct {
	byCode map[string]CourseRecord
	order  []string
}

// NewUniqueCourseSet creates an empty set.
func NewUniqueCourseSet() *UniqueCourseSet {
	return &UniqueCourseSet{byCode: make(map[string]CourseRecord)}
}

// Add stores the record unless its code is empty or already present.
// Reports whether the record was added.
func (s *UniqueCourseSet) Add(record CourseRecord) bool {
	if record.Code == "" {
		return false
	}

	if _, exists := s.byCode[record.Code]; exists {
		return false
	}

	s.byCode[record.Code] = record
	s.order = append(s.order, record.Code)

	return true
}

// Get returns the record stored for code.
func (s *UniqueCourseSet) Get(code string) (CourseRecord, bool) {
	record, ok := s.byCode[code]

	return record, ok
}

// Len returns the number of unique codes.
func (s *UniqueCourseSet) Len() int {
	return len(s.order)
}

// Records returns the records in first-seen order.
func (s *UniqueCourseSet) Records() []CourseRecord {
	out := make([]CourseRecord, 0, len(s.order))
	for _, code := range s.order {
		out = append(out, s.byCode[code])
	}

	return out
}

// CourseRow is the persisted form of a course, keyed by CourseCode.
// Upserting a row replaces every column of an existing row with the same code.
type CourseRow struct {
	CourseCode  string         `json:"course_code"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Embedding   []float32      `json:"embedding"`
	Metadata    map[string]any `json:"metadata"`
}

// NewCourseRow pairs a record with its embedding.
func NewCourseRow(record CourseRecord, embedding []float32) CourseRow {
	return CourseRow{
		CourseCode:  record.Code,
		Title:       record.Title,
		Description: record.Description,
		Embedding:   embedding,
		Metadata:    record.Raw,
	}
}

// Catalog fields surfaced on direct course-code lookups.
const (
	FieldLocation   = "location"
	FieldInstructor = "instr"
	FieldSchedule   = "meets"
)

// CourseMatch is a course returned by search. Similarity is the cosine similarity (0..1)
// to the query embedding, or 1 for a direct course-code lookup.
// Location, Instructor and Schedule are only known for direct lookups.
type CourseMatch struct {
	CourseCode  string  `json:"course_code"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Similarity  float64 `json:"similarity"`
	Location    string  `json:"location,omitempty"`
	Instructor  string  `json:"instructor,omitempty"`
	Schedule    string  `json:"schedule,omitempty"`
}

// NewExactMatch builds a search result from a catalog record found by course code.
func NewExactMatch(record CourseRecord) CourseMatch {
	return CourseMatch{
		CourseCode:  record.Code,
		Title:       record.Title,
		Description: record.Description,
		Similarity:  1,
		Location:    stringField(record.Raw, FieldLocation),
		Instructor:  stringField(record.Raw, FieldInstructor),
		Schedule:    stringField(record.Raw, FieldSchedule),
	}
}
