// Package ingesterrors provides sentinel and custom error types for the ingestion job.
package ingesterrors

import "fmt"

// ErrConfig represents a configuration error.
// Use when a required setting is missing or invalid; the run must not start.
var ErrConfig = &ConfigError{}

// ConfigError is a sentinel error for configuration failures.
type ConfigError struct {
	Key     string
	Message string
}

// NewConfigError creates a ConfigError for the given environment key.
func NewConfigError(key, message string) *ConfigError {
	return &ConfigError{
		Key:     key,
		Message: message,
	}
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Message != "" && e.Key != "" {
		return e.Key + ": " + e.Message
	}

	if e.Message != "" {
		return e.Message
	}

	if e.Key != "" {
		return e.Key + " is required but not set"
	}

	return "configuration error"
}

// Is implements the error interface for error comparison.
func (e *ConfigError) Is(target error) bool {
	_, ok := target.(*ConfigError)

	return ok
}

// Stage names the pipeline step that produced a recoverable error.
type Stage string

// Pipeline stages that recover from errors instead of aborting the run.
const (
	StageFetch  Stage = "fetch"
	StageEmbed  Stage = "embed"
	StageUpsert Stage = "upsert"
)

// StageError records a recovered failure for one keyword query or one batch.
// Batch is 1-based and zero for fetch errors.
type StageError struct {
	Stage   Stage
	Term    string
	Keyword string
	Batch   int
	Courses int
	Err     error
}

// Error implements the error interface.
func (e *StageError) Error() string {
	switch e.Stage {
	case StageFetch:
		return fmt.Sprintf("fetch term=%s keyword=%s: %v", e.Term, e.Keyword, e.Err)
	default:
		return fmt.Sprintf("%s batch %d (%d courses): %v", e.Stage, e.Batch, e.Courses, e.Err)
	}
}

// Unwrap returns the underlying error.
func (e *StageError) Unwrap() error {
	return e.Err
}
