// Package config provides job configuration loaded from environment variables.
package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/classfinder/courses/internal/ingesterrors"
)

// Store backends.
const (
	StoreBackendSupabase = "supabase"
	StoreBackendPostgres = "postgres"
)

// Embedding providers.
const (
	EmbeddingProviderNomic  = "nomic"
	EmbeddingProviderOpenAI = "openai"
	EmbeddingProviderGoogle = "google"
)

// Embedding failure policies: what happens to a batch whose provider call failed.
const (
	EmbeddingFailureSkip = "skip"
	EmbeddingFailureZero = "zero"
)

const (
	defaultCatalogURL      = "https://bulletins.nyu.edu/class-search/api/?page=fose&route=search"
	defaultCatalogTerms    = "1254"
	defaultCoursesTable    = "courses"
	defaultEmbeddingDims   = 768
	defaultEmbeddingBatch  = 50
	defaultNomicModel      = "nomic-embed-text-v1.5"
	defaultOpenAIModel     = "text-embedding-3-small"
	defaultGoogleModel     = "gemini-embedding-001"
	defaultLogLevel        = "info"
	defaultSearchThreshold = 0.3
	defaultSearchLimit     = 20
)

// dotenvFiles are loaded in order when present; earlier files win.
var dotenvFiles = []string{".env.local", ".env"}

// Config holds all job configuration.
type Config struct {
	LogLevel string

	// Store
	StoreBackend    string
	SupabaseURL     string
	SupabaseKey     string
	DatabaseURL     string
	CoursesTable    string
	StoreMaxRetries int

	// Catalog
	CatalogURL      string
	Terms           []string
	Keywords        []string
	FetchMaxRetries int

	// Embeddings; EmbeddingAPIKey is the credential of the selected provider.
	EmbeddingProvider      string
	EmbeddingAPIKey        string
	EmbeddingModel         string
	EmbeddingDimensions    int
	EmbeddingBatchSize     int
	EmbeddingFailurePolicy string
	EmbeddingMaxRetries    int

	// Search
	SearchThreshold float64
	SearchLimit     int

	// Metrics: "otlp" enables push via OTEL_EXPORTER_OTLP_* env.
	OtelMetricsExporter string
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat retrieves an environment variable as a float or returns a default value.
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsList splits a comma-separated variable, trimming blanks and dropping empty items.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, item := range strings.Split(valueStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// DefaultKeywords returns the single-letter keywords A..Z.
// Every course is expected to match at least one of them; this is a heuristic, not a guarantee.
func DefaultKeywords() []string {
	keywords := make([]string, 0, 26)
	for c := 'A'; c <= 'Z'; c++ {
		keywords = append(keywords, string(c))
	}
	return keywords
}

// Load reads configuration from environment variables and validates it.
// It loads .env.local and .env first when they exist.
// A missing store credential yields an error matching ingesterrors.ErrConfig.
func Load() (*Config, error) {
	for _, file := range dotenvFiles {
		// Skip logging when absent (e.g. env from a scheduler's secret store).
		if err := godotenv.Load(file); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("Failed to load env file", "file", file, "error", err)
		}
	}

	provider := strings.ToLower(getEnv("EMBEDDING_PROVIDER", EmbeddingProviderNomic))

	cfg := &Config{
		LogLevel: getEnv("LOG_LEVEL", defaultLogLevel),

		StoreBackend:    strings.ToLower(getEnv("STORE_BACKEND", StoreBackendSupabase)),
		SupabaseURL:     strings.TrimRight(getEnv("SUPABASE_URL", os.Getenv("NEXT_PUBLIC_SUPABASE_URL")), "/"),
		SupabaseKey:     os.Getenv("SUPABASE_SERVICE_ROLE_KEY"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		CoursesTable:    getEnv("COURSES_TABLE", defaultCoursesTable),
		StoreMaxRetries: getEnvAsInt("STORE_MAX_RETRIES", 0),

		CatalogURL:      getEnv("CATALOG_URL", defaultCatalogURL),
		Terms:           getEnvAsList("CATALOG_TERMS", []string{defaultCatalogTerms}),
		Keywords:        getEnvAsList("CATALOG_KEYWORDS", DefaultKeywords()),
		FetchMaxRetries: getEnvAsInt("FETCH_MAX_RETRIES", 0),

		EmbeddingProvider:      provider,
		EmbeddingAPIKey:        embeddingAPIKey(provider),
		EmbeddingModel:         getEnv("EMBEDDING_MODEL", defaultEmbeddingModel(provider)),
		EmbeddingDimensions:    getEnvAsInt("EMBEDDING_DIMENSIONS", defaultEmbeddingDims),
		EmbeddingBatchSize:     getEnvAsInt("EMBEDDING_BATCH_SIZE", defaultEmbeddingBatch),
		EmbeddingFailurePolicy: strings.ToLower(getEnv("EMBEDDING_FAILURE_POLICY", EmbeddingFailureSkip)),
		EmbeddingMaxRetries:    getEnvAsInt("EMBEDDING_MAX_RETRIES", 0),

		SearchThreshold: getEnvAsFloat("SEARCH_MATCH_THRESHOLD", defaultSearchThreshold),
		SearchLimit:     getEnvAsInt("SEARCH_MATCH_COUNT", defaultSearchLimit),

		OtelMetricsExporter: os.Getenv("OTEL_METRICS_EXPORTER"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks required settings and value ranges.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreBackendSupabase:
		if c.SupabaseURL == "" {
			return ingesterrors.NewConfigError("SUPABASE_URL", "")
		}
		if c.SupabaseKey == "" {
			return ingesterrors.NewConfigError("SUPABASE_SERVICE_ROLE_KEY", "")
		}
	case StoreBackendPostgres:
		if c.DatabaseURL == "" {
			return ingesterrors.NewConfigError("DATABASE_URL", "")
		}
	default:
		return ingesterrors.NewConfigError("STORE_BACKEND", "must be supabase or postgres, got "+strconv.Quote(c.StoreBackend))
	}

	if c.CoursesTable == "" {
		return ingesterrors.NewConfigError("COURSES_TABLE", "must not be empty")
	}

	if len(c.Terms) == 0 {
		return ingesterrors.NewConfigError("CATALOG_TERMS", "at least one term is required")
	}

	if len(c.Keywords) == 0 {
		return ingesterrors.NewConfigError("CATALOG_KEYWORDS", "at least one keyword is required")
	}

	switch c.EmbeddingProvider {
	case EmbeddingProviderNomic, EmbeddingProviderOpenAI, EmbeddingProviderGoogle:
	default:
		return ingesterrors.NewConfigError("EMBEDDING_PROVIDER", "must be nomic, openai or google, got "+strconv.Quote(c.EmbeddingProvider))
	}

	if c.EmbeddingDimensions <= 0 {
		return ingesterrors.NewConfigError("EMBEDDING_DIMENSIONS", "must be a positive integer")
	}

	if c.EmbeddingBatchSize <= 0 {
		return ingesterrors.NewConfigError("EMBEDDING_BATCH_SIZE", "must be a positive integer")
	}

	switch c.EmbeddingFailurePolicy {
	case EmbeddingFailureSkip, EmbeddingFailureZero:
	default:
		return ingesterrors.NewConfigError("EMBEDDING_FAILURE_POLICY", "must be skip or zero, got "+strconv.Quote(c.EmbeddingFailurePolicy))
	}

	if c.FetchMaxRetries < 0 || c.EmbeddingMaxRetries < 0 || c.StoreMaxRetries < 0 {
		return ingesterrors.NewConfigError("*_MAX_RETRIES", "must not be negative")
	}

	if c.SearchLimit <= 0 {
		return ingesterrors.NewConfigError("SEARCH_MATCH_COUNT", "must be a positive integer")
	}

	return nil
}

// HasEmbeddingCredential reports whether real embeddings can be produced.
// Without one the job writes zero vectors.
func (c *Config) HasEmbeddingCredential() bool {
	return c.EmbeddingAPIKey != ""
}

func embeddingAPIKey(provider string) string {
	switch provider {
	case EmbeddingProviderOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	case EmbeddingProviderGoogle:
		return getEnv("GEMINI_API_KEY", os.Getenv("GOOGLE_API_KEY"))
	default:
		return os.Getenv("NOMIC_API_KEY")
	}
}

func defaultEmbeddingModel(provider string) string {
	switch provider {
	case EmbeddingProviderOpenAI:
		return defaultOpenAIModel
	case EmbeddingProviderGoogle:
		return defaultGoogleModel
	default:
		return defaultNomicModel
	}
}
