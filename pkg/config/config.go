// pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingEnv is returned when a required environment variable is unset
var ErrMissingEnv = errors.New("required environment variable is missing")

// LogConfig holds logger settings shared by every command
type LogConfig struct {
	Level  string
	Format string
}

// ImportConfig holds everything the batch importer needs
type ImportConfig struct {
	Store     *StoreConfig
	CSVPath   string
	Table     string
	KeyColumn string
	BatchSize int
	Log       LogConfig
}

// DatasetConfig holds the dataset preparer settings
type DatasetConfig struct {
	Source     string
	OutputPath string
	DateColumn string
	Log        LogConfig
}

// UpcomingConfig holds the upcoming-movies fetcher settings
type UpcomingConfig struct {
	TMDB       *TMDBConfig
	OutputPath string
	Log        LogConfig
}

// BackfillConfig holds the trailer backfill settings
type BackfillConfig struct {
	Store         *StoreConfig
	TMDB          *TMDBConfig
	Tables        []string
	KeyColumn     string
	TrailersTable string
	PageSize      int
	Log           LogConfig
}

// TMDBConfig holds TMDB API client settings
type TMDBConfig struct {
	APIKey      string
	BaseURL     string
	Language    string
	Pages       int
	RateLimit   int
	RateWindow  time.Duration
	HTTPTimeout time.Duration
}

const (
	// DefaultBatchSize is the number of records sent per upsert call
	DefaultBatchSize = 100

	// DefaultDatasetSource is the public movies dataset the preparer starts from
	DefaultDatasetSource = "https://huggingface.co/datasets/Pablinho/movies-dataset/resolve/main/9000plus.csv"

	// DefaultTMDBBaseURL is the TMDB v3 API root
	DefaultTMDBBaseURL = "https://api.themoviedb.org/3"
)

// LoadDotEnv loads variables from the given files, or ./.env when none are
// named, without overriding variables already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", file, err)
		}
	}
	return nil
}

// LoadLogConfig reads logger settings from the environment
func LoadLogConfig() LogConfig {
	return LogConfig{
		Level:  getEnv("LOG_LEVEL", "info"),
		Format: getEnv("LOG_FORMAT", "json"),
	}
}

// LoadImportConfig loads the importer configuration from environment variables.
// Store credentials are checked before anything else so a misconfigured run
// never touches the input file.
func LoadImportConfig() (*ImportConfig, error) {
	store, err := LoadStoreConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load store configuration: %w", err)
	}

	cfg := &ImportConfig{
		Store:     store,
		CSVPath:   getEnv("IMPORT_CSV_PATH", "data/movies.csv"),
		Table:     getEnv("IMPORT_TABLE", "movies"),
		KeyColumn: getEnv("IMPORT_KEY_COLUMN", "Id"),
		BatchSize: getEnvAsInt("IMPORT_BATCH_SIZE", DefaultBatchSize),
		Log:       LoadLogConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures the importer configuration is usable
func (c *ImportConfig) Validate() error {
	if c.Store == nil {
		return errors.New("store configuration is required")
	}
	if c.BatchSize <= 0 {
		return errors.New("batch size must be positive")
	}
	if c.Table == "" {
		return errors.New("import table cannot be empty")
	}
	if c.KeyColumn == "" {
		return errors.New("import key column cannot be empty")
	}
	return nil
}

// LoadDatasetConfig loads the dataset preparer configuration
func LoadDatasetConfig() (*DatasetConfig, error) {
	cfg := &DatasetConfig{
		Source:     getEnv("DATASET_SOURCE", DefaultDatasetSource),
		OutputPath: getEnv("DATASET_OUTPUT_PATH", "data/movies.csv"),
		DateColumn: getEnv("DATASET_DATE_COLUMN", "Release_date"),
		Log:        LoadLogConfig(),
	}

	if cfg.OutputPath == "" {
		return nil, errors.New("dataset output path cannot be empty")
	}

	return cfg, nil
}

// LoadUpcomingConfig loads the upcoming-movies fetcher configuration
func LoadUpcomingConfig() (*UpcomingConfig, error) {
	tmdb, err := LoadTMDBConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load TMDB configuration: %w", err)
	}

	return &UpcomingConfig{
		TMDB:       tmdb,
		OutputPath: getEnv("UPCOMING_OUTPUT_PATH", "upcoming_movies.csv"),
		Log:        LoadLogConfig(),
	}, nil
}

// LoadBackfillConfig loads the trailer backfill configuration
func LoadBackfillConfig() (*BackfillConfig, error) {
	store, err := LoadStoreConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load store configuration: %w", err)
	}

	tmdb, err := LoadTMDBConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load TMDB configuration: %w", err)
	}

	cfg := &BackfillConfig{
		Store:         store,
		TMDB:          tmdb,
		Tables:        getEnvAsStringSlice("BACKFILL_TABLES", []string{"movies", "upcoming_movies", "new_releases"}),
		KeyColumn:     getEnv("BACKFILL_KEY_COLUMN", "id"),
		TrailersTable: getEnv("BACKFILL_TRAILERS_TABLE", "trailers"),
		PageSize:      getEnvAsInt("BACKFILL_PAGE_SIZE", 200),
		Log:           LoadLogConfig(),
	}

	if cfg.PageSize <= 0 {
		return nil, errors.New("backfill page size must be positive")
	}

	return cfg, nil
}

// LoadTMDBConfig loads TMDB API settings from environment variables
func LoadTMDBConfig() (*TMDBConfig, error) {
	apiKey := os.Getenv("TMDB_API_KEY")
	if apiKey == "" {
		return nil, missingEnv("TMDB_API_KEY")
	}

	cfg := &TMDBConfig{
		APIKey:      apiKey,
		BaseURL:     strings.TrimRight(getEnv("TMDB_BASE_URL", DefaultTMDBBaseURL), "/"),
		Language:    getEnv("TMDB_LANGUAGE", "en-US"),
		Pages:       getEnvAsInt("TMDB_PAGES", 1),
		RateLimit:   getEnvAsInt("TMDB_RATE_LIMIT", 40),
		RateWindow:  time.Duration(getEnvAsInt("TMDB_RATE_WINDOW_SECONDS", 10)) * time.Second,
		HTTPTimeout: time.Duration(getEnvAsInt("TMDB_TIMEOUT_SECONDS", 30)) * time.Second,
	}

	if cfg.Pages <= 0 {
		return nil, errors.New("TMDB_PAGES must be positive")
	}

	return cfg, nil
}

func missingEnv(name string) error {
	return fmt.Errorf("%s environment variable is required: %w", name, ErrMissingEnv)
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvFirst returns the first non-empty value among keys
func getEnvFirst(keys ...string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return ""
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsStringSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var result []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			result = append(result, v)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}

	return result
}
