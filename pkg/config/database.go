// pkg/config/database.go
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
)

// Store drivers
const (
	DriverREST     = "rest"
	DriverPostgres = "postgres"
)

// StoreConfig selects and configures the remote table store
type StoreConfig struct {
	Driver   string
	Supabase *SupabaseConfig
	Postgres *PostgresConfig
}

// SupabaseConfig holds the PostgREST endpoint and access key of a Supabase project
type SupabaseConfig struct {
	URL            string
	Key            string
	Schema         string
	UsesServiceKey bool
}

// PostgresConfig holds PostgreSQL connection parameters
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	// Statement timeout
	StatementTimeout time.Duration
}

// LoadStoreConfig loads the configuration of the driver named by STORE_DRIVER
func LoadStoreConfig() (*StoreConfig, error) {
	driver := strings.ToLower(getEnv("STORE_DRIVER", DriverREST))

	cfg := &StoreConfig{Driver: driver}
	switch driver {
	case DriverREST:
		sb, err := LoadSupabaseConfig()
		if err != nil {
			return nil, err
		}
		cfg.Supabase = sb
	case DriverPostgres:
		pg, err := LoadPostgresConfig()
		if err != nil {
			return nil, err
		}
		cfg.Postgres = pg
	default:
		return nil, fmt.Errorf("unsupported STORE_DRIVER %q (want %q or %q)", driver, DriverREST, DriverPostgres)
	}

	return cfg, nil
}

// LoadSupabaseConfig loads the Supabase endpoint and key.
// The VITE_ names are accepted so the frontend's .env can be reused as is.
func LoadSupabaseConfig() (*SupabaseConfig, error) {
	endpoint := getEnvFirst("SUPABASE_URL", "VITE_SUPABASE_URL")
	if endpoint == "" {
		return nil, missingEnv("SUPABASE_URL")
	}
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("SUPABASE_URL is not a valid URL: %w", err)
	}

	serviceKey := os.Getenv("SUPABASE_SERVICE_ROLE_KEY")
	key := getEnvFirst("SUPABASE_KEY", "SUPABASE_SERVICE_ROLE_KEY", "SUPABASE_ANON_KEY", "VITE_SUPABASE_ANON_KEY")
	if key == "" {
		return nil, missingEnv("SUPABASE_KEY")
	}

	return &SupabaseConfig{
		URL:            strings.TrimRight(endpoint, "/"),
		Key:            key,
		Schema:         getEnv("SUPABASE_SCHEMA", "public"),
		UsesServiceKey: serviceKey != "" && key == serviceKey,
	}, nil
}

// RestURL returns the PostgREST root of the project
func (c *SupabaseConfig) RestURL() string {
	if strings.HasSuffix(c.URL, "/rest/v1") {
		return c.URL
	}
	return c.URL + "/rest/v1"
}

// LoadPostgresConfig loads PostgreSQL configuration from environment variables
func LoadPostgresConfig() (*PostgresConfig, error) {
	user := os.Getenv("POSTGRES_USER")
	if user == "" {
		return nil, missingEnv("POSTGRES_USER")
	}

	password := os.Getenv("POSTGRES_PASSWORD")
	if password == "" {
		return nil, missingEnv("POSTGRES_PASSWORD")
	}

	database := os.Getenv("POSTGRES_DB")
	if database == "" {
		return nil, missingEnv("POSTGRES_DB")
	}

	cfg := &PostgresConfig{
		Host:     getEnv("POSTGRES_HOST", "localhost"),
		Port:     getEnvAsInt("POSTGRES_PORT", 5432),
		User:     user,
		Password: password,
		Database: database,
		SSLMode:  getEnv("POSTGRES_SSLMODE", "require"),

		MaxOpenConns:     getEnvAsInt("POSTGRES_MAX_OPEN_CONNS", 4),
		MaxIdleConns:     getEnvAsInt("POSTGRES_MAX_IDLE_CONNS", 2),
		ConnMaxLifetime:  time.Duration(getEnvAsInt("POSTGRES_CONN_MAX_LIFETIME_SECONDS", 1800)) * time.Second,
		ConnMaxIdleTime:  time.Duration(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_TIME_SECONDS", 600)) * time.Second,
		StatementTimeout: time.Duration(getEnvAsInt("POSTGRES_STATEMENT_TIMEOUT_SECONDS", 60)) * time.Second,
	}

	return cfg, nil
}

// ConnectionString returns a keyword/value PostgreSQL connection string.
// Values are single quoted so passwords may hold spaces or quotes.
func (c *PostgresConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		quoteConnValue(c.Host),
		c.Port,
		quoteConnValue(c.User),
		quoteConnValue(c.Password),
		quoteConnValue(c.Database),
		quoteConnValue(c.SSLMode),
	)
}

var connValueEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

func quoteConnValue(v string) string {
	return "'" + connValueEscaper.Replace(v) + "'"
}
