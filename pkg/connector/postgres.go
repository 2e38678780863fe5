// pkg/connector/postgres.go
package connector

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/David-Botos/movie-ingress/pkg/config"
	"github.com/David-Botos/movie-ingress/pkg/model"
)

// PostgresStore implements TrailerStore directly against the project's PostgreSQL database
type PostgresStore struct {
	db     *sqlx.DB
	logger *zap.Logger
	cfg    *config.PostgresConfig
}

// NewPostgresStore creates and initializes a new PostgreSQL store
func NewPostgresStore(ctx context.Context, cfg *config.PostgresConfig, logger *zap.Logger) (*PostgresStore, error) {
	logger = logger.Named("postgres-store")

	// Log connection attempt
	logger.Info("Connecting to PostgreSQL",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database),
		zap.String("user", cfg.User))

	// Unknown DSN keys are sent by pgx as runtime parameters, so the timeout applies to every pooled connection
	connStr := cfg.ConnectionString()
	if cfg.StatementTimeout > 0 {
		connStr += fmt.Sprintf(" statement_timeout=%d", cfg.StatementTimeout.Milliseconds())
	}

	db, err := sqlx.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL connection: %w", err)
	}

	// Configure connection pool
	ApplyConnectionSettings(
		db.DB,
		cfg.MaxOpenConns,
		cfg.MaxIdleConns,
		cfg.ConnMaxLifetime,
		cfg.ConnMaxIdleTime,
	)

	// Verify connection
	if err := PingWithTimeout(ctx, db.DB, 5*time.Second); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	store := &PostgresStore{
		db:     db,
		logger: logger,
		cfg:    cfg,
	}

	LogConnectionStats(logger, cfg.Database, db.DB)
	return store, nil
}

// Upsert writes all records in one INSERT ... ON CONFLICT statement
func (s *PostgresStore) Upsert(ctx context.Context, table string, records []model.Record, keyColumn string) error {
	if len(records) == 0 {
		return nil
	}

	query, args, err := buildUpsertQuery(table, keyColumn, records)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("upsert into %s failed: %w", table, err)
	}

	if rowsAffected, err := result.RowsAffected(); err != nil {
		s.logger.Warn("Couldn't get rows affected", zap.Error(err))
	} else {
		s.logger.Debug("Upserted rows",
			zap.String("table", table),
			zap.Int64("rowsAffected", rowsAffected))
	}

	return nil
}

// Count returns the number of non-null values of column in table
func (s *PostgresStore) Count(ctx context.Context, table, column string) (int64, error) {
	query := fmt.Sprintf("SELECT COUNT(%s) FROM %s", pq.QuoteIdentifier(column), pq.QuoteIdentifier(table))

	var count int64
	if err := s.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("count on %s failed: %w", table, err)
	}
	return count, nil
}

// MissingTrailers returns a page of rows that have no trailer yet
func (s *PostgresStore) MissingTrailers(ctx context.Context, table, keyColumn string, offset, limit int) ([]model.Record, error) {
	trailer := pq.QuoteIdentifier(TrailerColumn)
	query := fmt.Sprintf("SELECT * FROM %s WHERE %s IS NULL OR %s = '' ORDER BY %s LIMIT $1 OFFSET $2",
		pq.QuoteIdentifier(table), trailer, trailer, pq.QuoteIdentifier(keyColumn))

	rows, err := s.db.QueryxContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("querying %s for missing trailers: %w", table, err)
	}
	defer rows.Close()

	var records []model.Record
	for rows.Next() {
		row := make(map[string]interface{})
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", table, err)
		}
		records = append(records, normalizeRow(row))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s rows: %w", table, err)
	}

	return records, nil
}

// SetTrailer stores the YouTube id on one row
func (s *PostgresStore) SetTrailer(ctx context.Context, table, keyColumn string, id any, youtubeID string) error {
	query := fmt.Sprintf("UPDATE %s SET %s = $1 WHERE %s = $2",
		pq.QuoteIdentifier(table), pq.QuoteIdentifier(TrailerColumn), pq.QuoteIdentifier(keyColumn))

	result, err := s.db.ExecContext(ctx, query, youtubeID, id)
	if err != nil {
		return fmt.Errorf("updating %s row %v: %w", table, id, err)
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("updating %s row %v: no row matched", table, id)
	}
	return nil
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	s.logger.Info("Closing PostgreSQL connection")
	LogConnectionStats(s.logger, s.cfg.Database, s.db.DB)
	return s.db.Close()
}

// buildUpsertQuery renders a multi-row upsert. Columns are the sorted union of record keys;
// a record without a column contributes NULL.
func buildUpsertQuery(table, keyColumn string, records []model.Record) (string, []interface{}, error) {
	if len(records) == 0 {
		return "", nil, errors.New("no records to upsert")
	}

	columnSet := make(map[string]struct{})
	for _, record := range records {
		for col := range record {
			columnSet[col] = struct{}{}
		}
	}
	if _, ok := columnSet[keyColumn]; !ok {
		return "", nil, fmt.Errorf("key column %q not present in records", keyColumn)
	}

	columns := make([]string, 0, len(columnSet))
	for col := range columnSet {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = pq.QuoteIdentifier(col)
	}

	// Build placeholders for this batch
	placeholders := make([]string, len(records))
	args := make([]interface{}, 0, len(records)*len(columns))

	for j, record := range records {
		rowPlaceholders := make([]string, len(columns))
		for k, col := range columns {
			paramIndex := j*len(columns) + k + 1
			rowPlaceholders[k] = fmt.Sprintf("$%d", paramIndex)
			args = append(args, record[col])
		}
		placeholders[j] = fmt.Sprintf("(%s)", strings.Join(rowPlaceholders, ", "))
	}

	var updates []string
	for i, col := range columns {
		if col == keyColumn {
			continue
		}
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", quoted[i], quoted[i]))
	}

	conflict := "DO NOTHING"
	if len(updates) > 0 {
		conflict = "DO UPDATE SET " + strings.Join(updates, ", ")
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s ON CONFLICT (%s) %s",
		pq.QuoteIdentifier(table),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "),
		pq.QuoteIdentifier(keyColumn),
		conflict)

	return query, args, nil
}

// normalizeRow turns driver byte slices into strings
func normalizeRow(row map[string]interface{}) model.Record {
	record := make(model.Record, len(row))
	for k, v := range row {
		if b, ok := v.([]byte); ok {
			record[k] = string(b)
			continue
		}
		record[k] = v
	}
	return record
}
