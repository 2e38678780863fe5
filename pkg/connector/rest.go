// pkg/connector/rest.go
package connector

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/supabase-community/postgrest-go"
	"go.uber.org/zap"

	"github.com/David-Botos/movie-ingress/pkg/config"
	"github.com/David-Botos/movie-ingress/pkg/model"
)

// RestStore implements TrailerStore over a Supabase project's PostgREST endpoint
type RestStore struct {
	client *postgrest.Client
	logger *zap.Logger
	cfg    *config.SupabaseConfig
}

// NewRestStore creates a PostgREST client authenticated with the configured key
func NewRestStore(cfg *config.SupabaseConfig, logger *zap.Logger) (*RestStore, error) {
	logger = logger.Named("rest-store")

	client := postgrest.NewClient(cfg.RestURL(), cfg.Schema, map[string]string{
		"apikey":        cfg.Key,
		"Authorization": "Bearer " + cfg.Key,
	})
	if client.ClientError != nil {
		return nil, fmt.Errorf("invalid PostgREST URL %s: %w", cfg.RestURL(), client.ClientError)
	}

	logger.Info("PostgREST client ready",
		zap.String("url", cfg.RestURL()),
		zap.String("schema", cfg.Schema),
		zap.Bool("serviceRole", cfg.UsesServiceKey))

	return &RestStore{
		client: client,
		logger: logger,
		cfg:    cfg,
	}, nil
}

// Upsert posts records with merge-duplicates resolution on keyColumn
func (s *RestStore) Upsert(ctx context.Context, table string, records []model.Record, keyColumn string) error {
	if len(records) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// Marshalled here so an encoding failure does not stick to the shared client
	body, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encoding %d records for %s: %w", len(records), table, err)
	}

	_, _, err = s.client.From(table).
		Upsert(json.RawMessage(body), keyColumn, "minimal", "").
		Execute()
	if err != nil {
		return fmt.Errorf("upsert into %s failed: %w", table, err)
	}

	s.logger.Debug("Upserted rows",
		zap.String("table", table),
		zap.Int("rows", len(records)))
	return nil
}

// Count asks PostgREST for an exact count of non-null column values
func (s *RestStore) Count(ctx context.Context, table, column string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	_, count, err := s.client.From(table).
		Select(column, "exact", true).
		Not(column, "is", "null").
		Execute()
	if err != nil {
		return 0, fmt.Errorf("count on %s failed: %w", table, err)
	}
	return count, nil
}

// MissingTrailers returns a page of rows whose youtube_id is null or empty
func (s *RestStore) MissingTrailers(ctx context.Context, table, keyColumn string, offset, limit int) ([]model.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var records []model.Record
	_, err := s.client.From(table).
		Select("*", "", false).
		Or(fmt.Sprintf("%s.is.null,%s.eq.", TrailerColumn, TrailerColumn), "").
		Order(keyColumn, &postgrest.OrderOpts{Ascending: true}).
		Range(offset, offset+limit-1, "").
		ExecuteTo(&records)
	if err != nil {
		return nil, fmt.Errorf("querying %s for missing trailers: %w", table, err)
	}

	return records, nil
}

// SetTrailer patches youtube_id on the row identified by keyColumn
func (s *RestStore) SetTrailer(ctx context.Context, table, keyColumn string, id any, youtubeID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var updated []model.Record
	_, err := s.client.From(table).
		Update(map[string]string{TrailerColumn: youtubeID}, "representation", "").
		Eq(keyColumn, formatKey(id)).
		ExecuteTo(&updated)
	if err != nil {
		return fmt.Errorf("updating %s row %v: %w", table, id, err)
	}
	if len(updated) == 0 {
		return fmt.Errorf("updating %s row %v: no row matched", table, id)
	}
	return nil
}

// Close is a no-op; the PostgREST client holds no connections of its own
func (s *RestStore) Close() error {
	return nil
}

// formatKey renders a key value for a PostgREST filter
func formatKey(id any) string {
	return model.FormatValue(id)
}
