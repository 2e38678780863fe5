// pkg/connector/factory.go
package connector

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/David-Botos/movie-ingress/pkg/config"
)

// StoreFactory creates the store selected by configuration
type StoreFactory struct {
	cfg    *config.StoreConfig
	logger *zap.Logger
}

// NewStoreFactory creates a new store factory
func NewStoreFactory(cfg *config.StoreConfig, logger *zap.Logger) *StoreFactory {
	return &StoreFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateStore opens the configured store
func (f *StoreFactory) CreateStore(ctx context.Context) (TrailerStore, error) {
	switch f.cfg.Driver {
	case config.DriverREST:
		f.logger.Info("Creating PostgREST store", zap.String("url", f.cfg.Supabase.RestURL()))
		store, err := NewRestStore(f.cfg.Supabase, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create PostgREST store: %w", err)
		}
		return store, nil

	case config.DriverPostgres:
		f.logger.Info("Creating PostgreSQL store")
		store, err := NewPostgresStore(ctx, f.cfg.Postgres, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create PostgreSQL store: %w", err)
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unsupported store driver %q", f.cfg.Driver)
	}
}
