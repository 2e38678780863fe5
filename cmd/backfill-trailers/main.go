// Command backfill-trailers looks up a YouTube trailer for every movie row that lacks one.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/David-Botos/movie-ingress/pkg/config"
	"github.com/David-Botos/movie-ingress/pkg/connector"
	"github.com/David-Botos/movie-ingress/pkg/logging"
	"github.com/David-Botos/movie-ingress/pkg/tmdb"
	"github.com/David-Botos/movie-ingress/pkg/transfer"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newBackfillCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newBackfillCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "backfill-trailers",
		Short:        "Fill missing youtube_id values from TMDB trailer lookups",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackfill(cmd.Context())
		},
	}
}

func runBackfill(ctx context.Context) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}

	logger, flush, err := logging.Setup(config.LoadLogConfig(), "backfill-trailers")
	if err != nil {
		return err
	}
	defer flush()

	cfg, err := config.LoadBackfillConfig()
	if err != nil {
		logger.Error("Invalid configuration",
			zap.Stringer("category", transfer.ErrorCategoryConfiguration),
			zap.Error(err))
		return err
	}

	if cfg.Store.Driver == config.DriverREST && !cfg.Store.Supabase.UsesServiceKey {
		logger.Warn("Not using SUPABASE_SERVICE_ROLE_KEY; row level security may block updates")
	}

	store, err := connector.NewStoreFactory(cfg.Store, logger).CreateStore(ctx)
	if err != nil {
		logger.Error("Failed to open store", zap.Error(err))
		return err
	}
	defer store.Close()

	worker := transfer.NewTrailerWorker(store, tmdb.NewClient(cfg.TMDB, nil, logger), logger).
		WithKeyColumn(cfg.KeyColumn).
		WithTrailersTable(cfg.TrailersTable).
		WithPageSize(cfg.PageSize)

	summary, err := worker.Run(ctx, cfg.Tables)
	if err != nil {
		logger.Error("Backfill interrupted", zap.Error(err))
		return err
	}

	for _, t := range summary.Tables {
		logger.Info("Table result",
			zap.String("table", t.Table),
			zap.Int("processed", t.Processed),
			zap.Int("updated", t.Updated),
			zap.Int("skipped", t.Skipped))
	}
	logger.Info("Backfill finished",
		zap.Int("updated", summary.TotalUpdated()),
		zap.Duration("duration", worker.Metrics().Duration()))
	worker.Errors().LogSummary(logger)
	logger.Debug(worker.Metrics().GenerateMetricsReport())

	if failed := summary.FailedTables(); len(failed) > 0 {
		return fmt.Errorf("could not query tables %v", failed)
	}
	return nil
}
