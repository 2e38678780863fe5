// Command import-movies upserts the cleaned movies CSV into the remote table in batches.
package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/David-Botos/movie-ingress/pkg/config"
	"github.com/David-Botos/movie-ingress/pkg/connector"
	"github.com/David-Botos/movie-ingress/pkg/logging"
	"github.com/David-Botos/movie-ingress/pkg/transfer"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newImportCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "import-movies",
		Short:        "Upsert the movies CSV into the remote table in batches",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context())
		},
	}
}

func runImport(ctx context.Context) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}

	logger, flush, err := logging.Setup(config.LoadLogConfig(), "import-movies")
	if err != nil {
		return err
	}
	defer flush()

	cfg, err := config.LoadImportConfig()
	if err != nil {
		logger.Error("Invalid configuration",
			zap.Stringer("category", transfer.ErrorCategoryConfiguration),
			zap.Error(err))
		return err
	}

	store, err := connector.NewStoreFactory(cfg.Store, logger).CreateStore(ctx)
	if err != nil {
		logger.Error("Failed to open store", zap.Error(err))
		return err
	}
	defer store.Close()

	importer := transfer.NewImporter(store, cfg, logger)
	summary, err := importer.Run(ctx, cfg.CSVPath)
	if err != nil {
		logger.Error("Import aborted",
			zap.String("path", cfg.CSVPath),
			zap.Error(err))
		return err
	}

	fields := []zap.Field{
		zap.String("runID", summary.RunID),
		zap.String("table", summary.Table),
		zap.Int("totalRows", summary.TotalRows),
		zap.Int("rowsImported", summary.RowsImported()),
		zap.Int("batches", summary.TotalBatches),
		zap.Int("failedBatches", len(summary.Failed())),
		zap.Bool("verified", summary.Verified),
		zap.Duration("duration", importer.Metrics().Duration()),
		zap.Float64("rowsPerSecond", importer.Metrics().CalculateThroughput()),
	}
	if summary.Verified {
		fields = append(fields, zap.Int64("storedRows", summary.StoredRows))
	}
	logger.Info("Import summary", fields...)
	importer.Errors().LogSummary(logger)

	if metrics, err := importer.Metrics().ToJSON(); err == nil {
		logger.Debug("Run metrics", zap.Any("metrics", json.RawMessage(metrics)))
	}

	return nil
}
