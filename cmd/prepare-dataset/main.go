// Command prepare-dataset downloads the movies dataset, cleans it and writes the canonical CSV.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/David-Botos/movie-ingress/pkg/cleaner"
	"github.com/David-Botos/movie-ingress/pkg/config"
	"github.com/David-Botos/movie-ingress/pkg/dataset"
	"github.com/David-Botos/movie-ingress/pkg/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newPrepareCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newPrepareCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "prepare-dataset",
		Short:        "Download, clean and write the movies dataset as CSV",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrepare(cmd.Context())
		},
	}
}

func runPrepare(ctx context.Context) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}

	logger, flush, err := logging.Setup(config.LoadLogConfig(), "prepare-dataset")
	if err != nil {
		return err
	}
	defer flush()

	cfg, err := config.LoadDatasetConfig()
	if err != nil {
		logger.Error("Invalid configuration", zap.Error(err))
		return err
	}

	dataCleaner, err := cleaner.NewDataCleaner(logger, cfg.DateColumn)
	if err != nil {
		return err
	}

	table, err := dataset.NewLoader(nil, logger).Load(ctx, cfg.Source)
	if err != nil {
		logger.Error("Failed to load dataset", zap.String("source", cfg.Source), zap.Error(err))
		return err
	}

	cleaned, report, err := dataCleaner.Clean(table, cfg.Source)
	if err != nil {
		logger.Error("Failed to clean dataset", zap.Error(err))
		return err
	}

	if err := cleaned.WriteFile(cfg.OutputPath); err != nil {
		logger.Error("Failed to write dataset", zap.String("path", cfg.OutputPath), zap.Error(err))
		return err
	}

	dataCleaner.LogReport(report)
	logger.Info("Dataset written",
		zap.String("path", cfg.OutputPath),
		zap.Int("rows", cleaned.Len()),
		zap.Int("columns", len(cleaned.Columns)))

	return nil
}
