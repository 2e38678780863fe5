// Command fetch-upcoming writes TMDB's upcoming releases to a CSV file.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/David-Botos/movie-ingress/pkg/config"
	"github.com/David-Botos/movie-ingress/pkg/logging"
	"github.com/David-Botos/movie-ingress/pkg/tmdb"
	"github.com/David-Botos/movie-ingress/pkg/upcoming"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newFetchCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newFetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "fetch-upcoming",
		Short:        "Fetch upcoming movie releases from TMDB into a CSV file",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd.Context())
		},
	}
}

func runFetch(ctx context.Context) error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}

	logger, flush, err := logging.Setup(config.LoadLogConfig(), "fetch-upcoming")
	if err != nil {
		return err
	}
	defer flush()

	cfg, err := config.LoadUpcomingConfig()
	if err != nil {
		logger.Error("Invalid configuration", zap.Error(err))
		return err
	}

	client := tmdb.NewClient(cfg.TMDB, nil, logger)
	fetcher := upcoming.NewFetcher(client, cfg.TMDB.Pages, logger)

	n, err := fetcher.Run(ctx, cfg.OutputPath)
	if err != nil {
		logger.Error("Failed to fetch upcoming movies", zap.Error(err))
		return err
	}

	logger.Info("Upcoming movies written",
		zap.String("path", cfg.OutputPath),
		zap.Int("movies", n))

	return nil
}
