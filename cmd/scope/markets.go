package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"predictionScope/internal/cache"
	"predictionScope/internal/config"
)

func runMarkets(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng, closeFn, err := openEngine(ctx, cfg, cache.NewMemoryMetadataCache(), nil, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	markets, err := eng.ListMarkets(ctx)
	if err != nil {
		return err
	}
	logger.Info("markets loaded", zap.Int("markets", len(markets)))

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return writeJSON(cmd.OutOrStdout(), markets)
	}
	return renderTable(cmd.OutOrStdout(),
		[]string{"round", "question", "close", "yes", "no", "yield", "status"},
		marketRows(markets),
	)
}
