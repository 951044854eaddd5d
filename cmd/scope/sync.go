package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"predictionScope/internal/cache"
	"predictionScope/internal/config"
	"predictionScope/internal/export"
	"predictionScope/internal/indexer"
	"predictionScope/internal/model"
	"predictionScope/internal/storage"
	"predictionScope/internal/storage/postgres"
)

const syncStateName = "projections"

func runSync(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadSync(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Out == "" && cfg.PGDSN == "" {
		return fmt.Errorf("output: %w: set --out or --pg-dsn", model.ErrConfigurationMissing)
	}
	addresses, err := indexer.ParseObjectIDs(cfg.Addresses)
	if err != nil {
		return fmt.Errorf("address: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng, closeFn, err := openEngine(ctx, cfg.Config, cache.NewMemoryMetadataCache(), nil, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	var sinks []storage.Storage
	if cfg.Out != "" {
		sinks = append(sinks, storage.NewJsonlStorage(cfg.Out))
	}

	var stateStore export.StateStore
	if cfg.StateFile != "" {
		stateStore = &export.FileStateStore{Path: cfg.StateFile, Name: syncStateName}
	}
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		sinks = append(sinks, store)
		if stateStore == nil {
			stateStore = &export.DBStateStore{Store: store, Name: syncStateName}
		}
	}

	logger.Info("sync start",
		zap.String("out", cfg.Out),
		zap.Bool("postgres", cfg.PGDSN != ""),
		zap.Int("addresses", len(addresses)),
		zap.Bool("force", cfg.Force),
	)

	result, err := export.NewExporter(eng, sinks, stateStore, logger).Run(ctx, export.Options{
		Addresses: addresses,
		Force:     cfg.Force,
	})
	if err != nil {
		return err
	}
	if result.Skipped {
		fmt.Fprintln(cmd.OutOrStdout(), "unchanged, nothing written")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "exported %d markets and %d portfolios\n", result.Markets, result.Portfolios)
	return nil
}
