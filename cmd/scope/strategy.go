package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"predictionScope/internal/config"
	"predictionScope/internal/decode"
	"predictionScope/internal/indexer"
)

func runStrategy(cmd *cobra.Command, _ []string) error {
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

	eng, closeFn, err := openEngine(ctx, cfg, nil, nil, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	metrics, err := eng.GetStrategyMetrics(ctx)
	if err != nil {
		return err
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return writeJSON(cmd.OutOrStdout(), metrics)
	}
	return renderTable(cmd.OutOrStdout(), []string{"metric", "value"}, strategyRows(metrics))
}

func runAdmin(cmd *cobra.Command, args []string) error {
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

	eng, closeFn, err := openEngine(ctx, cfg, nil, nil, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	admin, err := eng.MarketAdmin(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(args) == 0 {
		fmt.Fprintln(out, admin)
		return nil
	}
	identity, err := indexer.ParseObjectID(args[0])
	if err != nil {
		return fmt.Errorf("address: %w", err)
	}
	isAdmin := admin != "" && decode.NormalizeAddress(admin) == identity
	fmt.Fprintf(out, "admin: %s\nis admin: %t\n", admin, isAdmin)
	return nil
}
