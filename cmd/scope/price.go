package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"predictionScope/internal/config"
	"predictionScope/internal/pricefeed"
)

func runPrice(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadPrice(cfgFile, cmd.Flags())
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

	client := pricefeed.NewClient(cfg.APIKey, pricefeed.WithBaseURL(cfg.APIBase))
	price, err := client.TokenPrice(ctx, cfg.Network, cfg.Token)
	if err != nil {
		return err
	}

	side := pricefeed.OutcomeSide(price, cfg.TargetE6, cfg.Comparator)
	logger.Info("price read",
		zap.String("network", cfg.Network),
		zap.String("token", cfg.Token),
		zap.String("price", price.String()),
		zap.Int64("target_e6", cfg.TargetE6),
		zap.Uint8("comparator", cfg.Comparator),
	)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "price:     %s\n", price.String())
	fmt.Fprintf(out, "price e6:  %d\n", pricefeed.ToE6(price))
	fmt.Fprintf(out, "target e6: %d\n", cfg.TargetE6)
	fmt.Fprintf(out, "outcome:   %s (%d)\n", formatSide(side), side)
	return nil
}
