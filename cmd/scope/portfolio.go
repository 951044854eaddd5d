package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"predictionScope/internal/config"
	"predictionScope/internal/indexer"
)

func runPortfolio(cmd *cobra.Command, args []string) error {
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

	owner, err := indexer.ParseObjectID(args[0])
	if err != nil {
		return fmt.Errorf("address: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng, closeFn, err := openEngine(ctx, cfg, nil, nil, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	portfolio, err := eng.GetPortfolio(ctx, owner)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return writeJSON(out, portfolio)
	}

	fmt.Fprintf(out, "owner:          %s\n", portfolio.Owner)
	fmt.Fprintf(out, "wallet balance: %s\n", formatCoin(portfolio.WalletBalance))
	fmt.Fprintf(out, "total staked:   %s\n\n", formatCoin(portfolio.TotalStaked))
	if err := renderTable(out, []string{"round", "yes", "no", "total"}, positionRows(portfolio.Positions)); err != nil {
		return err
	}
	fmt.Fprintln(out)
	return renderTable(out, []string{"time", "action", "round", "side", "amount", "digest"}, activityRows(portfolio.History))
}
