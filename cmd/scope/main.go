package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"predictionScope/internal/chain"
	"predictionScope/internal/config"
	"predictionScope/internal/engine"
	"predictionScope/internal/indexer"
	"predictionScope/internal/model"
	"predictionScope/internal/observability"
)

func main() {
	root := &cobra.Command{
		Use:          "scope",
		Short:        "Prediction market state reconciliation client",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	marketsCmd := &cobra.Command{
		Use:   "markets",
		Short: "List every round with pools and resolution",
		RunE:  runMarkets,
	}
	addBaseFlags(marketsCmd)
	marketsCmd.Flags().Bool("json", false, "print JSON instead of a table")
	root.AddCommand(marketsCmd)

	portfolioCmd := &cobra.Command{
		Use:   "portfolio <address>",
		Short: "Show one participant's positions and history",
		Args:  cobra.ExactArgs(1),
		RunE:  runPortfolio,
	}
	addBaseFlags(portfolioCmd)
	portfolioCmd.Flags().Bool("json", false, "print JSON instead of tables")
	root.AddCommand(portfolioCmd)

	strategyCmd := &cobra.Command{
		Use:   "strategy",
		Short: "Show yield strategy balances of the market object",
		RunE:  runStrategy,
	}
	addBaseFlags(strategyCmd)
	strategyCmd.Flags().Bool("json", false, "print JSON instead of a table")
	root.AddCommand(strategyCmd)

	adminCmd := &cobra.Command{
		Use:   "admin [address]",
		Short: "Show the market admin, or check whether address is the admin",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runAdmin,
	}
	addBaseFlags(adminCmd)
	root.AddCommand(adminCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Poll the ledger and serve projections over HTTP and websocket",
		RunE:  runServe,
	}
	addBaseFlags(serveCmd)
	serveCmd.Flags().String("listen", ":8080", "HTTP listen address")
	serveCmd.Flags().String("metrics-listen", ":9095", "metrics listen address, empty to disable")
	serveCmd.Flags().Duration("markets-interval", 4*time.Second, "markets refresh interval")
	serveCmd.Flags().Duration("portfolio-interval", 6*time.Second, "portfolio refresh interval")
	serveCmd.Flags().Duration("strategy-interval", 4*time.Second, "strategy refresh interval")
	serveCmd.Flags().Duration("admin-interval", 10*time.Second, "admin refresh interval")
	serveCmd.Flags().String("redis-addr", "", "optional Redis address for the metadata cache")
	serveCmd.Flags().Duration("metadata-ttl", 0, "Redis metadata entry TTL, 0 keeps entries")
	serveCmd.Flags().StringSlice("identity", nil, "addresses whose portfolios are polled (comma-separated)")
	root.AddCommand(serveCmd)

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Export projections to JSONL and/or Postgres",
		RunE:  runSync,
	}
	addBaseFlags(syncCmd)
	syncCmd.Flags().String("pg-dsn", "", "optional Postgres DSN")
	syncCmd.Flags().String("out", "./data/projections.jsonl", "output JSONL path, empty to disable")
	syncCmd.Flags().String("state-file", "", "optional local state file for change detection")
	syncCmd.Flags().StringSlice("address", nil, "addresses whose portfolios are exported (comma-separated)")
	syncCmd.Flags().Bool("force", false, "write even when projections are unchanged")
	root.AddCommand(syncCmd)

	priceCmd := &cobra.Command{
		Use:   "price",
		Short: "Read a token price and settle it against a target",
		RunE:  runPrice,
	}
	priceCmd.Flags().String("price-api", "https://api.coingecko.com/api/v3/onchain", "price API base URL")
	priceCmd.Flags().String("price-api-key", "", "price API key")
	priceCmd.Flags().String("price-network", "", "network id of the token")
	priceCmd.Flags().String("token", "", "token address")
	priceCmd.Flags().Int64("target-e6", 0, "target price in millionths")
	priceCmd.Flags().Uint8("comparator", 1, "1: YES when price >= target, 2: YES when price <= target")
	priceCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.AddCommand(priceCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addBaseFlags(cmd *cobra.Command) {
	cmd.Flags().String("rpc", "", "ledger JSON-RPC URL")
	cmd.Flags().String("package-id", "", "market package id")
	cmd.Flags().String("market-id", "", "shared market object id")
	cmd.Flags().String("module", engine.DefaultModule, "module emitting the market events")
	cmd.Flags().Int("page-size", indexer.DefaultPageSize, "events per page")
	cmd.Flags().Int("max-pages", indexer.DefaultMaxPages, "maximum event pages per scan")
	cmd.Flags().Int("max-retries", 0, "retries per failed event page (0 fails the cycle on the first error)")
	cmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

// openEngine validates identifiers and dials the node. The returned func closes the connection.
func openEngine(ctx context.Context, cfg config.Config, cache engine.MetadataCache, metrics *observability.Metrics, logger *zap.Logger) (*engine.Engine, func(), error) {
	if cfg.RPCURL == "" {
		return nil, nil, fmt.Errorf("rpc url: %w", model.ErrConfigurationMissing)
	}
	packageID, err := indexer.ParseObjectID(cfg.PackageID)
	if err != nil {
		return nil, nil, fmt.Errorf("package id: %w", err)
	}
	var marketID string
	if cfg.MarketID != "" {
		if marketID, err = indexer.ParseObjectID(cfg.MarketID); err != nil {
			return nil, nil, fmt.Errorf("market id: %w", err)
		}
	}

	client, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect rpc: %w", err)
	}

	eng := engine.NewEngine(engine.Config{
		PackageID: packageID,
		MarketID:  marketID,
		Module:    cfg.Module,
		Fetch: indexer.FetchConfig{
			PageSize:     cfg.PageSize,
			MaxPages:     cfg.MaxPages,
			MaxRetries:   cfg.MaxRetries,
			RetryBackoff: cfg.RetryBackoff,
		},
	}, client, cache, metrics, logger)

	logger.Debug("engine ready",
		zap.String("rpc", cfg.RPCURL),
		zap.String("package_id", packageID),
		zap.String("market_id", marketID),
		zap.String("module", cfg.Module),
	)
	return eng, client.Close, nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
