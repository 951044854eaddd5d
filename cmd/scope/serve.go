package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"predictionScope/internal/cache"
	"predictionScope/internal/config"
	"predictionScope/internal/engine"
	"predictionScope/internal/httpapi"
	"predictionScope/internal/indexer"
	"predictionScope/internal/model"
	"predictionScope/internal/observability"
	"predictionScope/internal/refresh"
)

const shutdownTimeout = 5 * time.Second

func runServe(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadServe(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	identities, err := indexer.ParseObjectIDs(cfg.Identities)
	if err != nil {
		return fmt.Errorf("identity: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(registry)

	var metaCache engine.MetadataCache = cache.NewMemoryMetadataCache()
	if cfg.RedisAddr != "" {
		rdb, err := cache.ConnectRedis(ctx, cfg.RedisAddr)
		if err != nil {
			return err
		}
		defer rdb.Close()
		metaCache = cache.NewRedisMetadataCache(rdb, cfg.MetadataTTL)
	}

	eng, closeFn, err := openEngine(ctx, cfg.Config, metaCache, metrics, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	api := &httpapi.API{
		Portfolios: make(map[string]*refresh.Poller[model.Portfolio], len(identities)),
		OnDemand:   eng,
		Logger:     logger,
	}
	api.Hub = httpapi.NewHub(func(*http.Request) bool { return true }, func(topic string) (any, bool) {
		switch topic {
		case httpapi.TopicMarkets:
			state := api.Markets.Latest()
			return state.Value, state.Loaded
		case httpapi.TopicStrategy:
			state := api.Strategy.Latest()
			return state.Value, state.Loaded
		default:
			return nil, false
		}
	}, logger)

	api.Markets = refresh.NewPoller[[]model.MarketState](engine.ViewMarkets, cfg.MarketsInterval, eng.ListMarkets, func(v []model.MarketState) {
		api.Hub.Broadcast(httpapi.TopicMarkets, v)
	}, logger)
	api.Strategy = refresh.NewPoller[model.StrategyMetrics](engine.ViewStrategy, cfg.StrategyInterval, eng.GetStrategyMetrics, func(v model.StrategyMetrics) {
		api.Hub.Broadcast(httpapi.TopicStrategy, v)
	}, logger)
	api.Admin = refresh.NewPoller[string](engine.ViewAdmin, cfg.AdminInterval, eng.MarketAdmin, nil, logger)
	for _, identity := range identities {
		identity := identity
		api.Portfolios[identity] = refresh.NewPoller[model.Portfolio](engine.ViewPortfolio, cfg.PortfolioInterval, func(ctx context.Context) (model.Portfolio, error) {
			return eng.GetPortfolio(ctx, identity)
		}, nil, logger)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ignoreCanceled(api.Markets.Run(gctx)) })
	g.Go(func() error { return ignoreCanceled(api.Strategy.Run(gctx)) })
	g.Go(func() error { return ignoreCanceled(api.Admin.Run(gctx)) })
	for _, p := range api.Portfolios {
		p := p
		g.Go(func() error { return ignoreCanceled(p.Run(gctx)) })
	}

	servers := []*http.Server{{Addr: cfg.Listen, Handler: api.Router(), ReadHeaderTimeout: 10 * time.Second}}
	if cfg.MetricsListen != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", observability.Handler(registry))
		servers = append(servers, &http.Server{Addr: cfg.MetricsListen, Handler: mux, ReadHeaderTimeout: 10 * time.Second})
	}
	for _, srv := range servers {
		srv := srv
		g.Go(func() error {
			logger.Info("http listen", zap.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve %s: %w", srv.Addr, err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	logger.Info("serve start",
		zap.String("listen", cfg.Listen),
		zap.String("metrics_listen", cfg.MetricsListen),
		zap.Int("identities", len(identities)),
		zap.Bool("redis", cfg.RedisAddr != ""),
	)
	return g.Wait()
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
