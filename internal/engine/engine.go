package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"predictionScope/internal/chain"
	"predictionScope/internal/decode"
	"predictionScope/internal/indexer"
	"predictionScope/internal/model"
	"predictionScope/internal/observability"
	"predictionScope/internal/projection"
)

const DefaultModule = "zero_loss_prediction_market"

// View names used for metrics and logs.
const (
	ViewMarkets   = "markets"
	ViewPortfolio = "portfolio"
	ViewStrategy  = "strategy"
	ViewAdmin     = "admin"
)

// MetadataCache stores round metadata by object id.
type MetadataCache interface {
	GetMetadata(ctx context.Context, ids []string) (map[string]model.RoundMetadata, error)
	PutMetadata(ctx context.Context, entries []model.RoundMetadata) error
}

// Config identifies the deployed contract.
type Config struct {
	PackageID string
	MarketID  string
	Module    string
	Fetch     indexer.FetchConfig
}

// Engine runs the refresh cycles: it reads the ledger and folds what it read into projections.
// Every call is a fresh read; the engine keeps no projection state between calls.
type Engine struct {
	cfg     Config
	reader  chain.Reader
	fetcher *indexer.Fetcher
	cache   MetadataCache
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewEngine builds an Engine. cache and metrics may be nil.
func NewEngine(cfg Config, reader chain.Reader, cache MetadataCache, metrics *observability.Metrics, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Module == "" {
		cfg.Module = DefaultModule
	}
	return &Engine{
		cfg:     cfg,
		reader:  reader,
		fetcher: indexer.NewFetcher(cfg.Fetch, reader, metrics, logger),
		cache:   cache,
		metrics: metrics,
		logger:  logger,
	}
}

// ListMarkets reads the market object and the event log concurrently, then projects every round.
func (e *Engine) ListMarkets(ctx context.Context) (markets []model.MarketState, err error) {
	started := time.Now()
	defer func() { e.metrics.ObserveRefresh(ViewMarkets, started, err) }()

	if err := e.requireMarket(); err != nil {
		return nil, err
	}

	var (
		snapshot model.ObjectSnapshot
		events   []model.NormalizedEvent
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snapshot, err = e.reader.GetObject(gctx, e.cfg.MarketID)
		if err != nil {
			return fmt.Errorf("read market object: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		events, err = e.events(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rows := decode.CollectRoundLike(decode.Value(snapshot.Fields, "rounds"))
	metadata, err := e.resolveMetadata(ctx, projection.MetadataIDs(events))
	if err != nil {
		return nil, err
	}

	markets = projection.ProjectMarkets(rows, events, metadata)
	e.logger.Debug("markets projected", zap.Int("rows", len(rows)), zap.Int("events", len(events)), zap.Int("markets", len(markets)))
	return markets, nil
}

// GetPortfolio replays the event log for identity and reads its wallet balance concurrently.
func (e *Engine) GetPortfolio(ctx context.Context, identity string) (portfolio model.Portfolio, err error) {
	started := time.Now()
	defer func() { e.metrics.ObserveRefresh(ViewPortfolio, started, err) }()

	if identity == "" {
		return projection.ProjectPortfolio(nil, "", 0), nil
	}
	if e.cfg.PackageID == "" {
		return model.Portfolio{}, fmt.Errorf("package id: %w", model.ErrConfigurationMissing)
	}

	var (
		events  []model.NormalizedEvent
		balance uint64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		events, err = e.events(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		balance, err = e.reader.GetBalance(gctx, identity)
		if err != nil {
			return fmt.Errorf("read wallet balance: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return model.Portfolio{}, err
	}

	return projection.ProjectPortfolio(events, identity, balance), nil
}

// GetStrategyMetrics reads the market object's strategy balances. A missing object reads as zeros.
func (e *Engine) GetStrategyMetrics(ctx context.Context) (metrics model.StrategyMetrics, err error) {
	started := time.Now()
	defer func() { e.metrics.ObserveRefresh(ViewStrategy, started, err) }()

	fields, err := e.marketFields(ctx)
	if err != nil {
		return model.StrategyMetrics{}, err
	}
	return projection.ReadStrategy(fields), nil
}

// MarketAdmin returns the lowercased admin address of the market object.
func (e *Engine) MarketAdmin(ctx context.Context) (admin string, err error) {
	started := time.Now()
	defer func() { e.metrics.ObserveRefresh(ViewAdmin, started, err) }()

	fields, err := e.marketFields(ctx)
	if err != nil {
		return "", err
	}
	return projection.ReadAdmin(fields), nil
}

func (e *Engine) requireMarket() error {
	if e.cfg.PackageID == "" {
		return fmt.Errorf("package id: %w", model.ErrConfigurationMissing)
	}
	if e.cfg.MarketID == "" {
		return fmt.Errorf("market id: %w", model.ErrConfigurationMissing)
	}
	return nil
}

func (e *Engine) marketFields(ctx context.Context) (map[string]any, error) {
	if e.cfg.MarketID == "" {
		return nil, fmt.Errorf("market id: %w", model.ErrConfigurationMissing)
	}
	snapshot, err := e.reader.GetObject(ctx, e.cfg.MarketID)
	if err != nil {
		return nil, fmt.Errorf("read market object: %w", err)
	}
	return snapshot.Fields, nil
}

func (e *Engine) events(ctx context.Context) ([]model.NormalizedEvent, error) {
	raws, err := e.fetcher.Fetch(ctx, e.cfg.PackageID, e.cfg.Module)
	if err != nil {
		return nil, fmt.Errorf("fetch events: %w", err)
	}
	events := decode.NormalizeAll(raws)
	e.metrics.ObserveEvents(events)
	return events, nil
}

// resolveMetadata serves metadata from the cache and reads the misses in one batch. Cache
// failures are logged and treated as misses.
func (e *Engine) resolveMetadata(ctx context.Context, ids []string) ([]model.RoundMetadata, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	cached := map[string]model.RoundMetadata{}
	if e.cache != nil {
		hits, err := e.cache.GetMetadata(ctx, ids)
		if err != nil {
			e.logger.Warn("metadata cache read failed", zap.Error(err))
		} else {
			cached = hits
		}
	}

	out := make([]model.RoundMetadata, 0, len(ids))
	var missing []string
	for _, id := range ids {
		if meta, ok := cached[id]; ok {
			out = append(out, meta)
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		e.metrics.ObserveMetadata(len(out), 0)
		return out, nil
	}

	snapshots, err := e.reader.MultiGetObjects(ctx, missing)
	if err != nil {
		return nil, fmt.Errorf("read round metadata: %w", err)
	}
	fetched := make([]model.RoundMetadata, 0, len(snapshots))
	for _, snapshot := range snapshots {
		meta, ok := projection.ReadRoundMetadata(snapshot)
		if !ok {
			continue
		}
		fetched = append(fetched, meta)
	}
	e.metrics.ObserveMetadata(len(out), len(fetched))

	if e.cache != nil && len(fetched) > 0 {
		if err := e.cache.PutMetadata(ctx, fetched); err != nil {
			e.logger.Warn("metadata cache write failed", zap.Error(err))
		}
	}
	return append(out, fetched...), nil
}
