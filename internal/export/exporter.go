package export

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"predictionScope/internal/model"
	"predictionScope/internal/storage"
)

const portfolioConcurrency = 4

// Source produces the projections to export.
type Source interface {
	ListMarkets(ctx context.Context) ([]model.MarketState, error)
	GetPortfolio(ctx context.Context, identity string) (model.Portfolio, error)
}

// Options selects what one export run covers.
type Options struct {
	Addresses []string
	Force     bool
}

// Result summarizes one export run.
type Result struct {
	Markets     int
	Portfolios  int
	Fingerprint string
	Skipped     bool
}

// Exporter runs one refresh cycle and writes the projections to every sink.
type Exporter struct {
	source Source
	sinks  []storage.Storage
	state  StateStore
	logger *zap.Logger
}

// NewExporter builds an Exporter. state may be nil, in which case every run writes.
func NewExporter(source Source, sinks []storage.Storage, state StateStore, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{source: source, sinks: sinks, state: state, logger: logger}
}

// Run reads markets and the requested portfolios, and writes them unless they are unchanged
// since the last run and Force is unset.
func (e *Exporter) Run(ctx context.Context, opts Options) (Result, error) {
	if e.source == nil {
		return Result{}, fmt.Errorf("export source is nil")
	}

	markets, err := e.source.ListMarkets(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list markets: %w", err)
	}

	portfolios := make([]model.Portfolio, len(opts.Addresses))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(portfolioConcurrency)
	for i, addr := range opts.Addresses {
		i, addr := i, addr
		g.Go(func() error {
			p, err := e.source.GetPortfolio(gctx, addr)
			if err != nil {
				return fmt.Errorf("portfolio %s: %w", addr, err)
			}
			portfolios[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	fingerprint, err := Fingerprint(markets, portfolios)
	if err != nil {
		return Result{}, err
	}
	result := Result{Markets: len(markets), Portfolios: len(portfolios), Fingerprint: fingerprint}

	if e.state != nil && !opts.Force {
		last, ok, err := e.state.Load(ctx)
		if err != nil {
			return Result{}, fmt.Errorf("load sync state: %w", err)
		}
		if ok && last == fingerprint {
			e.logger.Info("projections unchanged", zap.String("fingerprint", fingerprint))
			result.Skipped = true
			return result, nil
		}
	}

	for _, sink := range e.sinks {
		if err := sink.PutMarkets(ctx, markets); err != nil {
			return Result{}, fmt.Errorf("store markets: %w", err)
		}
		for _, p := range portfolios {
			if err := sink.PutPortfolio(ctx, p); err != nil {
				return Result{}, fmt.Errorf("store portfolio %s: %w", p.Owner, err)
			}
		}
	}

	if e.state != nil {
		if err := e.state.Save(ctx, fingerprint); err != nil {
			return Result{}, fmt.Errorf("save sync state: %w", err)
		}
	}

	e.logger.Info("export complete",
		zap.Int("markets", result.Markets),
		zap.Int("portfolios", result.Portfolios),
		zap.String("fingerprint", fingerprint),
	)
	return result, nil
}

// Fingerprint hashes the JSON form of the projections. Equal projections hash equal because
// slices are already ordered and map keys are sorted by the encoder.
func Fingerprint(markets []model.MarketState, portfolios []model.Portfolio) (string, error) {
	data, err := json.Marshal(struct {
		Markets    []model.MarketState `json:"markets"`
		Portfolios []model.Portfolio   `json:"portfolios"`
	}{markets, portfolios})
	if err != nil {
		return "", fmt.Errorf("marshal projections: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
