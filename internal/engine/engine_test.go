package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"predictionScope/internal/cache"
	"predictionScope/internal/model"
	"predictionScope/internal/observability"
)

const (
	pkgID    = "0xpkg"
	marketID = "0xmarket"
	user     = "0xa11ce"
)

type fakeReader struct {
	mu         sync.Mutex
	objects    map[string]model.ObjectSnapshot
	events     []model.RawEvent
	balance    uint64
	objectErr  error
	eventsErr  error
	multiCalls [][]string
}

func (f *fakeReader) GetObject(_ context.Context, id string) (model.ObjectSnapshot, error) {
	if f.objectErr != nil {
		return model.ObjectSnapshot{}, f.objectErr
	}
	if obj, ok := f.objects[id]; ok {
		return obj, nil
	}
	return model.ObjectSnapshot{ID: id}, nil
}

func (f *fakeReader) MultiGetObjects(_ context.Context, ids []string) ([]model.ObjectSnapshot, error) {
	f.mu.Lock()
	f.multiCalls = append(f.multiCalls, ids)
	f.mu.Unlock()
	out := make([]model.ObjectSnapshot, 0, len(ids))
	for _, id := range ids {
		obj, ok := f.objects[id]
		if !ok {
			obj = model.ObjectSnapshot{ID: id}
		}
		out = append(out, obj)
	}
	return out, nil
}

func (f *fakeReader) QueryEvents(_ context.Context, _ model.EventQuery) (model.EventPage, error) {
	if f.eventsErr != nil {
		return model.EventPage{}, f.eventsErr
	}
	return model.EventPage{Data: f.events}, nil
}

func (f *fakeReader) GetBalance(_ context.Context, _ string) (uint64, error) {
	return f.balance, nil
}

func rawEvent(t *testing.T, digest, kind string, ts uint64, payload map[string]any) model.RawEvent {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return model.RawEvent{
		ID:          model.EventID{TxDigest: digest, EventSeq: "0"},
		Sender:      "0xcreator",
		Type:        json.RawMessage(fmt.Sprintf("%q", pkgID+"::market::"+kind)),
		ParsedJSON:  body,
		TimestampMs: json.RawMessage(fmt.Sprintf("%q", fmt.Sprint(ts))),
	}
}

func newFixture(t *testing.T) *fakeReader {
	return &fakeReader{
		objects: map[string]model.ObjectSnapshot{
			marketID: {ID: marketID, Fields: map[string]any{
				"admin": "0xAD",
				"rounds": map[string]any{"contents": []any{
					map[string]any{"round_id": "1", "close_timestamp_ms": "1000", "total_yes": "500"},
				}},
				"principal_vault": map[string]any{"value": "900"},
				"strategy_apr_bps": "300",
			}},
			"0xmeta2": {ID: "0xmeta2", Fields: map[string]any{"round_id": "2", "question": "ETH flips BTC?"}},
		},
		events: []model.RawEvent{
			rawEvent(t, "D1", "RoundCreated", 10, map[string]any{"round_id": "2", "close_timestamp_ms": "2000", "metadata_id": "0xmeta2"}),
			rawEvent(t, "D2", "BetPlaced", 20, map[string]any{"round_id": "2", "side": 1, "amount": "100", "user": user}),
			rawEvent(t, "D3", "BetPlaced", 30, map[string]any{"round_id": "2", "side": 2, "amount": "40", "user": user}),
			rawEvent(t, "D4", "BetPlaced", 40, map[string]any{"round_id": "1", "side": 1, "amount": "7", "user": user}),
		},
		balance: 5_000,
	}
}

func newEngine(reader *fakeReader, c MetadataCache) *Engine {
	cfg := Config{PackageID: pkgID, MarketID: marketID}
	return NewEngine(cfg, reader, c, observability.NewMetrics(prometheus.NewRegistry()), nil)
}

func TestListMarkets(t *testing.T) {
	reader := newFixture(t)

	markets, err := newEngine(reader, nil).ListMarkets(context.Background())
	require.NoError(t, err)

	require.Len(t, markets, 2)
	assert.Equal(t, uint64(2), markets[0].RoundID)
	assert.Equal(t, "ETH flips BTC?", markets[0].Question)
	assert.Equal(t, uint64(100), markets[0].TotalYes)
	assert.Equal(t, uint64(0), markets[0].TotalNo)
	assert.Equal(t, "D1", markets[0].CreateDigest)

	assert.Equal(t, uint64(1), markets[1].RoundID)
	assert.Equal(t, uint64(500), markets[1].TotalYes)
	assert.Equal(t, "Round #1", markets[1].Question)
}

func TestListMarketsUsesMetadataCache(t *testing.T) {
	reader := newFixture(t)
	metaCache := cache.NewMemoryMetadataCache()
	eng := newEngine(reader, metaCache)

	_, err := eng.ListMarkets(context.Background())
	require.NoError(t, err)
	markets, err := eng.ListMarkets(context.Background())
	require.NoError(t, err)

	assert.Len(t, reader.multiCalls, 1)
	assert.Equal(t, "ETH flips BTC?", markets[0].Question)
}

func TestListMarketsFailsOnEventError(t *testing.T) {
	reader := newFixture(t)
	reader.eventsErr = fmt.Errorf("down: %w", model.ErrFetchFailure)

	_, err := newEngine(reader, nil).ListMarkets(context.Background())
	assert.ErrorIs(t, err, model.ErrFetchFailure)
}

func TestListMarketsRequiresIDs(t *testing.T) {
	eng := NewEngine(Config{PackageID: pkgID}, newFixture(t), nil, nil, nil)

	_, err := eng.ListMarkets(context.Background())
	assert.ErrorIs(t, err, model.ErrConfigurationMissing)
}

func TestGetPortfolio(t *testing.T) {
	reader := newFixture(t)

	portfolio, err := newEngine(reader, nil).GetPortfolio(context.Background(), user)
	require.NoError(t, err)

	assert.Equal(t, uint64(5_000), portfolio.WalletBalance)
	assert.Equal(t, uint64(147), portfolio.TotalStaked)
	require.Len(t, portfolio.Positions, 2)
	assert.Equal(t, uint64(140), portfolio.ByRound[2].Total)
	assert.Equal(t, "D4", portfolio.History[0].Digest)
}

func TestGetPortfolioEmptyIdentity(t *testing.T) {
	reader := newFixture(t)
	reader.eventsErr = errors.New("must not be called")

	portfolio, err := newEngine(reader, nil).GetPortfolio(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, portfolio.Positions)
}

func TestStrategyAndAdmin(t *testing.T) {
	eng := newEngine(newFixture(t), nil)

	metrics, err := eng.GetStrategyMetrics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(900), metrics.PrincipalVault)
	assert.Equal(t, uint64(300), metrics.StrategyAprBps)

	admin, err := eng.MarketAdmin(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0xad", admin)
}

func TestStrategyMissingObjectReadsZero(t *testing.T) {
	reader := newFixture(t)
	delete(reader.objects, marketID)

	metrics, err := newEngine(reader, nil).GetStrategyMetrics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.StrategyMetrics{}, metrics)
}

func TestStrategyPropagatesFetchFailure(t *testing.T) {
	reader := newFixture(t)
	reader.objectErr = fmt.Errorf("down: %w", model.ErrFetchFailure)

	_, err := newEngine(reader, nil).GetStrategyMetrics(context.Background())
	assert.ErrorIs(t, err, model.ErrFetchFailure)
}
