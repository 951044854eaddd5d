package indexer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"predictionScope/internal/model"
)

const (
	DefaultPageSize = 100
	DefaultMaxPages = 30
)

// EventQuerier reads one page of a module's event log.
type EventQuerier interface {
	QueryEvents(ctx context.Context, query model.EventQuery) (model.EventPage, error)
}

// FetchObserver receives fetch statistics. Implementations must be nil-safe.
type FetchObserver interface {
	ObservePages(pages int, events int, truncated bool)
}

// FetchConfig bounds one event scan.
type FetchConfig struct {
	PageSize     int
	MaxPages     int
	MaxRetries   int
	RetryBackoff time.Duration
}

// Fetcher pages through a module's event log in ascending order.
type Fetcher struct {
	cfg      FetchConfig
	source   EventQuerier
	logger   *zap.Logger
	observer FetchObserver
}

// NewFetcher builds a Fetcher with its dependencies. Zero page settings take the defaults.
func NewFetcher(cfg FetchConfig, source EventQuerier, observer FetchObserver, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = DefaultMaxPages
	}
	return &Fetcher{cfg: cfg, source: source, logger: logger, observer: observer}
}

// Fetch returns the module's events oldest first. The scan stops when the node reports no
// further page or after MaxPages pages, whichever comes first; events past the cap are not
// returned. Events repeated across a page boundary are kept once; events without a complete id
// are always kept.
func (f *Fetcher) Fetch(ctx context.Context, packageID, module string) ([]model.RawEvent, error) {
	if f.source == nil {
		return nil, fmt.Errorf("event source is nil")
	}
	if packageID == "" {
		return nil, fmt.Errorf("package id: %w", model.ErrConfigurationMissing)
	}

	seen := make(map[string]struct{})
	var (
		events    []model.RawEvent
		cursor    *model.EventID
		pages     int
		truncated bool
	)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		query := model.EventQuery{
			Package: packageID,
			Module:  module,
			Cursor:  cursor,
			Limit:   f.cfg.PageSize,
		}
		page, err := f.queryPage(ctx, query, pages)
		if err != nil {
			return nil, fmt.Errorf("query events page %d: %w", pages, err)
		}
		pages++

		for _, evt := range page.Data {
			if evt.ID.Complete() {
				key := evt.ID.Key()
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
			}
			events = append(events, evt)
		}

		if !page.HasNextPage || page.NextCursor == nil {
			break
		}
		if pages >= f.cfg.MaxPages {
			truncated = true
			f.logger.Warn("fetch truncated", zap.Int("pages", pages), zap.Int("events", len(events)), zap.String("module", module))
			break
		}
		cursor = page.NextCursor
	}

	if f.observer != nil {
		f.observer.ObservePages(pages, len(events), truncated)
	}
	f.logger.Debug("fetch complete", zap.Int("pages", pages), zap.Int("events", len(events)), zap.String("module", module))
	return events, nil
}

// queryPage issues one page query. A failed page is fatal unless MaxRetries opts into further
// attempts; cancellation is never retried.
func (f *Fetcher) queryPage(ctx context.Context, query model.EventQuery, page int) (model.EventPage, error) {
	retries := f.cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	delay := f.cfg.RetryBackoff
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}

	for attempt := 0; ; attempt++ {
		out, err := f.source.QueryEvents(ctx, query)
		if err == nil {
			return out, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return model.EventPage{}, err
		}
		f.logger.Warn("query events failed",
			zap.Error(err),
			zap.Int("page", page),
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", retries+1),
		)
		if attempt >= retries {
			return model.EventPage{}, err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return model.EventPage{}, ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
}
