package refresh

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// FetchFunc produces a fresh value of a view.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// State is the last known value of a view. Err is the error of the most recent refresh and is
// cleared by the next successful one; Value keeps the last good value across failures.
type State[T any] struct {
	Value     T
	Loaded    bool
	UpdatedAt time.Time
	Err       error
}

// Poller refreshes one view on a fixed interval and on demand.
type Poller[T any] struct {
	name     string
	interval time.Duration
	fetch    FetchFunc[T]
	logger   *zap.Logger
	onUpdate func(T)

	trigger chan struct{}

	mu    sync.RWMutex
	state State[T]
}

// NewPoller builds a Poller. onUpdate, if set, is called after every successful refresh.
func NewPoller[T any](name string, interval time.Duration, fetch FetchFunc[T], onUpdate func(T), logger *zap.Logger) *Poller[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller[T]{
		name:     name,
		interval: interval,
		fetch:    fetch,
		logger:   logger,
		onUpdate: onUpdate,
		trigger:  make(chan struct{}, 1),
	}
}

// Name returns the view name.
func (p *Poller[T]) Name() string {
	return p.name
}

// Run refreshes immediately, then on every tick and trigger until ctx is done.
func (p *Poller[T]) Run(ctx context.Context) error {
	if p.interval <= 0 {
		p.refreshLogged(ctx)
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.refreshLogged(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-p.trigger:
		}
		p.refreshLogged(ctx)
	}
}

// Trigger requests a refresh without waiting for it. Requests made while one is pending coalesce.
func (p *Poller[T]) Trigger() {
	select {
	case p.trigger <- struct{}{}:
	default:
	}
}

// Refresh fetches a new value and stores it. Concurrent refreshes store their results in the
// order they resolve.
func (p *Poller[T]) Refresh(ctx context.Context) (T, error) {
	value, err := p.fetch(ctx)

	p.mu.Lock()
	if err != nil {
		p.state.Err = err
		p.mu.Unlock()
		var zero T
		return zero, err
	}
	p.state = State[T]{Value: value, Loaded: true, UpdatedAt: time.Now().UTC()}
	p.mu.Unlock()

	if p.onUpdate != nil {
		p.onUpdate(value)
	}
	return value, nil
}

// Latest returns the last known state.
func (p *Poller[T]) Latest() State[T] {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

func (p *Poller[T]) refreshLogged(ctx context.Context) {
	if _, err := p.Refresh(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		p.logger.Warn("refresh failed", zap.String("view", p.name), zap.Error(err))
	}
}
