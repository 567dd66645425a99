// Package usecase wires the refresh cycle: obtain a snapshot, fan it out,
// evaluate alerts, dispatch fired events.
package usecase

import (
	"context"
	"time"

	"StockPulse/internal/alert"
	"StockPulse/internal/domain/models"
	"StockPulse/internal/domain/repository"
	"StockPulse/internal/stream"
	xlogger "StockPulse/pkg/logger"
)

// DistributorConfig holds the loop's cadence and symbol set.
type DistributorConfig struct {
	Symbols []string
	// Interval is the fixed tick period.
	Interval time.Duration
	// Freshness is the maximum cached-snapshot age accepted without a
	// refetch.
	Freshness time.Duration
}

// Distributor drives the periodic distribution cycle. All mutation of
// shared state (snapshot store, rule trigger times) happens inside the
// synchronous tick body, which runs in exactly one goroutine.
type Distributor struct {
	cfg      DistributorConfig
	source   repository.QuoteSource
	store    repository.SnapshotStore
	engine   *alert.Engine
	registry *stream.Registry
	notifier repository.Notifier
	metrics  repository.Metrics
	logger   *xlogger.Logger

	done chan struct{}
}

// NewDistributor creates the distribution loop.
func NewDistributor(
	cfg DistributorConfig,
	source repository.QuoteSource,
	store repository.SnapshotStore,
	engine *alert.Engine,
	registry *stream.Registry,
	notifier repository.Notifier,
	metrics repository.Metrics,
	logger *xlogger.Logger,
) *Distributor {
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Second
	}
	if cfg.Freshness <= 0 {
		cfg.Freshness = 15 * time.Second
	}
	if metrics == nil {
		metrics = repository.NopMetrics{}
	}
	return &Distributor{
		cfg:      cfg,
		source:   source,
		store:    store,
		engine:   engine,
		registry: registry,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start launches the tick loop. It returns immediately; the loop stops
// when ctx is cancelled, which interrupts the inter-tick wait promptly.
func (d *Distributor) Start(ctx context.Context) {
	go d.run(ctx)
}

// Done is closed once the loop has fully stopped.
func (d *Distributor) Done() <-chan struct{} {
	return d.done
}

func (d *Distributor) run(ctx context.Context) {
	defer close(d.done)

	d.logger.Info("distribution loop started",
		xlogger.Strings("symbols", d.cfg.Symbols),
		xlogger.Duration("interval", d.cfg.Interval))

	// first update goes out immediately, not one period late
	d.tick(ctx)

	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("distribution loop stopped")
			return
		case <-ticker.C:
			// single goroutine: an overrunning tick delays the next
			// one, it never runs concurrently with it
			d.tick(ctx)
		}
	}
}

// tick is one execution of the distribution cycle. No collaborator fault
// aborts it.
func (d *Distributor) tick(ctx context.Context) {
	start := time.Now()

	snap := d.Snapshot(ctx)

	d.registry.Broadcast(models.NewPriceUpdateMessage(snap))
	for _, p := range snap {
		d.metrics.RecordLastPrice(p.Symbol, p.Price)
	}

	events := d.engine.Evaluate(snap)
	for _, event := range events {
		d.logger.Info("alert fired",
			xlogger.Int("rule_id", event.RuleID),
			xlogger.String("symbol", event.Symbol),
			xlogger.Float64("price", event.Price))
		d.metrics.RecordAlertFired(event.Symbol)

		d.notifier.Notify(ctx, event)
		d.registry.Broadcast(models.NewAlertMessage(event))
	}

	d.metrics.RecordTick(time.Since(start).Seconds())
}

// Snapshot returns the current snapshot: the cached one when fresh
// enough, otherwise a new fetch that is stored for the next consumer.
// Shared by the tick loop and the REST debug endpoint.
func (d *Distributor) Snapshot(ctx context.Context) models.Snapshot {
	snap, ok := d.store.Get(ctx, d.cfg.Freshness)
	d.metrics.RecordCacheLookup(ok)
	if ok {
		return snap
	}

	snap = d.source.FetchSnapshot(ctx, d.cfg.Symbols)
	d.store.Set(ctx, snap)
	return snap
}

// CachedSnapshot returns the fresh cached snapshot if one exists; it
// never triggers a fetch. Used for the immediate push to a newly
// connected subscriber.
func (d *Distributor) CachedSnapshot(ctx context.Context) (models.Snapshot, bool) {
	return d.store.Get(ctx, d.cfg.Freshness)
}
