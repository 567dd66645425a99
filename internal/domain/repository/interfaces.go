package repository

import (
	"context"
	"time"

	"StockPulse/internal/domain/models"
)

// QuoteSource produces a price snapshot for a set of symbols. It never
// fails outright: a per-symbol fetch error degrades to a fallback value
// for that symbol, so the snapshot always has one entry per symbol.
type QuoteSource interface {
	FetchSnapshot(ctx context.Context, symbols []string) models.Snapshot
}

// Notifier delivers an alert event to an external sink. Best-effort:
// transport failures are logged by the implementation, never returned.
type Notifier interface {
	Notify(ctx context.Context, event models.AlertEvent)
}

// SnapshotStore is the freshness gate over the latest snapshot.
type SnapshotStore interface {
	Set(ctx context.Context, snap models.Snapshot)
	Get(ctx context.Context, maxAge time.Duration) (models.Snapshot, bool)
}

// Metrics records operational counters for the distribution loop.
type Metrics interface {
	RecordTick(seconds float64)
	RecordCacheLookup(hit bool)
	RecordFallback(symbol string)
	RecordLastPrice(symbol string, price float64)
	RecordAlertFired(symbol string)
	SetSubscribers(n int)
	RecordSubscriberDropped()
	RecordError(kind string)
}
