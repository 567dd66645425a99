// Package snapshot holds the most recent price snapshot behind an age
// gate. It knows nothing about how snapshots are produced.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"StockPulse/internal/domain/models"
	"StockPulse/pkg/cache"
	xlogger "StockPulse/pkg/logger"
)

const (
	// cacheKey is the single key holding the latest snapshot blob.
	cacheKey = "prices:snapshot"
	// backendTTL is the hard expiry on the shared backend; freshness
	// inside it is judged per Get via maxAge.
	backendTTL = 60 * time.Second
)

// payload is the stored blob: capture time plus the points.
type payload struct {
	CapturedAt time.Time       `json:"captured_at"`
	Data       models.Snapshot `json:"data"`
}

// Cache is the snapshot freshness gate. When a shared backend (Redis) is
// configured it is tried first; any backend fault degrades to the
// in-process store with identical semantics.
type Cache struct {
	primary  cache.Service // optional shared backend
	fallback cache.Service
	logger   *xlogger.Logger

	now func() time.Time
}

// NewCache creates a snapshot cache. primary may be nil for a pure
// in-process cache.
func NewCache(primary cache.Service, logger *xlogger.Logger) *Cache {
	return &Cache{
		primary:  primary,
		fallback: cache.NewMemoryCache(),
		logger:   logger,
		now:      time.Now,
	}
}

// Set stores the snapshot together with its capture timestamp, replacing
// any prior value.
func (c *Cache) Set(ctx context.Context, snap models.Snapshot) {
	p := payload{CapturedAt: c.now(), Data: snap}
	blob, err := json.Marshal(p)
	if err != nil {
		c.logger.Error("snapshot encode failed", xlogger.Error(err))
		return
	}

	// the in-process copy is written unconditionally so a backend
	// outage mid-run still leaves the latest snapshot reachable
	if err := c.fallback.Set(ctx, cacheKey, blob, backendTTL); err != nil {
		c.logger.Error("in-process snapshot store failed", xlogger.Error(err))
	}

	if c.primary != nil {
		if err := c.primary.Set(ctx, cacheKey, blob, backendTTL); err != nil {
			c.logger.Warn("cache backend set failed, serving from in-process store", xlogger.Error(err))
		}
	}
}

// Get returns the stored snapshot only if it is no older than maxAge.
// Stale, missing, or unreadable entries are a miss, never an error.
func (c *Cache) Get(ctx context.Context, maxAge time.Duration) (models.Snapshot, bool) {
	var blob []byte
	found := false

	if c.primary != nil {
		err := c.primary.Get(ctx, cacheKey, &blob)
		switch {
		case err == nil:
			found = true
		case errors.Is(err, cache.ErrCacheMiss):
			// fall through to the in-process store
		default:
			c.logger.Warn("cache backend get failed, using in-process store", xlogger.Error(err))
		}
	}

	if !found {
		if err := c.fallback.Get(ctx, cacheKey, &blob); err != nil {
			return nil, false
		}
	}

	var p payload
	if err := json.Unmarshal(blob, &p); err != nil {
		c.logger.Warn("snapshot decode failed, treating as miss", xlogger.Error(err))
		return nil, false
	}

	if c.now().Sub(p.CapturedAt) > maxAge {
		return nil, false
	}
	return p.Data, true
}

// Close releases the in-process store. The shared backend's lifecycle
// belongs to whoever constructed it.
func (c *Cache) Close() {
	_ = c.fallback.Close()
}
