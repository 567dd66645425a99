// Package finnhub implements the QuoteSource against Finnhub's /quote
// REST endpoint, with a deterministic per-symbol mock fallback so the
// snapshot always has one entry per requested symbol.
package finnhub

import (
	"context"
	"math"
	"math/rand"
	"time"

	"StockPulse/internal/domain/models"
	"StockPulse/internal/domain/repository"
	"StockPulse/internal/service/ratelimit"
	xhttp "StockPulse/pkg/http"
	xlogger "StockPulse/pkg/logger"
	"StockPulse/pkg/util"
)

// mockBases are the anchor prices used when a real quote is unavailable.
var mockBases = map[string]float64{
	"AAPL": 190,
	"TSLA": 180,
	"NVDA": 1100,
	"MSFT": 420,
}

const defaultMockBase = 100

// Config holds quote source configuration.
type Config struct {
	APIKey       string
	QuoteURL     string
	FetchTimeout time.Duration
	// MockOnly skips the upstream API entirely. Fixed at construction;
	// there is no runtime toggle.
	MockOnly   bool
	RatePerSec float64
	Burst      float64
}

// Client implements repository.QuoteSource.
type Client struct {
	cfg     Config
	http    *xhttp.Client
	limiter *ratelimit.Limiter
	logger  *xlogger.Logger
	metrics repository.Metrics
}

// New creates a Finnhub quote client. Without an API key it runs in
// mock-only mode.
func New(cfg Config, logger *xlogger.Logger, metrics repository.Metrics) *Client {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 5 * time.Second
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 10
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 30
	}
	if cfg.APIKey == "" && !cfg.MockOnly {
		logger.Warn("finnhub api key not set, using mock prices only")
		cfg.MockOnly = true
	}
	if metrics == nil {
		metrics = repository.NopMetrics{}
	}
	return &Client{
		cfg:     cfg,
		http:    xhttp.NewClient(xhttp.WithTimeout(cfg.FetchTimeout)),
		limiter: ratelimit.New(),
		logger:  logger,
		metrics: metrics,
	}
}

// FetchSnapshot returns one PricePoint per requested symbol, all stamped
// with the same observation time. It never fails: a per-symbol error
// degrades to the mock value for that symbol only.
func (c *Client) FetchSnapshot(ctx context.Context, symbols []string) models.Snapshot {
	now := time.Now().UTC()

	snap := make(models.Snapshot, 0, len(symbols))
	for _, sym := range symbols {
		sym = util.NormalizeSymbol(sym)
		if c.cfg.MockOnly {
			snap = append(snap, c.mockPoint(sym, now))
			continue
		}

		if !c.limiter.Allow("quote", c.cfg.Burst, c.cfg.RatePerSec) {
			c.logger.Debug("quote rate limited, using mock value", xlogger.String("symbol", sym))
			c.metrics.RecordFallback(sym)
			snap = append(snap, c.mockPoint(sym, now))
			continue
		}

		point, err := c.fetchQuote(ctx, sym, now)
		if err != nil {
			c.logger.Warn("quote fetch failed, using mock value",
				xlogger.String("symbol", sym), xlogger.Error(err))
			c.metrics.RecordError("fetch")
			c.metrics.RecordFallback(sym)
			snap = append(snap, c.mockPoint(sym, now))
			continue
		}
		snap = append(snap, point)
	}

	return snap
}

// quoteResponse carries the Finnhub /quote fields we use:
// c = current price, pc = previous close.
type quoteResponse struct {
	Current   float64 `json:"c"`
	PrevClose float64 `json:"pc"`
}

func (c *Client) fetchQuote(ctx context.Context, symbol string, now time.Time) (models.PricePoint, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.FetchTimeout)
	defer cancel()

	var q quoteResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: "GET",
		URL:    c.cfg.QuoteURL,
		QueryParams: map[string][]string{
			"symbol": {symbol},
			"token":  {c.cfg.APIKey},
		},
	}, &q)
	if err != nil {
		return models.PricePoint{}, err
	}

	current := q.Current
	prevClose := q.PrevClose
	if prevClose == 0 {
		prevClose = current
	}

	change := current - prevClose
	percent := 0.0
	if prevClose != 0 {
		percent = change / prevClose * 100
	}

	return models.PricePoint{
		Symbol:        symbol,
		Price:         current,
		Change:        change,
		PercentChange: percent,
		ObservedAt:    now,
	}, nil
}

func (c *Client) mockPoint(symbol string, now time.Time) models.PricePoint {
	base, ok := mockBases[symbol]
	if !ok {
		base = defaultMockBase
	}

	price := base + rand.Float64()*6 - 3
	if price < 1 {
		price = 1
	}
	change := rand.Float64()*4 - 2
	percent := 0.0
	if price != 0 {
		percent = change / price * 100
	}

	return models.PricePoint{
		Symbol:        symbol,
		Price:         round2(price),
		Change:        round2(change),
		PercentChange: round2(percent),
		ObservedAt:    now,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
