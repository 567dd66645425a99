package finnhub

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	xlogger "StockPulse/pkg/logger"
)

func testLogger(t *testing.T) *xlogger.Logger {
	t.Helper()
	l, err := xlogger.New(&xlogger.Config{Level: "error", Format: "console", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func TestFetchSnapshotFromQuoteAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("token"); got != "test-key" {
			t.Errorf("missing token, got %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]float64{"c": 205, "pc": 200})
	}))
	defer srv.Close()

	c := New(Config{APIKey: "test-key", QuoteURL: srv.URL}, testLogger(t), nil)

	snap := c.FetchSnapshot(context.Background(), []string{"AAPL"})
	if len(snap) != 1 {
		t.Fatalf("expected 1 point, got %d", len(snap))
	}
	p := snap[0]
	if p.Symbol != "AAPL" || p.Price != 205 {
		t.Fatalf("unexpected point %+v", p)
	}
	if p.Change != 5 {
		t.Fatalf("change = %v, want 5", p.Change)
	}
	if p.PercentChange != 2.5 {
		t.Fatalf("percentChange = %v, want 2.5", p.PercentChange)
	}
}

func TestFetchSnapshotPerSymbolFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("symbol") == "TSLA" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]float64{"c": 205, "pc": 200})
	}))
	defer srv.Close()

	c := New(Config{APIKey: "test-key", QuoteURL: srv.URL}, testLogger(t), nil)

	snap := c.FetchSnapshot(context.Background(), []string{"AAPL", "TSLA"})
	if len(snap) != 2 {
		t.Fatalf("fallback must keep one entry per symbol, got %d", len(snap))
	}
	if snap[0].Symbol != "AAPL" || snap[0].Price != 205 {
		t.Fatalf("healthy symbol degraded: %+v", snap[0])
	}
	// TSLA takes the mock value anchored at its base
	if snap[1].Symbol != "TSLA" {
		t.Fatalf("unexpected symbol %q", snap[1].Symbol)
	}
	if snap[1].Price < 177 || snap[1].Price > 183 {
		t.Fatalf("TSLA mock price out of range: %v", snap[1].Price)
	}
}

func TestMockOnlySkipsUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("upstream called in mock-only mode")
	}))
	defer srv.Close()

	c := New(Config{APIKey: "test-key", QuoteURL: srv.URL, MockOnly: true}, testLogger(t), nil)

	snap := c.FetchSnapshot(context.Background(), []string{"AAPL", "NVDA", "XYZ"})
	if len(snap) != 3 {
		t.Fatalf("expected 3 points, got %d", len(snap))
	}
	if snap[0].Price < 187 || snap[0].Price > 193 {
		t.Fatalf("AAPL mock price out of range: %v", snap[0].Price)
	}
	if snap[1].Price < 1097 || snap[1].Price > 1103 {
		t.Fatalf("NVDA mock price out of range: %v", snap[1].Price)
	}
	// unknown symbols anchor at the default base
	if snap[2].Price < 97 || snap[2].Price > 103 {
		t.Fatalf("default mock price out of range: %v", snap[2].Price)
	}
}

func TestMissingAPIKeyForcesMockOnly(t *testing.T) {
	c := New(Config{QuoteURL: "http://127.0.0.1:1"}, testLogger(t), nil)
	if !c.cfg.MockOnly {
		t.Fatal("missing api key must force mock-only mode")
	}

	snap := c.FetchSnapshot(context.Background(), []string{"MSFT"})
	if len(snap) != 1 || snap[0].Symbol != "MSFT" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestSnapshotSharesObservationTime(t *testing.T) {
	c := New(Config{MockOnly: true}, testLogger(t), nil)

	snap := c.FetchSnapshot(context.Background(), []string{"AAPL", "TSLA", "NVDA"})
	for _, p := range snap[1:] {
		if !p.ObservedAt.Equal(snap[0].ObservedAt) {
			t.Fatalf("observation times differ: %v vs %v", p.ObservedAt, snap[0].ObservedAt)
		}
	}
	if time.Since(snap[0].ObservedAt) > time.Minute {
		t.Fatalf("stale observation time %v", snap[0].ObservedAt)
	}
}
