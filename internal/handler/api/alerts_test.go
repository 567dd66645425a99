package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"StockPulse/internal/alert"
	"StockPulse/internal/domain/models"
	"StockPulse/internal/domain/repository"
	"StockPulse/internal/stream"
	"StockPulse/internal/usecase"
	xlogger "StockPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

type fixedSource struct {
	snap models.Snapshot
}

func (s fixedSource) FetchSnapshot(context.Context, []string) models.Snapshot {
	return s.snap
}

type noStore struct{}

func (noStore) Set(context.Context, models.Snapshot) {}
func (noStore) Get(context.Context, time.Duration) (models.Snapshot, bool) {
	return nil, false
}

type noNotifier struct{}

func (noNotifier) Notify(context.Context, models.AlertEvent) {}

func newTestHandler(t *testing.T) (*Handler, *alert.Engine, *echo.Echo) {
	t.Helper()

	l, err := xlogger.New(&xlogger.Config{Level: "error", Format: "console", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	engine := alert.NewEngine()
	registry := stream.NewRegistry(stream.RegistryConfig{}, l, repository.NopMetrics{})
	dist := usecase.NewDistributor(
		usecase.DistributorConfig{Symbols: []string{"AAPL"}},
		fixedSource{snap: models.Snapshot{{Symbol: "AAPL", Price: 191.5, ObservedAt: time.Now().UTC()}}},
		noStore{}, engine, registry, noNotifier{}, repository.NopMetrics{}, l,
	)

	h := New(l, dist, engine, registry)
	e := echo.New()
	h.RegisterRoutes(e)
	return h, engine, e
}

func doRequest(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	_, engine, e := newTestHandler(t)
	engine.AddRule(models.AlertRule{ID: 1, Symbol: "AAPL", Operator: models.OpGreaterThan, Threshold: 200, Enabled: true})

	rec := doRequest(e, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		Data struct {
			Status string `json:"status"`
			Rules  int    `json:"rules"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Data.Status != "ok" || resp.Data.Rules != 1 {
		t.Fatalf("unexpected health body: %+v", resp.Data)
	}
}

func TestPricesReturnsSnapshot(t *testing.T) {
	_, _, e := newTestHandler(t)

	rec := doRequest(e, http.MethodGet, "/api/prices", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		Data []models.PricePoint `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Data) != 1 || resp.Data[0].Symbol != "AAPL" {
		t.Fatalf("unexpected snapshot: %+v", resp.Data)
	}
}

func TestAddRuleAndList(t *testing.T) {
	_, engine, e := newTestHandler(t)

	body := `{"id": 7, "symbol": "tsla", "operator": ">", "threshold": 180.5, "description": "tsla breakout"}`
	rec := doRequest(e, http.MethodPost, "/alerts/rules", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	rules := engine.Rules()
	if len(rules) != 1 {
		t.Fatalf("rules = %d, want 1", len(rules))
	}
	r := rules[0]
	if r.Symbol != "TSLA" {
		t.Errorf("symbol = %q, want normalized TSLA", r.Symbol)
	}
	if !r.Enabled || r.CooldownSeconds != 60 {
		t.Errorf("defaults not applied: %+v", r)
	}

	rec = doRequest(e, http.MethodGet, "/alerts/rules", "")
	var resp struct {
		Data []models.AlertRule `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Data) != 1 || resp.Data[0].ID != 7 {
		t.Fatalf("unexpected rules listing: %+v", resp.Data)
	}
}

func TestAddRuleRejectsMissingFields(t *testing.T) {
	_, engine, e := newTestHandler(t)

	rec := doRequest(e, http.MethodPost, "/alerts/rules", `{"symbol": "AAPL"}`)
	var resp struct {
		Status int `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.Status)
	}
	if len(engine.Rules()) != 0 {
		t.Fatal("invalid rule must not be registered")
	}
}

func TestRecentEventsLimit(t *testing.T) {
	_, engine, e := newTestHandler(t)

	// zero cooldown, so every evaluation fires
	engine.AddRule(models.AlertRule{ID: 1, Symbol: "AAPL", Operator: models.OpGreaterThan, Threshold: 100, Enabled: true})
	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		engine.Evaluate(models.Snapshot{{Symbol: "AAPL", Price: 150, ObservedAt: now}})
	}

	rec := doRequest(e, http.MethodGet, "/alerts/events?limit=2", "")
	var resp struct {
		Data []models.AlertEvent `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Data) != 2 {
		t.Fatalf("events = %d, want 2", len(resp.Data))
	}
}
