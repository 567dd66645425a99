package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"StockPulse/internal/alert"
	"StockPulse/internal/domain/models"
	"StockPulse/internal/stream"
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

type fakeSource struct {
	mu    sync.Mutex
	snap  models.Snapshot
	calls int
}

func (f *fakeSource) FetchSnapshot(_ context.Context, _ []string) models.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.snap
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeStore struct {
	mu    sync.Mutex
	snap  models.Snapshot
	fresh bool
	sets  int
}

func (f *fakeStore) Set(_ context.Context, snap models.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snap = snap
	f.fresh = true
	f.sets++
}

func (f *fakeStore) Get(_ context.Context, _ time.Duration) (models.Snapshot, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.fresh {
		return nil, false
	}
	return f.snap, true
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []models.AlertEvent
}

func (f *fakeNotifier) Notify(_ context.Context, event models.AlertEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeNotifier) notified() []models.AlertEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.AlertEvent(nil), f.events...)
}

func testDistributor(t *testing.T, source *fakeSource, store *fakeStore, notifier *fakeNotifier) (*Distributor, *alert.Engine, *stream.Registry) {
	t.Helper()
	log := testLogger(t)
	engine := alert.NewEngine()
	registry := stream.NewRegistry(stream.RegistryConfig{Buffer: 8, SendTimeout: 100 * time.Millisecond}, log, nil)
	d := NewDistributor(
		DistributorConfig{Symbols: []string{"AAPL"}, Interval: 10 * time.Second, Freshness: 15 * time.Second},
		source, store, engine, registry, notifier, nil, log,
	)
	return d, engine, registry
}

func TestTickFetchesOnMissAndStores(t *testing.T) {
	now := time.Now().UTC()
	source := &fakeSource{snap: models.Snapshot{{Symbol: "AAPL", Price: 205, ObservedAt: now}}}
	store := &fakeStore{}
	notifier := &fakeNotifier{}
	d, engine, registry := testDistributor(t, source, store, notifier)
	engine.AddRule(models.AlertRule{ID: 1, Symbol: "AAPL", Operator: models.OpGreaterThan, Threshold: 200, Enabled: true, CooldownSeconds: 60})

	sub := registry.Register()

	d.tick(context.Background())

	if source.callCount() != 1 {
		t.Fatalf("expected one fetch, got %d", source.callCount())
	}
	if store.sets != 1 {
		t.Fatalf("snapshot not stored, sets=%d", store.sets)
	}

	// first push is the typed price update
	var first interface{}
	select {
	case first = <-sub.Out():
	case <-time.After(time.Second):
		t.Fatal("no price update delivered")
	}
	update, ok := first.(models.PriceUpdateMessage)
	if !ok {
		t.Fatalf("first message is %T, want PriceUpdateMessage", first)
	}
	if update.Type != models.MessageTypePriceUpdate || len(update.Data) != 1 {
		t.Fatalf("unexpected update %+v", update)
	}

	// then the typed alert
	var second interface{}
	select {
	case second = <-sub.Out():
	case <-time.After(time.Second):
		t.Fatal("no alert delivered")
	}
	alertMsg, ok := second.(models.AlertMessage)
	if !ok {
		t.Fatalf("second message is %T, want AlertMessage", second)
	}
	if alertMsg.Type != models.MessageTypeAlert || alertMsg.RuleID != 1 || alertMsg.Symbol != "AAPL" {
		t.Fatalf("unexpected alert %+v", alertMsg)
	}
	if _, err := time.Parse(time.RFC3339, alertMsg.TriggeredAt); err != nil {
		t.Fatalf("triggered_at not ISO-8601: %q", alertMsg.TriggeredAt)
	}

	// sink got the same event
	if got := notifier.notified(); len(got) != 1 || got[0].RuleID != 1 {
		t.Fatalf("notifier events %+v", got)
	}
}

func TestTickUsesFreshCache(t *testing.T) {
	now := time.Now().UTC()
	source := &fakeSource{snap: models.Snapshot{{Symbol: "AAPL", Price: 205, ObservedAt: now}}}
	store := &fakeStore{snap: models.Snapshot{{Symbol: "AAPL", Price: 199, ObservedAt: now}}, fresh: true}
	notifier := &fakeNotifier{}
	d, _, _ := testDistributor(t, source, store, notifier)

	d.tick(context.Background())

	if source.callCount() != 0 {
		t.Fatalf("fetched despite fresh cache: %d calls", source.callCount())
	}
}

func TestTickSurvivesEmptyRuleSet(t *testing.T) {
	now := time.Now().UTC()
	source := &fakeSource{snap: models.Snapshot{{Symbol: "AAPL", Price: 205, ObservedAt: now}}}
	store := &fakeStore{}
	notifier := &fakeNotifier{}
	d, _, _ := testDistributor(t, source, store, notifier)

	d.tick(context.Background())

	if got := notifier.notified(); len(got) != 0 {
		t.Fatalf("unexpected notifications %+v", got)
	}
}

func TestShutdownStopsLoopPromptly(t *testing.T) {
	source := &fakeSource{snap: models.Snapshot{{Symbol: "AAPL", Price: 1, ObservedAt: time.Now()}}}
	store := &fakeStore{}
	notifier := &fakeNotifier{}
	d, _, _ := testDistributor(t, source, store, notifier)

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)
	cancel()

	select {
	case <-d.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop after cancellation")
	}
}

func TestCachedSnapshotNeverFetches(t *testing.T) {
	source := &fakeSource{snap: models.Snapshot{{Symbol: "AAPL", Price: 1, ObservedAt: time.Now()}}}
	store := &fakeStore{}
	notifier := &fakeNotifier{}
	d, _, _ := testDistributor(t, source, store, notifier)

	if _, ok := d.CachedSnapshot(context.Background()); ok {
		t.Fatal("cold cache reported a snapshot")
	}
	if source.callCount() != 0 {
		t.Fatalf("CachedSnapshot fetched upstream: %d calls", source.callCount())
	}
}
