package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	ticksTotal    prometheus.Counter
	tickDuration  prometheus.Histogram
	cacheLookups  *prometheus.CounterVec
	fetchFallback *prometheus.CounterVec
	lastPrice     *prometheus.GaugeVec
	alertsFired   *prometheus.CounterVec
	subscribers   prometheus.Gauge
	dropped       prometheus.Counter
	errorsTotal   *prometheus.CounterVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		ticksTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "stockpulse_ticks_total",
				Help: "Total number of distribution ticks executed",
			},
		),
		tickDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "stockpulse_tick_duration_seconds",
				Help:    "Duration of one distribution tick in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		cacheLookups: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpulse_snapshot_cache_lookups_total",
				Help: "Snapshot cache lookups by outcome",
			},
			[]string{"outcome"},
		),
		fetchFallback: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpulse_fetch_fallbacks_total",
				Help: "Quote fetches that degraded to a mock value",
			},
			[]string{"symbol"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stockpulse_last_price",
				Help: "Last distributed price for a symbol",
			},
			[]string{"symbol"},
		),
		alertsFired: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpulse_alerts_fired_total",
				Help: "Alert events fired by symbol",
			},
			[]string{"symbol"},
		),
		subscribers: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "stockpulse_subscribers",
				Help: "Currently connected stream subscribers",
			},
		),
		dropped: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "stockpulse_subscribers_dropped_total",
				Help: "Subscribers dropped due to failed delivery",
			},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
	}
}

// RecordTick records one completed tick and its duration.
func (r *Recorder) RecordTick(seconds float64) {
	r.ticksTotal.Inc()
	r.tickDuration.Observe(seconds)
}

// RecordCacheLookup records a snapshot cache hit or miss.
func (r *Recorder) RecordCacheLookup(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	r.cacheLookups.WithLabelValues(outcome).Inc()
}

// RecordFallback records a per-symbol quote fallback.
func (r *Recorder) RecordFallback(symbol string) {
	r.fetchFallback.WithLabelValues(symbol).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordAlertFired records a fired alert event.
func (r *Recorder) RecordAlertFired(symbol string) {
	r.alertsFired.WithLabelValues(symbol).Inc()
}

// SetSubscribers records the current subscriber count.
func (r *Recorder) SetSubscribers(n int) {
	r.subscribers.Set(float64(n))
}

// RecordSubscriberDropped records a subscriber removed after failed delivery.
func (r *Recorder) RecordSubscriberDropped() {
	r.dropped.Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}
