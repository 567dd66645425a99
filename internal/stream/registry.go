// Package stream tracks connected subscribers and fans broadcast
// messages out to them with per-subscriber isolation.
package stream

import (
	"sync"
	"time"

	"StockPulse/internal/domain/repository"
	xlogger "StockPulse/pkg/logger"
)

// Subscriber is one connected client's outbound message queue. It has no
// identity beyond registry membership.
type Subscriber struct {
	ch   chan interface{}
	done chan struct{}
	once sync.Once
}

// Out returns the channel the connection's write pump drains.
func (s *Subscriber) Out() <-chan interface{} {
	return s.ch
}

// Done is closed when the subscriber leaves the registry.
func (s *Subscriber) Done() <-chan struct{} {
	return s.done
}

func (s *Subscriber) leave() {
	s.once.Do(func() { close(s.done) })
}

// RegistryConfig holds fan-out tuning.
type RegistryConfig struct {
	// Buffer is the size of each subscriber's outbound queue.
	Buffer int
	// SendTimeout bounds the delivery attempt per subscriber; a
	// subscriber that cannot accept within it is dropped.
	SendTimeout time.Duration
}

// DefaultRegistryConfig returns the default fan-out configuration.
func DefaultRegistryConfig() RegistryConfig {
	return RegistryConfig{
		Buffer:      16,
		SendTimeout: time.Second,
	}
}

// Registry is the live set of subscribers. Registration and broadcast are
// safe to call concurrently.
type Registry struct {
	cfg     RegistryConfig
	logger  *xlogger.Logger
	metrics repository.Metrics

	mu   sync.RWMutex
	subs map[*Subscriber]struct{}
}

// NewRegistry creates an empty subscriber registry.
func NewRegistry(cfg RegistryConfig, logger *xlogger.Logger, metrics repository.Metrics) *Registry {
	if cfg.Buffer <= 0 {
		cfg.Buffer = DefaultRegistryConfig().Buffer
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = DefaultRegistryConfig().SendTimeout
	}
	if metrics == nil {
		metrics = repository.NopMetrics{}
	}
	return &Registry{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
		subs:    make(map[*Subscriber]struct{}),
	}
}

// Register adds a new subscriber to the live set.
func (r *Registry) Register() *Subscriber {
	sub := &Subscriber{
		ch:   make(chan interface{}, r.cfg.Buffer),
		done: make(chan struct{}),
	}

	r.mu.Lock()
	r.subs[sub] = struct{}{}
	total := len(r.subs)
	r.mu.Unlock()

	r.metrics.SetSubscribers(total)
	r.logger.Info("subscriber connected", xlogger.Int("total", total))
	return sub
}

// Unregister removes a subscriber. Removing an absent member is a no-op.
func (r *Registry) Unregister(sub *Subscriber) {
	r.mu.Lock()
	_, ok := r.subs[sub]
	if ok {
		delete(r.subs, sub)
	}
	total := len(r.subs)
	r.mu.Unlock()

	if !ok {
		return
	}

	sub.leave()
	r.metrics.SetSubscribers(total)
	r.logger.Info("subscriber disconnected", xlogger.Int("total", total))
}

// Broadcast attempts delivery to every registered subscriber. A
// subscriber that cannot accept within the send timeout is dropped; the
// rest still receive the message. At-most-once, no replay.
func (r *Registry) Broadcast(payload interface{}) {
	r.mu.RLock()
	subs := make([]*Subscriber, 0, len(r.subs))
	for sub := range r.subs {
		subs = append(subs, sub)
	}
	r.mu.RUnlock()

	for _, sub := range subs {
		if !r.send(sub, payload) {
			r.Unregister(sub)
			r.metrics.RecordSubscriberDropped()
			r.logger.Warn("subscriber dropped: send timeout")
		}
	}
}

func (r *Registry) send(sub *Subscriber, payload interface{}) bool {
	timer := time.NewTimer(r.cfg.SendTimeout)
	defer timer.Stop()

	select {
	case sub.ch <- payload:
		return true
	case <-sub.done:
		// already gone, nothing to deliver
		return true
	case <-timer.C:
		return false
	}
}

// Count returns the number of currently registered subscribers.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}
