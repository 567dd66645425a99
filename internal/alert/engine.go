// Package alert owns alert rule definitions and evaluates them against
// price snapshots, suppressing repeat firings inside each rule's cooldown.
package alert

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"StockPulse/internal/domain/models"
	"StockPulse/pkg/util"
)

// historyLimit bounds the retained event history; oldest entries are
// evicted first.
const historyLimit = 50

// Engine is the in-memory alert rule engine. Rules are owned exclusively
// by the engine and reachable only through its methods; rule addition may
// interleave with an in-flight Evaluate.
type Engine struct {
	mu      sync.Mutex
	rules   map[int]*models.AlertRule
	history []models.AlertEvent

	now func() time.Time
}

// NewEngine creates an empty alert engine.
func NewEngine() *Engine {
	return &Engine{
		rules: make(map[int]*models.AlertRule),
		now:   time.Now,
	}
}

// AddRule inserts or replaces the rule with the same id.
func (e *Engine) AddRule(rule models.AlertRule) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules[rule.ID] = &rule
}

// Rules returns all rules sorted by id.
func (e *Engine) Rules() []models.AlertRule {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]models.AlertRule, 0, len(e.rules))
	for _, r := range e.rules {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Evaluate runs every enabled rule against the snapshot and returns the
// newly fired events. One instant is captured at entry; all rules in a
// single evaluation share it. An empty snapshot returns nothing and has
// no side effects.
func (e *Engine) Evaluate(snap models.Snapshot) []models.AlertEvent {
	if len(snap) == 0 {
		return nil
	}

	now := e.now()
	bySymbol := snap.BySymbol()

	e.mu.Lock()
	defer e.mu.Unlock()

	ids := make([]int, 0, len(e.rules))
	for id := range e.rules {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var events []models.AlertEvent
	for _, id := range ids {
		rule := e.rules[id]
		if !rule.Enabled {
			continue
		}

		point, ok := bySymbol[util.NormalizeSymbol(rule.Symbol)]
		if !ok {
			continue
		}

		if !conditionMet(rule, point.Price) {
			continue
		}
		if !canTrigger(rule, now) {
			continue
		}

		rule.LastTriggered = &now

		event := models.AlertEvent{
			RuleID:      rule.ID,
			Symbol:      rule.Symbol,
			Price:       point.Price,
			TriggeredAt: now,
			Message:     fmt.Sprintf("%s %s %g (now %.2f)", rule.Symbol, rule.Operator, rule.Threshold, point.Price),
		}
		events = append(events, event)
		e.history = append(e.history, event)
	}

	if len(e.history) > historyLimit {
		e.history = e.history[len(e.history)-historyLimit:]
	}

	return events
}

// RecentEvents returns the retained history, oldest first.
func (e *Engine) RecentEvents() []models.AlertEvent {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]models.AlertEvent, len(e.history))
	copy(out, e.history)
	return out
}

// conditionMet compares price to threshold. Unknown operators never fire:
// rule intake is permissive, not validated against the operator set.
func conditionMet(rule *models.AlertRule, price float64) bool {
	switch rule.Operator {
	case models.OpGreaterThan:
		return price > rule.Threshold
	case models.OpLessThan:
		return price < rule.Threshold
	default:
		return false
	}
}

// canTrigger applies the cooldown: a rule fires when elapsed >= cooldown,
// or when it has never triggered.
func canTrigger(rule *models.AlertRule, now time.Time) bool {
	if rule.LastTriggered == nil {
		return true
	}
	return now.Sub(*rule.LastTriggered) >= rule.Cooldown()
}
