package models

import "time"

// Operator compares a price against a rule threshold.
type Operator string

const (
	OpGreaterThan Operator = ">"
	OpLessThan    Operator = "<"
)

// AlertRule is a single threshold rule such as "AAPL > 200".
// LastTriggered is maintained by the alert engine; everything else is
// fixed at registration.
type AlertRule struct {
	ID              int        `json:"id" yaml:"id"`
	Symbol          string     `json:"symbol" yaml:"symbol"`
	Operator        Operator   `json:"operator" yaml:"operator"`
	Threshold       float64    `json:"threshold" yaml:"threshold"`
	Description     string     `json:"description" yaml:"description"`
	Enabled         bool       `json:"enabled" yaml:"enabled"`
	CooldownSeconds int        `json:"cooldown_seconds" yaml:"cooldown_seconds"`
	LastTriggered   *time.Time `json:"last_triggered,omitempty" yaml:"-"`
}

// Cooldown returns the rule's cooldown as a duration.
func (r *AlertRule) Cooldown() time.Duration {
	return time.Duration(r.CooldownSeconds) * time.Second
}

// AlertEvent is a concrete alert firing at a specific time.
type AlertEvent struct {
	RuleID      int       `json:"rule_id"`
	Symbol      string    `json:"symbol"`
	Price       float64   `json:"price"`
	TriggeredAt time.Time `json:"triggered_at"`
	Message     string    `json:"message"`
}
