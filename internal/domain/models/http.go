package models

import "StockPulse/pkg/util"

// AlertRuleRequest is the rule intake body for the management API.
// Operator is deliberately not restricted to the known set: an unknown
// operator is accepted and simply never fires.
type AlertRuleRequest struct {
	ID              int     `json:"id" validate:"required,gt=0"`
	Symbol          string  `json:"symbol" validate:"required"`
	Operator        string  `json:"operator" validate:"required"`
	Threshold       float64 `json:"threshold"`
	Description     string  `json:"description"`
	Enabled         *bool   `json:"enabled" default:"true"`
	CooldownSeconds *int    `json:"cooldown_seconds" default:"60" validate:"omitempty,gte=0"`
}

// ToRule converts the request into an AlertRule. Defaults are applied by
// the binding layer before this is called.
func (r *AlertRuleRequest) ToRule() AlertRule {
	rule := AlertRule{
		ID:          r.ID,
		Symbol:      util.NormalizeSymbol(r.Symbol),
		Operator:    Operator(r.Operator),
		Threshold:   r.Threshold,
		Description: r.Description,
	}
	if r.Enabled != nil {
		rule.Enabled = *r.Enabled
	}
	if r.CooldownSeconds != nil {
		rule.CooldownSeconds = *r.CooldownSeconds
	}
	return rule
}
