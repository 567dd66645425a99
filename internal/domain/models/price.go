package models

import (
	"time"

	"StockPulse/pkg/util"
)

// PricePoint is one observed quote for a symbol.
type PricePoint struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	PercentChange float64   `json:"percentChange"`
	ObservedAt    time.Time `json:"ts"`
}

// Snapshot is a point-in-time set of price observations, one per tracked
// symbol. It is never mutated after construction; each refresh cycle
// produces a new one.
type Snapshot []PricePoint

// BySymbol indexes the snapshot by normalized symbol.
func (s Snapshot) BySymbol() map[string]PricePoint {
	m := make(map[string]PricePoint, len(s))
	for _, p := range s {
		m[util.NormalizeSymbol(p.Symbol)] = p
	}
	return m
}
