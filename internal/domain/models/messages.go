package models

import "time"

const (
	MessageTypePriceUpdate = "price_update"
	MessageTypeAlert       = "alert"
)

// PriceUpdateMessage is the snapshot push delivered to stream subscribers.
type PriceUpdateMessage struct {
	Type string       `json:"type"`
	Data []PricePoint `json:"data"`
}

// NewPriceUpdateMessage wraps a snapshot for delivery.
func NewPriceUpdateMessage(snap Snapshot) PriceUpdateMessage {
	return PriceUpdateMessage{Type: MessageTypePriceUpdate, Data: snap}
}

// AlertMessage is the alert push delivered to stream subscribers.
// TriggeredAt is ISO-8601 so browser clients can parse it directly.
type AlertMessage struct {
	Type        string  `json:"type"`
	RuleID      int     `json:"rule_id"`
	Symbol      string  `json:"symbol"`
	Price       float64 `json:"price"`
	TriggeredAt string  `json:"triggered_at"`
	Message     string  `json:"message"`
}

// NewAlertMessage wraps an alert event for delivery.
func NewAlertMessage(e AlertEvent) AlertMessage {
	return AlertMessage{
		Type:        MessageTypeAlert,
		RuleID:      e.RuleID,
		Symbol:      e.Symbol,
		Price:       e.Price,
		TriggeredAt: e.TriggeredAt.Format(time.RFC3339),
		Message:     e.Message,
	}
}
