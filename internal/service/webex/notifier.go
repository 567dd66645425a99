// Package webex posts alert events into a Webex room using a bot token.
// Delivery is best-effort: failures are logged and swallowed, and without
// credentials the notifier degrades to a dry-run that only logs.
package webex

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"StockPulse/internal/domain/models"
	"StockPulse/internal/domain/repository"
	xhttp "StockPulse/pkg/http"
	xlogger "StockPulse/pkg/logger"
)

// Config holds notifier configuration.
type Config struct {
	APIURL   string
	BotToken string
	RoomID   string
	Timeout  time.Duration
}

// Notifier implements repository.Notifier against the Webex messages API.
type Notifier struct {
	cfg     Config
	http    *xhttp.Client
	logger  *xlogger.Logger
	metrics repository.Metrics
}

// New creates a Webex notifier.
func New(cfg Config, logger *xlogger.Logger, metrics repository.Metrics) *Notifier {
	if cfg.APIURL == "" {
		cfg.APIURL = "https://webexapis.com/v1/messages"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if metrics == nil {
		metrics = repository.NopMetrics{}
	}
	if cfg.BotToken == "" || cfg.RoomID == "" {
		logger.Warn("webex not fully configured, alerts will be logged only")
	}
	return &Notifier{
		cfg:     cfg,
		http:    xhttp.NewClient(xhttp.WithTimeout(cfg.Timeout)),
		logger:  logger,
		metrics: metrics,
	}
}

// IsConfigured reports whether real delivery is possible.
func (n *Notifier) IsConfigured() bool {
	return n.cfg.BotToken != "" && n.cfg.RoomID != ""
}

// Notify posts the alert into the configured room. It never returns an
// error to the caller; transport failures are logged and counted.
func (n *Notifier) Notify(ctx context.Context, event models.AlertEvent) {
	if !n.IsConfigured() {
		n.logger.Info("webex dry-run, would send alert",
			xlogger.Int("rule_id", event.RuleID),
			xlogger.String("message", event.Message))
		return
	}

	text := fmt.Sprintf("🚨 Stock Alert: %s\n%s\nTriggered at %s",
		event.Symbol, event.Message, event.TriggeredAt.Format(time.RFC3339))

	err := n.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: http.MethodPost,
		URL:    n.cfg.APIURL,
		Headers: map[string]string{
			"Authorization": "Bearer " + n.cfg.BotToken,
		},
		Body: map[string]string{
			"roomId": n.cfg.RoomID,
			"text":   text,
		},
	}, nil)
	if err != nil {
		n.logger.Error("webex notify failed",
			xlogger.Int("rule_id", event.RuleID),
			xlogger.String("symbol", event.Symbol),
			xlogger.Error(err))
		n.metrics.RecordError("notify")
		return
	}

	n.logger.Info("alert sent to webex",
		xlogger.Int("rule_id", event.RuleID),
		xlogger.String("symbol", event.Symbol))
}
