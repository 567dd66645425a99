package api

import (
	"StockPulse/internal/alert"
	"StockPulse/internal/domain/models"
	"StockPulse/internal/stream"
	"StockPulse/internal/usecase"
	xhttp "StockPulse/pkg/http"
	xlogger "StockPulse/pkg/logger"
	"StockPulse/pkg/util"

	"github.com/labstack/echo/v4"
)

// Handler exposes the REST surface: health, the snapshot debug endpoint,
// and the rule management passthrough to the alert engine.
type Handler struct {
	logger   *xlogger.Logger
	dist     *usecase.Distributor
	engine   *alert.Engine
	registry *stream.Registry
}

func New(logger *xlogger.Logger, dist *usecase.Distributor, engine *alert.Engine, registry *stream.Registry) *Handler {
	return &Handler{logger: logger, dist: dist, engine: engine, registry: registry}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
	e.GET("/api/prices", h.Prices)

	g := e.Group("/alerts")
	g.GET("/rules", h.ListRules)
	g.POST("/rules", h.AddRule)
	g.GET("/events", h.RecentEvents)
}

func (h *Handler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"status":      "ok",
		"subscribers": h.registry.Count(),
		"rules":       len(h.engine.Rules()),
	})
}

// Prices serves the current snapshot over REST. Mainly for debugging;
// live clients use the websocket stream.
func (h *Handler) Prices(c echo.Context) error {
	snap := h.dist.Snapshot(c.Request().Context())
	return xhttp.SuccessResponse(c, snap)
}

func (h *Handler) ListRules(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.engine.Rules())
}

func (h *Handler) AddRule(c echo.Context) error {
	req := &models.AlertRuleRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	rule := req.ToRule()
	h.engine.AddRule(rule)
	h.logger.Info("alert rule registered",
		xlogger.Int("rule_id", rule.ID),
		xlogger.String("symbol", rule.Symbol))

	return xhttp.CreatedResponse(c, rule)
}

func (h *Handler) RecentEvents(c echo.Context) error {
	events := h.engine.RecentEvents()

	limit := util.ParseIntDefault(c.QueryParam("limit"), len(events))
	if limit < len(events) && limit >= 0 {
		events = events[len(events)-limit:]
	}

	return xhttp.SuccessResponse(c, events)
}
