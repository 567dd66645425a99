// Package ws upgrades subscriber connections and bridges them to the
// stream registry: one write pump per connection draining its queue, one
// read pump detecting disconnection.
package ws

import (
	"net/http"
	"time"

	"StockPulse/internal/domain/models"
	"StockPulse/internal/stream"
	"StockPulse/internal/usecase"
	xlogger "StockPulse/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	writeTimeout   = 10 * time.Second
	maxMessageSize = 512
)

// Handler serves the live price stream endpoint.
type Handler struct {
	logger   *xlogger.Logger
	registry *stream.Registry
	dist     *usecase.Distributor
	upgrader websocket.Upgrader
}

func New(logger *xlogger.Logger, registry *stream.Registry, dist *usecase.Distributor) *Handler {
	return &Handler{
		logger:   logger,
		registry: registry,
		dist:     dist,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// browser clients connect from any origin, same as the REST CORS policy
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/prices", h.Prices)
}

// Prices upgrades the connection and keeps it fed until it disconnects.
func (h *Handler) Prices(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", xlogger.Error(err))
		return err
	}

	// A fresh cached snapshot goes out immediately, before the
	// connection joins the periodic broadcast set: a new client must
	// not wait a full period for its first update.
	if snap, ok := h.dist.CachedSnapshot(c.Request().Context()); ok {
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(models.NewPriceUpdateMessage(snap)); err != nil {
			_ = conn.Close()
			return nil
		}
	}

	sub := h.registry.Register()

	go h.writePump(conn, sub)
	h.readPump(conn, sub)
	return nil
}

// writePump drains the subscriber queue into the connection. A write
// error drops the subscriber; the remaining subscribers are unaffected.
func (h *Handler) writePump(conn *websocket.Conn, sub *stream.Subscriber) {
	defer conn.Close()

	for {
		select {
		case msg := <-sub.Out():
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(msg); err != nil {
				h.registry.Unregister(sub)
				return
			}
		case <-sub.Done():
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
			return
		}
	}
}

// readPump blocks until the peer disconnects. Inbound frames carry no
// meaning on this endpoint.
func (h *Handler) readPump(conn *websocket.Conn, sub *stream.Subscriber) {
	defer func() {
		h.registry.Unregister(sub)
		_ = conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
