package handlers

import (
	"log/slog"

	"github.com/canis-majoris/instantly-assignment-v3/internal/events"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// EventsHandler upgrades connections to the invalidation event stream
type EventsHandler struct {
	hub      *events.Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewEventsHandler creates a new EventsHandler
func NewEventsHandler(hub *events.Hub, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{
		hub:      hub,
		upgrader: events.NewSecureUpgrader(logger),
		logger:   logger,
	}
}

// Subscribe handles GET /api/events
func (h *EventsHandler) Subscribe(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response
		return nil
	}

	client := events.NewClient(h.hub, conn, h.logger)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	return nil
}
