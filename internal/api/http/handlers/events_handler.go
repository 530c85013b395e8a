package handlers

import (
	"bufio"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/turno-service/internal/events"
)

const heartbeatInterval = 15 * time.Second

// EventsHandler exposes the broadcast stream over server-sent events.
type EventsHandler struct {
	broadcaster events.Broadcaster
	logger      *zap.Logger
}

// NewEventsHandler constructs handler.
func NewEventsHandler(broadcaster events.Broadcaster, logger *zap.Logger) *EventsHandler {
	return &EventsHandler{broadcaster: broadcaster, logger: logger}
}

// Stream GET /events/stream.
func (h *EventsHandler) Stream(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	sub := h.broadcaster.SubscribeStream()
	logger := h.logger

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer sub.Close()

		heartbeat := time.NewTicker(heartbeatInterval)
		defer heartbeat.Stop()

		for {
			select {
			case event, ok := <-sub.Events():
				if !ok {
					return
				}
				payload, err := json.Marshal(event)
				if err != nil {
					logger.Warn("event encode failed", zap.Error(err))
					continue
				}
				if _, err := w.WriteString("event: " + string(event.Type) + "\n"); err != nil {
					return
				}
				if _, err := w.WriteString("data: " + string(payload) + "\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			case <-heartbeat.C:
				// comment frame keeps the connection alive and detects
				// dropped clients
				if _, err := w.WriteString(": heartbeat\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	})
	return nil
}
