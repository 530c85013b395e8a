package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/turno-service/internal/events"
)

// DisplayService mirrors broadcast events onto the operational log, standing
// in for the public display board. Handler errors never reach publishers.
type DisplayService struct {
	broadcaster events.Broadcaster
	logger      *zap.Logger
}

// NewDisplayService creates the service.
func NewDisplayService(broadcaster events.Broadcaster, logger *zap.Logger) *DisplayService {
	return &DisplayService{broadcaster: broadcaster, logger: logger}
}

// RegisterHandlers subscribes to lifecycle events.
func (d *DisplayService) RegisterHandlers() {
	if d.broadcaster == nil {
		return
	}
	d.broadcaster.Subscribe(events.EventTicketCreated, d.handleCreated)
	d.broadcaster.Subscribe(events.EventTicketCalled, d.handleCalled)
	d.broadcaster.Subscribe(events.EventTicketStateChanged, d.handleStateChanged)
}

func (d *DisplayService) handleCreated(ctx context.Context, event events.Event) error {
	ticket := event.Payload.Ticket
	d.logger.Info("board: ticket issued",
		zap.String("number", ticket.Number),
		zap.String("category", ticket.Category))
	return nil
}

func (d *DisplayService) handleCalled(ctx context.Context, event events.Event) error {
	ticket := event.Payload.Ticket
	d.logger.Info("board: ticket called",
		zap.String("number", ticket.Number),
		zap.Int("call_count", ticket.CallCount))
	return nil
}

func (d *DisplayService) handleStateChanged(ctx context.Context, event events.Event) error {
	ticket := event.Payload.Ticket
	d.logger.Info("board: ticket state changed",
		zap.String("number", ticket.Number),
		zap.String("state", ticket.State))
	return nil
}
