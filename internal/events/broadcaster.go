package events

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler processes a published event in-process.
type Handler func(context.Context, Event) error

// Broadcaster fans lifecycle events out to registered handlers and to live
// stream subscribers. Delivery is best-effort: only subscribers connected at
// publish time receive the event, and a slow subscriber loses events instead
// of blocking the publisher.
type Broadcaster interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler Handler)
	SubscribeStream() *Subscription
}

// Subscription is a live event stream for one connected consumer.
type Subscription struct {
	id     string
	events chan Event
	hub    *Hub
	once   sync.Once
}

// Events returns the subscriber's receive channel. The channel is closed when
// the subscription is closed.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Close detaches the subscriber. Safe to call more than once; other
// subscribers and publishers are unaffected.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.drop(s.id)
	})
}

// Hub is the in-memory Broadcaster implementation.
type Hub struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	streams  map[string]chan Event
	buffer   int
	logger   *zap.Logger
}

// NewHub creates a broadcaster whose stream subscribers buffer up to the
// given number of undelivered events.
func NewHub(buffer int, logger *zap.Logger) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{
		handlers: make(map[EventType][]Handler),
		streams:  make(map[string]chan Event),
		buffer:   buffer,
		logger:   logger,
	}
}

// Publish delivers the event to every handler and connected stream. Handler
// errors are logged and swallowed; a full stream buffer drops the event for
// that subscriber only.
func (h *Hub) Publish(ctx context.Context, event Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, handler := range h.handlers[event.Type] {
		if err := handler(ctx, event); err != nil {
			h.logger.Warn("event handler failed",
				zap.String("event_type", string(event.Type)),
				zap.Error(err))
		}
	}

	for id, stream := range h.streams {
		select {
		case stream <- event:
		default:
			h.logger.Debug("dropping event for slow subscriber",
				zap.String("subscriber", id),
				zap.String("event_type", string(event.Type)))
		}
	}
	return nil
}

// Subscribe registers an in-process handler for the given event type.
func (h *Hub) Subscribe(eventType EventType, handler Handler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[eventType] = append(h.handlers[eventType], handler)
}

// SubscribeStream attaches a new live stream subscriber.
func (h *Hub) SubscribeStream() *Subscription {
	sub := &Subscription{
		id:     uuid.NewString(),
		events: make(chan Event, h.buffer),
		hub:    h,
	}
	h.mu.Lock()
	h.streams[sub.id] = sub.events
	h.mu.Unlock()
	return sub
}

func (h *Hub) drop(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if stream, ok := h.streams[id]; ok {
		delete(h.streams, id)
		close(stream)
	}
}
