package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testEvent(eventType EventType, number string) Event {
	return Event{
		ID:        number + "-event",
		Type:      eventType,
		Timestamp: time.Now(),
		Payload:   Payload{Ticket: TicketSnapshot{Number: number}},
	}
}

func TestHubDeliversToHandlers(t *testing.T) {
	hub := NewHub(4, zap.NewNop())

	var mu sync.Mutex
	var received []string
	hub.Subscribe(EventTicketCreated, func(ctx context.Context, event Event) error {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, event.Payload.Ticket.Number)
		return nil
	})

	require.NoError(t, hub.Publish(context.Background(), testEvent(EventTicketCreated, "A001")))
	require.NoError(t, hub.Publish(context.Background(), testEvent(EventTicketCalled, "A002")))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"A001"}, received)
}

func TestHubHandlerErrorDoesNotBlockOthers(t *testing.T) {
	hub := NewHub(4, zap.NewNop())

	hub.Subscribe(EventTicketCreated, func(ctx context.Context, event Event) error {
		return errors.New("boom")
	})
	called := false
	hub.Subscribe(EventTicketCreated, func(ctx context.Context, event Event) error {
		called = true
		return nil
	})

	require.NoError(t, hub.Publish(context.Background(), testEvent(EventTicketCreated, "A001")))
	assert.True(t, called)
}

func TestHubStreamSubscription(t *testing.T) {
	hub := NewHub(4, zap.NewNop())
	sub := hub.SubscribeStream()
	defer sub.Close()

	require.NoError(t, hub.Publish(context.Background(), testEvent(EventTicketCreated, "A001")))

	select {
	case event := <-sub.Events():
		assert.Equal(t, "A001", event.Payload.Ticket.Number)
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
}

func TestHubSlowStreamDropsInsteadOfBlocking(t *testing.T) {
	hub := NewHub(1, zap.NewNop())
	sub := hub.SubscribeStream()
	defer sub.Close()

	for i := 0; i < 5; i++ {
		require.NoError(t, hub.Publish(context.Background(), testEvent(EventTicketCreated, "A001")))
	}

	// the buffer holds one event; the rest were dropped, not queued
	assert.Equal(t, 1, len(sub.Events()))
}

func TestHubCloseStopsDelivery(t *testing.T) {
	hub := NewHub(4, zap.NewNop())
	sub := hub.SubscribeStream()
	sub.Close()
	sub.Close()

	require.NoError(t, hub.Publish(context.Background(), testEvent(EventTicketCreated, "A001")))

	_, open := <-sub.Events()
	assert.False(t, open)
}
