package events

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisBridge relays hub events between instances through a Redis pub/sub
// channel, so dashboards connected to any instance see every state change.
// Relay failures are logged, never surfaced to the publishing lifecycle.
type RedisBridge struct {
	client     *redis.Client
	hub        *Hub
	channel    string
	instanceID string
	logger     *zap.Logger
}

// NewRedisBridge wires the bridge onto the hub: local events are republished
// to Redis and remote ones injected back into the hub.
func NewRedisBridge(client *redis.Client, hub *Hub, channel string, logger *zap.Logger) *RedisBridge {
	bridge := &RedisBridge{
		client:     client,
		hub:        hub,
		channel:    channel,
		instanceID: uuid.NewString(),
		logger:     logger,
	}
	relay := bridge.relay
	hub.Subscribe(EventTicketCreated, relay)
	hub.Subscribe(EventTicketCalled, relay)
	hub.Subscribe(EventTicketStateChanged, relay)
	return bridge
}

func (b *RedisBridge) relay(ctx context.Context, event Event) error {
	if event.Origin != "" {
		// already travelled through the bridge
		return nil
	}
	event.Origin = b.instanceID
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		b.logger.Warn("redis relay publish failed", zap.Error(err))
	}
	return nil
}

// Run consumes the Redis channel until the context is cancelled, feeding
// events published by other instances into the local hub.
func (b *RedisBridge) Run(ctx context.Context) {
	pubsub := b.client.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-pubsub.Channel():
			if !ok {
				return
			}
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				b.logger.Warn("malformed bridge event", zap.Error(err))
				continue
			}
			if event.Origin == b.instanceID {
				continue
			}
			_ = b.hub.Publish(ctx, event)
		}
	}
}
