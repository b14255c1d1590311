// Package pubsub carries committed subscription transitions over Redis Pub/Sub.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mateatletas/tutorbilling/internal/shared/logger"
)

// DefaultTransitionChannel is used when no channel is configured.
const DefaultTransitionChannel = "tutorbilling:subscription:transition"

// TransitionEvent is the wire form of a committed transition.
type TransitionEvent struct {
	ID             string    `json:"id"`
	SubscriptionID uint      `json:"subscription_id"`
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	Reason         string    `json:"reason"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// TransitionEventHandler is a callback function for handling transition events
type TransitionEventHandler func(ctx context.Context, event TransitionEvent)

// RedisTransitionEventBus publishes and subscribes to transition events using Redis Pub/Sub.
type RedisTransitionEventBus struct {
	client  *redis.Client
	channel string
	logger  logger.Interface
}

func NewRedisTransitionEventBus(client *redis.Client, channel string, logger logger.Interface) *RedisTransitionEventBus {
	if channel == "" {
		channel = DefaultTransitionChannel
	}
	return &RedisTransitionEventBus{
		client:  client,
		channel: channel,
		logger:  logger,
	}
}

func (b *RedisTransitionEventBus) Channel() string {
	return b.channel
}

func (b *RedisTransitionEventBus) Publish(ctx context.Context, event TransitionEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		b.logger.Errorw("failed to publish transition event",
			"subscription_id", event.SubscriptionID,
			"new_status", event.NewStatus,
			"error", err,
		)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debugw("transition event published",
		"subscription_id", event.SubscriptionID,
		"from", event.PreviousStatus,
		"to", event.NewStatus,
	)
	return nil
}

// Subscribe delivers events to handler until ctx is done. Handlers run on the receive loop
// in publish order.
func (b *RedisTransitionEventBus) Subscribe(ctx context.Context, handler TransitionEventHandler) error {
	pubsub := b.client.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	// Wait for subscription confirmation
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to channel: %w", err)
	}

	b.logger.Infow("subscribed to transition events", "channel", b.channel)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case msg, ok := <-ch:
			if !ok {
				b.logger.Warnw("transition event channel closed")
				return nil
			}

			var event TransitionEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				b.logger.Warnw("failed to unmarshal transition event",
					"payload", msg.Payload,
					"error", err,
				)
				continue
			}
			handler(ctx, event)
		}
	}
}
