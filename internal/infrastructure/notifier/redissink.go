package notifier

import (
	"context"

	"github.com/mateatletas/tutorbilling/internal/infrastructure/pubsub"
)

// TransitionPublisher publishes transition events to a broadcast channel.
type TransitionPublisher interface {
	Publish(ctx context.Context, event pubsub.TransitionEvent) error
}

type RedisSink struct {
	publisher TransitionPublisher
}

func NewRedisSink(publisher TransitionPublisher) *RedisSink {
	return &RedisSink{publisher: publisher}
}

func (s *RedisSink) Name() string { return "redis" }

func (s *RedisSink) Send(ctx context.Context, n Notification) error {
	return s.publisher.Publish(ctx, toEvent(n))
}

func toEvent(n Notification) pubsub.TransitionEvent {
	return pubsub.TransitionEvent{
		ID:             n.ID,
		SubscriptionID: n.SubscriptionID,
		PreviousStatus: n.Previous.String(),
		NewStatus:      n.Next.String(),
		Reason:         n.Reason,
		OccurredAt:     n.OccurredAt,
	}
}
