package notifier

import (
	"context"

	"github.com/mateatletas/tutorbilling/internal/shared/logger"
)

type LogSink struct {
	logger logger.Interface
}

func NewLogSink(logger logger.Interface) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Send(ctx context.Context, n Notification) error {
	s.logger.Infow("subscription status changed",
		"notification_id", n.ID,
		"subscription_id", n.SubscriptionID,
		"from", n.Previous,
		"to", n.Next,
		"reason", n.Reason,
	)
	return nil
}
