// Package notifier fans committed subscription transitions out to the configured sinks.
package notifier

import (
	"context"
	"time"

	vo "github.com/mateatletas/tutorbilling/internal/domain/subscription/valueobjects"
)

// Notification is one committed transition as handed to sinks.
type Notification struct {
	ID             string
	SubscriptionID uint
	Previous       vo.SubscriptionStatus
	Next           vo.SubscriptionStatus
	Reason         string
	OccurredAt     time.Time
}

// Sink delivers notifications to one destination.
type Sink interface {
	Name() string
	Send(ctx context.Context, n Notification) error
}

// Recorder counts sink deliveries by result.
type Recorder interface {
	RecordNotification(sink, result string)
}

// Delivery results reported to the Recorder.
const (
	ResultSent    = "sent"
	ResultSkipped = "skipped"
	ResultFailed  = "failed"
	ResultOpen    = "circuit_open"
)
