package payment

import (
	"context"
	"time"
)

// PaymentRepository persists payments keyed by the gateway payment reference.
type PaymentRepository interface {
	// Upsert inserts the payment or, when the gateway reference exists, updates its status
	// in place. The payment's ID is set from the stored row; created reports an insert.
	Upsert(ctx context.Context, payment *Payment) (created bool, err error)
	GetByGatewayRef(ctx context.Context, ref string) (*Payment, error)
	ListBySubscription(ctx context.Context, subscriptionID uint) ([]*Payment, error)
	CountForPeriod(ctx context.Context, subscriptionID uint, periodStart *time.Time) (int64, error)
}

// ProcessedEventRepository is the dedup set for inbound gateway events.
type ProcessedEventRepository interface {
	// Record inserts the marker and returns ErrDuplicateEvent when the ID was seen before.
	Record(ctx context.Context, event *ProcessedEvent) error
	SetOutcome(ctx context.Context, gatewayEventID string, outcome EventOutcome, errMsg *string) error
	GetByGatewayEventID(ctx context.Context, gatewayEventID string) (*ProcessedEvent, error)
}
