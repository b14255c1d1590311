package subscription

import (
	"context"
	"time"

	vo "github.com/mateatletas/tutorbilling/internal/domain/subscription/valueobjects"
)

// SubscriptionRepository stores current-state snapshots. Lookups return (nil, nil) when
// nothing matches. Update writes conditionally on ExpectedVersion and returns
// ErrConcurrentModification when the row moved on.
type SubscriptionRepository interface {
	Create(ctx context.Context, subscription *Subscription) error
	GetByID(ctx context.Context, id uint) (*Subscription, error)
	GetBySID(ctx context.Context, sid string) (*Subscription, error)
	GetByGatewayRef(ctx context.Context, ref string) (*Subscription, error)
	GetLatestByTutorID(ctx context.Context, tutorID string) (*Subscription, error)
	Update(ctx context.Context, subscription *Subscription) error
	List(ctx context.Context, filter SubscriptionFilter) ([]*Subscription, error)
}

// SubscriptionFilter selects subscriptions for sweeps. Results are ordered by ID and
// paginated by keyset (AfterID).
type SubscriptionFilter struct {
	Status           *vo.SubscriptionStatus
	DelinquentBefore *time.Time
	AfterID          uint
	Limit            int
}

// HistoryRepository is the append-only ledger. It exposes no update or delete.
type HistoryRepository interface {
	Append(ctx context.Context, record *HistoryRecord) error
	ListBySubscription(ctx context.Context, subscriptionID uint) ([]*HistoryRecord, error)
	Latest(ctx context.Context, subscriptionID uint) (*HistoryRecord, error)
}

type PlanRepository interface {
	Create(ctx context.Context, plan *Plan) error
	GetByID(ctx context.Context, id uint) (*Plan, error)
	Update(ctx context.Context, plan *Plan) error
	ListActive(ctx context.Context) ([]*Plan, error)
}
