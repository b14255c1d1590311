package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mateatletas/tutorbilling/internal/domain/subscription"
	vo "github.com/mateatletas/tutorbilling/internal/domain/subscription/valueobjects"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type passthroughTx struct{}

func (passthroughTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// memorySubscriptionRepo stores copies so every read returns an independent snapshot, as a
// database would.
type memorySubscriptionRepo struct {
	mu    sync.Mutex
	rows  map[uint]*subscription.Subscription
	onGet func()
}

func newMemorySubscriptionRepo() *memorySubscriptionRepo {
	return &memorySubscriptionRepo{rows: make(map[uint]*subscription.Subscription)}
}

func (r *memorySubscriptionRepo) Create(ctx context.Context, sub *subscription.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sub.ID() == 0 {
		if err := sub.SetID(uint(len(r.rows) + 1)); err != nil {
			return err
		}
	}
	r.rows[sub.ID()] = cloneSubscription(sub)
	return nil
}

func (r *memorySubscriptionRepo) GetByID(ctx context.Context, id uint) (*subscription.Subscription, error) {
	r.mu.Lock()
	row, ok := r.rows[id]
	var out *subscription.Subscription
	if ok {
		out = cloneSubscription(row)
	}
	hook := r.onGet
	r.mu.Unlock()

	if hook != nil {
		hook()
	}
	return out, nil
}

func (r *memorySubscriptionRepo) GetBySID(ctx context.Context, sid string) (*subscription.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.SID() == sid {
			return cloneSubscription(row), nil
		}
	}
	return nil, nil
}

func (r *memorySubscriptionRepo) GetByGatewayRef(ctx context.Context, ref string) (*subscription.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.GatewayRef() != nil && *row.GatewayRef() == ref {
			return cloneSubscription(row), nil
		}
	}
	return nil, nil
}

func (r *memorySubscriptionRepo) GetLatestByTutorID(ctx context.Context, tutorID string) (*subscription.Subscription, error) {
	return nil, nil
}

func (r *memorySubscriptionRepo) Update(ctx context.Context, sub *subscription.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.rows[sub.ID()]
	if !ok || stored.Version() != sub.ExpectedVersion() {
		return subscription.ErrConcurrentModification
	}
	r.rows[sub.ID()] = cloneSubscription(sub)
	sub.MarkPersisted()
	return nil
}

func (r *memorySubscriptionRepo) List(ctx context.Context, filter subscription.SubscriptionFilter) ([]*subscription.Subscription, error) {
	return nil, nil
}

func (r *memorySubscriptionRepo) stored(t *testing.T, id uint) *subscription.Subscription {
	t.Helper()
	sub, err := r.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, sub)
	return sub
}

func cloneSubscription(s *subscription.Subscription) *subscription.Subscription {
	c, err := subscription.ReconstructSubscription(
		s.ID(), s.SID(), s.TutorID(), s.PlanID(), s.Status(), s.FinalPrice(), s.Currency(),
		s.GatewayRef(), s.GatewayStatus(), s.GraceDaysUsed(), s.GracePeriodStart(), s.DelinquentSince(),
		s.CancelledAt(), s.CancelReason(), s.CancelledBy(), s.Version(), s.CreatedAt(), s.UpdatedAt(),
	)
	if err != nil {
		panic(err)
	}
	return c
}

type memoryHistoryRepo struct {
	mu      sync.Mutex
	records []*subscription.HistoryRecord
}

func (r *memoryHistoryRepo) Append(ctx context.Context, record *subscription.HistoryRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := record.SetID(uint(len(r.records) + 1)); err != nil {
		return err
	}
	r.records = append(r.records, record)
	return nil
}

func (r *memoryHistoryRepo) ListBySubscription(ctx context.Context, subscriptionID uint) ([]*subscription.HistoryRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*subscription.HistoryRecord
	for _, rec := range r.records {
		if rec.SubscriptionID() == subscriptionID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *memoryHistoryRepo) Latest(ctx context.Context, subscriptionID uint) (*subscription.HistoryRecord, error) {
	records, _ := r.ListBySubscription(ctx, subscriptionID)
	if len(records) == 0 {
		return nil, nil
	}
	return records[len(records)-1], nil
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, subscriptionID uint, previous, next vo.SubscriptionStatus, reason string) {
	m.Called(subscriptionID, previous, next, reason)
}

type countingRecorder struct {
	mu    sync.Mutex
	calls []string
}

func (c *countingRecorder) RecordTransition(from, to vo.SubscriptionStatus, actor vo.Actor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, from.String()+">"+to.String()+":"+actor.String())
}

// seedSubscription stores a subscription in status with the given grace start.
func seedSubscription(t *testing.T, repo *memorySubscriptionRepo, id uint, status vo.SubscriptionStatus, graceStart *time.Time) {
	t.Helper()
	var (
		cancelledAt *time.Time
		reason      *string
		by          *vo.Actor
		delinquent  *time.Time
	)
	if status == vo.StatusCancelled {
		r, a := "tutor request", vo.ActorTutor
		cancelledAt, reason, by = &testNow, &r, &a
	}
	if status == vo.StatusDelinquent {
		delinquent = &testNow
	}
	sub, err := subscription.ReconstructSubscription(id, "sub_test", "tutor-1", 1, status, 40000, "ARS",
		nil, nil, 0, graceStart, delinquent, cancelledAt, reason, by, 1, testNow, testNow)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), sub))
}
