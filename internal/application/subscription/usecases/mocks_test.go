package usecases

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mateatletas/tutorbilling/internal/application/subscription/services"
	"github.com/mateatletas/tutorbilling/internal/domain/subscription"
	vo "github.com/mateatletas/tutorbilling/internal/domain/subscription/valueobjects"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

type mockTransitionApplier struct {
	mock.Mock
	policy subscription.GracePolicy
}

func newMockTransitionApplier() *mockTransitionApplier {
	return &mockTransitionApplier{policy: subscription.NewGracePolicy(3)}
}

func (m *mockTransitionApplier) ApplyTransition(ctx context.Context, req services.TransitionRequest) (*services.TransitionResult, error) {
	args := m.Called(req)
	var result *services.TransitionResult
	if r := args.Get(0); r != nil {
		result = r.(*services.TransitionResult)
	}
	return result, args.Error(1)
}

func (m *mockTransitionApplier) TrackGraceUsage(ctx context.Context, subscriptionID uint) (int, error) {
	args := m.Called(subscriptionID)
	return args.Int(0), args.Error(1)
}

func (m *mockTransitionApplier) GracePolicy() subscription.GracePolicy {
	return m.policy
}

type memorySubscriptionRepo struct {
	mu     sync.Mutex
	rows   map[uint]*subscription.Subscription
	nextID uint
}

func newMemorySubscriptionRepo() *memorySubscriptionRepo {
	return &memorySubscriptionRepo{rows: make(map[uint]*subscription.Subscription)}
}

func (r *memorySubscriptionRepo) Create(ctx context.Context, sub *subscription.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sub.ID() == 0 {
		r.nextID++
		if err := sub.SetID(r.nextID); err != nil {
			return err
		}
	} else if sub.ID() > r.nextID {
		r.nextID = sub.ID()
	}
	r.rows[sub.ID()] = sub
	return nil
}

func (r *memorySubscriptionRepo) GetByID(ctx context.Context, id uint) (*subscription.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows[id], nil
}

func (r *memorySubscriptionRepo) GetBySID(ctx context.Context, sid string) (*subscription.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.SID() == sid {
			return row, nil
		}
	}
	return nil, nil
}

func (r *memorySubscriptionRepo) GetByGatewayRef(ctx context.Context, ref string) (*subscription.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.GatewayRef() != nil && *row.GatewayRef() == ref {
			return row, nil
		}
	}
	return nil, nil
}

func (r *memorySubscriptionRepo) GetLatestByTutorID(ctx context.Context, tutorID string) (*subscription.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *subscription.Subscription
	for _, row := range r.rows {
		if row.TutorID() != tutorID {
			continue
		}
		if latest == nil || row.CreatedAt().After(latest.CreatedAt()) ||
			(row.CreatedAt().Equal(latest.CreatedAt()) && row.ID() > latest.ID()) {
			latest = row
		}
	}
	return latest, nil
}

func (r *memorySubscriptionRepo) Update(ctx context.Context, sub *subscription.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[sub.ID()] = sub
	sub.MarkPersisted()
	return nil
}

func (r *memorySubscriptionRepo) List(ctx context.Context, filter subscription.SubscriptionFilter) ([]*subscription.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]uint, 0, len(r.rows))
	for id := range r.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out []*subscription.Subscription
	for _, id := range ids {
		row := r.rows[id]
		if id <= filter.AfterID {
			continue
		}
		if filter.Status != nil && row.Status() != *filter.Status {
			continue
		}
		if filter.DelinquentBefore != nil &&
			(row.DelinquentSince() == nil || !row.DelinquentSince().Before(*filter.DelinquentBefore)) {
			continue
		}
		out = append(out, row)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

type memoryPlanRepo struct {
	rows map[uint]*subscription.Plan
}

func newMemoryPlanRepo() *memoryPlanRepo {
	return &memoryPlanRepo{rows: make(map[uint]*subscription.Plan)}
}

func (r *memoryPlanRepo) Create(ctx context.Context, plan *subscription.Plan) error {
	if err := plan.SetID(uint(len(r.rows) + 1)); err != nil {
		return err
	}
	r.rows[plan.ID()] = plan
	return nil
}

func (r *memoryPlanRepo) GetByID(ctx context.Context, id uint) (*subscription.Plan, error) {
	return r.rows[id], nil
}

func (r *memoryPlanRepo) Update(ctx context.Context, plan *subscription.Plan) error {
	r.rows[plan.ID()] = plan
	return nil
}

func (r *memoryPlanRepo) ListActive(ctx context.Context) ([]*subscription.Plan, error) {
	var out []*subscription.Plan
	for _, p := range r.rows {
		if p.IsActive() {
			out = append(out, p)
		}
	}
	return out, nil
}

type memoryHistoryRepo struct {
	records []*subscription.HistoryRecord
}

func (r *memoryHistoryRepo) Append(ctx context.Context, record *subscription.HistoryRecord) error {
	if err := record.SetID(uint(len(r.records) + 1)); err != nil {
		return err
	}
	r.records = append(r.records, record)
	return nil
}

func (r *memoryHistoryRepo) ListBySubscription(ctx context.Context, subscriptionID uint) ([]*subscription.HistoryRecord, error) {
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

type subscriptionSeed struct {
	id              uint
	tutorID         string
	status          vo.SubscriptionStatus
	graceStart      *time.Time
	delinquentSince *time.Time
	createdAt       time.Time
}

func seed(t *testing.T, repo *memorySubscriptionRepo, s subscriptionSeed) *subscription.Subscription {
	t.Helper()
	if s.tutorID == "" {
		s.tutorID = "tutor-1"
	}
	if s.createdAt.IsZero() {
		s.createdAt = testNow
	}
	var (
		cancelledAt *time.Time
		reason      *string
		by          *vo.Actor
	)
	if s.status == vo.StatusCancelled {
		r, a := "tutor request", vo.ActorTutor
		cancelledAt, reason, by = &testNow, &r, &a
	}
	sub, err := subscription.ReconstructSubscription(s.id, "sub_test", s.tutorID, 1, s.status, 40000, "ARS",
		nil, nil, 0, s.graceStart, s.delinquentSince, cancelledAt, reason, by, 1, s.createdAt, s.createdAt)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), sub))
	return sub
}

func daysAgo(days int) *time.Time {
	t := testNow.Add(-time.Duration(days) * 24 * time.Hour)
	return &t
}
