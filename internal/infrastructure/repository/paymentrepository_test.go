package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mateatletas/tutorbilling/internal/domain/payment"
	vo "github.com/mateatletas/tutorbilling/internal/domain/payment/valueobjects"
	"github.com/mateatletas/tutorbilling/internal/infrastructure/database/dbtest"
)

func newTestPayment(t *testing.T, ref, status string, periodStart *time.Time, attempt int) *payment.Payment {
	t.Helper()
	amount := vo.NewMoney(40000, "ARS")
	p, err := payment.NewPayment(1, ref, status, &amount, periodStart, nil, attempt, map[string]interface{}{"source": "webhook"}, testNow)
	require.NoError(t, err)
	return p
}

func TestPaymentRepository_Upsert(t *testing.T) {
	repo := NewPaymentRepository(dbtest.Open(t))
	ctx := context.Background()

	first := newTestPayment(t, "pay-1", "pending", nil, 1)
	created, err := repo.Upsert(ctx, first)
	require.NoError(t, err)
	assert.True(t, created)
	require.NotZero(t, first.ID())

	amount := vo.NewMoney(40000, "ARS")
	correction, err := payment.NewPayment(1, "pay-1", "approved", &amount, nil, nil, 5,
		map[string]interface{}{"gateway_event_id": "evt-2"}, testNow.Add(time.Hour))
	require.NoError(t, err)
	created, err = repo.Upsert(ctx, correction)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID(), correction.ID())

	stored, err := repo.GetByGatewayRef(ctx, "pay-1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "approved", stored.GatewayStatus())
	assert.Equal(t, 1, stored.AttemptNumber())
	require.NotNil(t, stored.Amount())
	assert.Equal(t, int64(40000), stored.Amount().AmountInCents())
	assert.Equal(t, "webhook", stored.Metadata()["source"])
	assert.Equal(t, "evt-2", stored.Metadata()["gateway_event_id"])

	all, err := repo.ListBySubscription(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestPaymentRepository_UpsertRejectsReferenceOfAnotherSubscription(t *testing.T) {
	repo := NewPaymentRepository(dbtest.Open(t))
	ctx := context.Background()

	_, err := repo.Upsert(ctx, newTestPayment(t, "pay-1", "pending", nil, 1))
	require.NoError(t, err)

	foreign, err := payment.NewPayment(2, "pay-1", "rejected", nil, nil, nil, 1, nil, testNow)
	require.NoError(t, err)
	created, err := repo.Upsert(ctx, foreign)

	assert.ErrorIs(t, err, payment.ErrPaymentRefConflict)
	assert.False(t, created)

	stored, err := repo.GetByGatewayRef(ctx, "pay-1")
	require.NoError(t, err)
	assert.Equal(t, uint(1), stored.SubscriptionID())
	assert.Equal(t, "pending", stored.GatewayStatus())
}

func TestPaymentRepository_CountForPeriod(t *testing.T) {
	repo := NewPaymentRepository(dbtest.Open(t))
	ctx := context.Background()
	period := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i, ref := range []string{"pay-a", "pay-b"} {
		_, err := repo.Upsert(ctx, newTestPayment(t, ref, "rejected", &period, i+1))
		require.NoError(t, err)
	}
	_, err := repo.Upsert(ctx, newTestPayment(t, "pay-c", "pending", nil, 1))
	require.NoError(t, err)

	count, err := repo.CountForPeriod(ctx, 1, &period)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	count, err = repo.CountForPeriod(ctx, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = repo.CountForPeriod(ctx, 2, &period)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestProcessedEventRepository(t *testing.T) {
	repo := NewProcessedEventRepository(dbtest.Open(t))
	ctx := context.Background()

	event, err := payment.NewProcessedEvent("evt-1", "gw-sub-1", "approved", testNow)
	require.NoError(t, err)
	require.NoError(t, repo.Record(ctx, event))
	assert.NotZero(t, event.ID())

	t.Run("second delivery is a duplicate", func(t *testing.T) {
		again, err := payment.NewProcessedEvent("evt-1", "gw-sub-1", "approved", testNow)
		require.NoError(t, err)
		assert.ErrorIs(t, repo.Record(ctx, again), payment.ErrDuplicateEvent)
	})

	t.Run("outcome is recorded", func(t *testing.T) {
		msg := "invalid transition"
		require.NoError(t, repo.SetOutcome(ctx, "evt-1", payment.OutcomeRejected, &msg))

		stored, err := repo.GetByGatewayEventID(ctx, "evt-1")
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, payment.OutcomeRejected, stored.Outcome())
		require.NotNil(t, stored.ErrorMessage())
		assert.Equal(t, msg, *stored.ErrorMessage())
	})

	t.Run("unknown event", func(t *testing.T) {
		stored, err := repo.GetByGatewayEventID(ctx, "evt-404")
		assert.NoError(t, err)
		assert.Nil(t, stored)
	})
}
