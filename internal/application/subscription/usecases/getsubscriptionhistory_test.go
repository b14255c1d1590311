package usecases

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mateatletas/tutorbilling/internal/domain/subscription"
	vo "github.com/mateatletas/tutorbilling/internal/domain/subscription/valueobjects"
	apperrors "github.com/mateatletas/tutorbilling/internal/shared/errors"
	"github.com/mateatletas/tutorbilling/internal/shared/logger"
)

func TestGetSubscriptionHistoryUseCase_Execute(t *testing.T) {
	subs := newMemorySubscriptionRepo()
	seed(t, subs, subscriptionSeed{id: 1, status: vo.StatusGrace, graceStart: daysAgo(1)})

	history := &memoryHistoryRepo{}
	active, grace := vo.StatusActive, vo.StatusGrace
	for _, rec := range []struct {
		prev *vo.SubscriptionStatus
		next vo.SubscriptionStatus
	}{
		{nil, vo.StatusActive},
		{&active, vo.StatusGrace},
		{&grace, vo.StatusGrace},
	} {
		record, err := subscription.NewHistoryRecord(1, rec.prev, rec.next, "gateway event", vo.ActorGateway, nil, testNow)
		require.NoError(t, err)
		require.NoError(t, history.Append(context.Background(), record))
	}

	uc := NewGetSubscriptionHistoryUseCase(subs, history, logger.NewNop())
	out, err := uc.Execute(context.Background(), 1)

	require.NoError(t, err)
	require.Len(t, out.Records, 3)
	assert.Nil(t, out.Records[0].PreviousStatus)
	assert.Equal(t, "ACTIVA", out.Records[0].NewStatus)
	assert.Equal(t, "ACTIVA", *out.Records[1].PreviousStatus)
	assert.True(t, out.Records[2].NoOp)
	assert.Equal(t, out.Records[2], out.Latest)
	assert.Equal(t, "EN_GRACIA", out.Status)

	_, err = uc.Execute(context.Background(), 2)
	assert.True(t, apperrors.IsNotFoundError(err))
}

func TestGetSubscriptionHistoryUseCase_EmptyLedger(t *testing.T) {
	subs := newMemorySubscriptionRepo()
	seed(t, subs, subscriptionSeed{id: 1, status: vo.StatusPending})

	uc := NewGetSubscriptionHistoryUseCase(subs, &memoryHistoryRepo{}, logger.NewNop())
	out, err := uc.Execute(context.Background(), 1)

	require.NoError(t, err)
	assert.Empty(t, out.Records)
	assert.NotNil(t, out.Records)
	assert.Nil(t, out.Latest)
}
