package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mateatletas/tutorbilling/internal/domain/subscription"
	vo "github.com/mateatletas/tutorbilling/internal/domain/subscription/valueobjects"
	"github.com/mateatletas/tutorbilling/internal/infrastructure/database/dbtest"
	"github.com/mateatletas/tutorbilling/internal/infrastructure/persistence/models"
	"github.com/mateatletas/tutorbilling/internal/shared/logger"
)

func appendRecord(t *testing.T, repo subscription.HistoryRepository, subID uint, prev *vo.SubscriptionStatus, next vo.SubscriptionStatus, at time.Time) *subscription.HistoryRecord {
	t.Helper()
	record, err := subscription.NewHistoryRecord(subID, prev, next, "test", vo.ActorSystem, map[string]interface{}{"k": "v"}, at)
	require.NoError(t, err)
	require.NoError(t, repo.Append(context.Background(), record))
	return record
}

func statusPtr(s vo.SubscriptionStatus) *vo.SubscriptionStatus { return &s }

func TestHistoryRepository_AppendAndRead(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewHistoryRepository(db, logger.NewNop())
	ctx := context.Background()

	latest, err := repo.Latest(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, latest)

	appendRecord(t, repo, 1, nil, vo.StatusActive, testNow)
	appendRecord(t, repo, 1, statusPtr(vo.StatusActive), vo.StatusGrace, testNow.Add(time.Hour))
	appendRecord(t, repo, 2, nil, vo.StatusActive, testNow)
	last := appendRecord(t, repo, 1, statusPtr(vo.StatusGrace), vo.StatusDelinquent, testNow.Add(2*time.Hour))

	records, err := repo.ListBySubscription(ctx, 1)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Nil(t, records[0].PreviousStatus())
	assert.Equal(t, vo.StatusActive, records[0].NewStatus())
	assert.Equal(t, vo.StatusGrace, records[1].NewStatus())
	assert.Equal(t, vo.StatusDelinquent, records[2].NewStatus())
	assert.Equal(t, "v", records[0].Metadata()["k"])
	for i := 1; i < len(records); i++ {
		assert.False(t, records[i].CreatedAt().Before(records[i-1].CreatedAt()))
	}

	latest, err = repo.Latest(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, last.ID(), latest.ID())
}

func TestHistoryRepository_AppendRejectsPersistedRecord(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewHistoryRepository(db, logger.NewNop())

	record := appendRecord(t, repo, 1, nil, vo.StatusActive, testNow)
	err := repo.Append(context.Background(), record)
	assert.ErrorIs(t, err, subscription.ErrHistoryImmutable)
}

func TestHistoryLedgerIsImmutable(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewHistoryRepository(db, logger.NewNop())
	record := appendRecord(t, repo, 1, nil, vo.StatusActive, testNow)

	t.Run("model update is refused", func(t *testing.T) {
		err := db.Model(&models.SubscriptionHistoryModel{ID: record.ID()}).Update("reason", "rewritten").Error
		assert.ErrorIs(t, err, subscription.ErrHistoryImmutable)
	})

	t.Run("model delete is refused", func(t *testing.T) {
		err := db.Delete(&models.SubscriptionHistoryModel{ID: record.ID()}).Error
		assert.ErrorIs(t, err, subscription.ErrHistoryImmutable)
	})

	t.Run("raw update is aborted by trigger", func(t *testing.T) {
		err := db.Exec("UPDATE subscription_histories SET reason = ? WHERE id = ?", "rewritten", record.ID()).Error
		require.Error(t, err)
		assert.Contains(t, err.Error(), "history record is immutable")
	})

	t.Run("raw delete is aborted by trigger", func(t *testing.T) {
		err := db.Exec("DELETE FROM subscription_histories WHERE id = ?", record.ID()).Error
		require.Error(t, err)
		assert.Contains(t, err.Error(), "history record is immutable")
	})

	records, err := repo.ListBySubscription(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "test", records[0].Reason())
}
