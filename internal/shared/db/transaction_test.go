package db

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type counter struct {
	ID    uint `gorm:"primaryKey"`
	Value int
}

func setupDB(t *testing.T) *gorm.DB {
	database, err := gorm.Open(sqlite.Open(memoryDSN(t)), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(&counter{}))
	return database
}

func memoryDSN(t *testing.T) string {
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	return "file:" + name + "?mode=memory&cache=shared"
}

func TestRunInTransaction(t *testing.T) {
	t.Run("after commit callbacks run once the outermost transaction commits", func(t *testing.T) {
		database := setupDB(t)
		tm := NewTransactionManager(database)

		var order []string
		err := tm.RunInTransaction(context.Background(), func(ctx context.Context) error {
			AfterCommit(ctx, func() { order = append(order, "outer") })

			err := tm.RunInTransaction(ctx, func(inner context.Context) error {
				assert.True(t, InTransaction(inner))
				AfterCommit(inner, func() { order = append(order, "inner") })
				return GetTxFromContext(inner, database).Create(&counter{Value: 1}).Error
			})
			require.NoError(t, err)
			assert.Empty(t, order)
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, []string{"outer", "inner"}, order)

		var count int64
		require.NoError(t, database.Model(&counter{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("rollback drops callbacks and writes", func(t *testing.T) {
		database := setupDB(t)
		tm := NewTransactionManager(database)
		boom := errors.New("boom")

		called := false
		err := tm.RunInTransaction(context.Background(), func(ctx context.Context) error {
			AfterCommit(ctx, func() { called = true })
			if err := GetTxFromContext(ctx, database).Create(&counter{Value: 1}).Error; err != nil {
				return err
			}
			return boom
		})

		assert.ErrorIs(t, err, boom)
		assert.False(t, called)

		var count int64
		require.NoError(t, database.Model(&counter{}).Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("after commit outside a transaction runs immediately", func(t *testing.T) {
		called := false
		AfterCommit(context.Background(), func() { called = true })
		assert.True(t, called)
	})
}
