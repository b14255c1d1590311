package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mateatletas/tutorbilling/internal/domain/subscription"
	vo "github.com/mateatletas/tutorbilling/internal/domain/subscription/valueobjects"
	"github.com/mateatletas/tutorbilling/internal/infrastructure/database/dbtest"
	"github.com/mateatletas/tutorbilling/internal/shared/id"
	"github.com/mateatletas/tutorbilling/internal/shared/logger"
)

func TestPlanRepository(t *testing.T) {
	repo := NewPlanRepository(dbtest.Open(t), logger.NewNop())
	ctx := context.Background()

	monthly, err := subscription.NewPlan("Tutor mensual", 40000, "ars", vo.IntervalMonthly, 1, testNow, id.NewPlanSID)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, monthly))

	yearly, err := subscription.NewPlan("Tutor anual", 400000, "ARS", vo.IntervalYearly, 1, testNow, id.NewPlanSID)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, yearly))

	found, err := repo.GetByID(ctx, monthly.ID())
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "ARS", found.Currency())
	assert.Equal(t, vo.IntervalMonthly, found.Interval())
	assert.True(t, found.IsActive())

	found.Deactivate(testNow)
	require.NoError(t, repo.Update(ctx, found))

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, yearly.ID(), active[0].ID())

	missing, err := repo.GetByID(ctx, 999)
	assert.NoError(t, err)
	assert.Nil(t, missing)
}
