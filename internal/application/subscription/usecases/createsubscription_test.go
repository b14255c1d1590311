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

func createPlan(t *testing.T, repo *memoryPlanRepo, basePrice int64) *subscription.Plan {
	t.Helper()
	plan, err := subscription.NewPlan("Mensual", basePrice, "ARS", vo.IntervalMonthly, 1, testNow,
		func() (string, error) { return "plan_test", nil })
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), plan))
	return plan
}

func TestCreatePlanUseCase_Execute(t *testing.T) {
	repo := newMemoryPlanRepo()
	uc := NewCreatePlanUseCase(repo, logger.NewNop())

	out, err := uc.Execute(context.Background(), CreatePlanCommand{
		Name:      "Mensual",
		BasePrice: 40000,
		Currency:  "ars",
		Interval:  "MENSUAL",
	})

	require.NoError(t, err)
	assert.Equal(t, "ARS", out.Currency)
	assert.Equal(t, 1, out.IntervalCount)
	assert.True(t, out.Active)
	assert.Contains(t, out.SID, "plan_")

	_, err = uc.Execute(context.Background(), CreatePlanCommand{Name: "x", BasePrice: 100, Currency: "ARS", Interval: "HOURLY"})
	assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.GetAppError(err).Type)
}

func TestDeactivatePlanUseCase_Execute(t *testing.T) {
	repo := newMemoryPlanRepo()
	plan := createPlan(t, repo, 40000)
	uc := NewDeactivatePlanUseCase(repo, logger.NewNop())

	out, err := uc.Execute(context.Background(), plan.ID())
	require.NoError(t, err)
	assert.False(t, out.Active)

	out, err = uc.Execute(context.Background(), plan.ID())
	require.NoError(t, err)
	assert.False(t, out.Active)

	_, err = uc.Execute(context.Background(), 99)
	assert.True(t, apperrors.IsNotFoundError(err))
}

func TestCreateSubscriptionUseCase_Execute(t *testing.T) {
	t.Run("creates a pending subscription with the discounted price", func(t *testing.T) {
		plans := newMemoryPlanRepo()
		subs := newMemorySubscriptionRepo()
		plan := createPlan(t, plans, 40000)
		uc := NewCreateSubscriptionUseCase(subs, plans, logger.NewNop())

		out, err := uc.Execute(context.Background(), CreateSubscriptionCommand{
			TutorID:                "tutor-9",
			PlanID:                 plan.ID(),
			DiscountPercent:        25,
			GatewaySubscriptionRef: "preapproval-1",
		})

		require.NoError(t, err)
		assert.Equal(t, "PENDIENTE", out.Status)
		assert.Equal(t, int64(30000), out.FinalPrice)
		assert.Equal(t, "ARS", out.Currency)
		require.NotNil(t, out.GatewaySubscriptionRef)
		assert.Equal(t, "preapproval-1", *out.GatewaySubscriptionRef)
		assert.Contains(t, out.SID, "sub_")
	})

	t.Run("rejects inactive plans", func(t *testing.T) {
		plans := newMemoryPlanRepo()
		plan := createPlan(t, plans, 40000)
		plan.Deactivate(testNow)
		uc := NewCreateSubscriptionUseCase(newMemorySubscriptionRepo(), plans, logger.NewNop())

		_, err := uc.Execute(context.Background(), CreateSubscriptionCommand{TutorID: "tutor-9", PlanID: plan.ID()})

		assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.GetAppError(err).Type)
	})

	t.Run("unknown plan", func(t *testing.T) {
		uc := NewCreateSubscriptionUseCase(newMemorySubscriptionRepo(), newMemoryPlanRepo(), logger.NewNop())

		_, err := uc.Execute(context.Background(), CreateSubscriptionCommand{TutorID: "tutor-9", PlanID: 5})

		assert.True(t, apperrors.IsNotFoundError(err))
	})

	t.Run("gateway reference already in use", func(t *testing.T) {
		plans := newMemoryPlanRepo()
		subs := newMemorySubscriptionRepo()
		plan := createPlan(t, plans, 40000)
		uc := NewCreateSubscriptionUseCase(subs, plans, logger.NewNop())

		cmd := CreateSubscriptionCommand{TutorID: "tutor-9", PlanID: plan.ID(), GatewaySubscriptionRef: "preapproval-1"}
		_, err := uc.Execute(context.Background(), cmd)
		require.NoError(t, err)

		_, err = uc.Execute(context.Background(), cmd)
		assert.True(t, apperrors.IsConflictError(err))
	})

	t.Run("discount out of range", func(t *testing.T) {
		plans := newMemoryPlanRepo()
		plan := createPlan(t, plans, 40000)
		uc := NewCreateSubscriptionUseCase(newMemorySubscriptionRepo(), plans, logger.NewNop())

		_, err := uc.Execute(context.Background(), CreateSubscriptionCommand{TutorID: "tutor-9", PlanID: plan.ID(), DiscountPercent: 100})

		assert.Equal(t, apperrors.ErrorTypeValidation, apperrors.GetAppError(err).Type)
	})
}
