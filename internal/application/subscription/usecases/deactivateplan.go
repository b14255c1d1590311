package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/mateatletas/tutorbilling/internal/application/subscription/dto"
	"github.com/mateatletas/tutorbilling/internal/domain/subscription"
	"github.com/mateatletas/tutorbilling/internal/shared/biztime"
	"github.com/mateatletas/tutorbilling/internal/shared/errors"
	"github.com/mateatletas/tutorbilling/internal/shared/logger"
)

// DeactivatePlanUseCase withdraws a plan from checkout. Existing subscriptions keep it.
type DeactivatePlanUseCase struct {
	planRepo subscription.PlanRepository
	now      func() time.Time
	logger   logger.Interface
}

func NewDeactivatePlanUseCase(
	planRepo subscription.PlanRepository,
	logger logger.Interface,
) *DeactivatePlanUseCase {
	return &DeactivatePlanUseCase{
		planRepo: planRepo,
		now:      biztime.NowUTC,
		logger:   logger,
	}
}

func (uc *DeactivatePlanUseCase) Execute(ctx context.Context, planID uint) (*dto.PlanDTO, error) {
	plan, err := uc.planRepo.GetByID(ctx, planID)
	if err != nil {
		uc.logger.Errorw("failed to get plan", "plan_id", planID, "error", err)
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	if plan == nil {
		return nil, errors.NewNotFoundError("plan not found")
	}
	if !plan.IsActive() {
		return dto.ToPlanDTO(plan), nil
	}

	plan.Deactivate(uc.now())
	if err := uc.planRepo.Update(ctx, plan); err != nil {
		uc.logger.Errorw("failed to update plan", "plan_id", planID, "error", err)
		return nil, fmt.Errorf("failed to update plan: %w", err)
	}

	uc.logger.Infow("plan deactivated", "plan_id", planID)
	return dto.ToPlanDTO(plan), nil
}
