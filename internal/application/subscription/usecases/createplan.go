package usecases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mateatletas/tutorbilling/internal/application/subscription/dto"
	"github.com/mateatletas/tutorbilling/internal/domain/subscription"
	vo "github.com/mateatletas/tutorbilling/internal/domain/subscription/valueobjects"
	"github.com/mateatletas/tutorbilling/internal/shared/biztime"
	"github.com/mateatletas/tutorbilling/internal/shared/errors"
	"github.com/mateatletas/tutorbilling/internal/shared/id"
	"github.com/mateatletas/tutorbilling/internal/shared/logger"
	"github.com/mateatletas/tutorbilling/internal/shared/utils"
)

type CreatePlanCommand struct {
	Name          string `json:"name" validate:"required,max=100"`
	BasePrice     int64  `json:"base_price" validate:"gt=0"`
	Currency      string `json:"currency" validate:"required,currency"`
	Interval      string `json:"interval" validate:"required,oneof=DIARIO SEMANAL MENSUAL ANUAL"`
	IntervalCount int    `json:"interval_count" validate:"gte=1"`
}

type CreatePlanUseCase struct {
	planRepo subscription.PlanRepository
	now      func() time.Time
	logger   logger.Interface
}

func NewCreatePlanUseCase(
	planRepo subscription.PlanRepository,
	logger logger.Interface,
) *CreatePlanUseCase {
	return &CreatePlanUseCase{
		planRepo: planRepo,
		now:      biztime.NowUTC,
		logger:   logger,
	}
}

func (uc *CreatePlanUseCase) Execute(ctx context.Context, cmd CreatePlanCommand) (*dto.PlanDTO, error) {
	cmd.Currency = strings.ToUpper(strings.TrimSpace(cmd.Currency))
	if cmd.IntervalCount == 0 {
		cmd.IntervalCount = 1
	}
	if err := utils.ValidateStruct(cmd); err != nil {
		return nil, err
	}

	plan, err := subscription.NewPlan(
		cmd.Name,
		cmd.BasePrice,
		cmd.Currency,
		vo.BillingInterval(cmd.Interval),
		cmd.IntervalCount,
		uc.now(),
		id.NewPlanSID,
	)
	if err != nil {
		uc.logger.Warnw("invalid plan", "name", cmd.Name, "error", err)
		return nil, errors.NewValidationError("invalid plan", err.Error())
	}

	if err := uc.planRepo.Create(ctx, plan); err != nil {
		uc.logger.Errorw("failed to persist plan", "error", err)
		return nil, fmt.Errorf("failed to persist plan: %w", err)
	}

	uc.logger.Infow("plan created", "plan_id", plan.ID(), "sid", plan.SID(), "name", plan.Name())
	return dto.ToPlanDTO(plan), nil
}
