package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/mateatletas/tutorbilling/internal/application/subscription/dto"
	"github.com/mateatletas/tutorbilling/internal/domain/subscription"
	"github.com/mateatletas/tutorbilling/internal/shared/biztime"
	"github.com/mateatletas/tutorbilling/internal/shared/errors"
	"github.com/mateatletas/tutorbilling/internal/shared/id"
	"github.com/mateatletas/tutorbilling/internal/shared/logger"
	"github.com/mateatletas/tutorbilling/internal/shared/utils"
)

type CreateSubscriptionCommand struct {
	TutorID                string `json:"tutor_id" validate:"required,max=64"`
	PlanID                 uint   `json:"plan_id" validate:"required"`
	DiscountPercent        int    `json:"discount_percent" validate:"gte=0,lte=99"`
	GatewaySubscriptionRef string `json:"gateway_subscription_ref" validate:"max=128"`
}

// CreateSubscriptionUseCase is checkout: it opens a PENDIENTE subscription that waits for the
// gateway's first authorization. No ledger record is written until that first transition.
type CreateSubscriptionUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	planRepo         subscription.PlanRepository
	now              func() time.Time
	logger           logger.Interface
}

func NewCreateSubscriptionUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	planRepo subscription.PlanRepository,
	logger logger.Interface,
) *CreateSubscriptionUseCase {
	return &CreateSubscriptionUseCase{
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		now:              biztime.NowUTC,
		logger:           logger,
	}
}

func (uc *CreateSubscriptionUseCase) Execute(ctx context.Context, cmd CreateSubscriptionCommand) (*dto.SubscriptionDTO, error) {
	if err := utils.ValidateStruct(cmd); err != nil {
		return nil, err
	}

	plan, err := uc.planRepo.GetByID(ctx, cmd.PlanID)
	if err != nil {
		uc.logger.Errorw("failed to get plan", "plan_id", cmd.PlanID, "error", err)
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	if plan == nil {
		return nil, errors.NewNotFoundError("plan not found")
	}
	if !plan.IsActive() {
		return nil, errors.NewValidationError("plan is not active")
	}

	price, err := plan.DiscountedPrice(cmd.DiscountPercent)
	if err != nil {
		return nil, errors.NewValidationError("invalid discount", err.Error())
	}

	var gatewayRef *string
	if cmd.GatewaySubscriptionRef != "" {
		existing, err := uc.subscriptionRepo.GetByGatewayRef(ctx, cmd.GatewaySubscriptionRef)
		if err != nil {
			return nil, fmt.Errorf("failed to check gateway reference: %w", err)
		}
		if existing != nil {
			return nil, errors.NewConflictError("gateway subscription reference already in use")
		}
		gatewayRef = &cmd.GatewaySubscriptionRef
	}

	sub, err := subscription.NewSubscription(
		cmd.TutorID,
		plan.ID(),
		price,
		plan.Currency(),
		gatewayRef,
		uc.now(),
		id.NewSubscriptionSID,
	)
	if err != nil {
		uc.logger.Warnw("invalid subscription", "tutor_id", cmd.TutorID, "error", err)
		return nil, errors.NewValidationError("invalid subscription", err.Error())
	}

	if err := uc.subscriptionRepo.Create(ctx, sub); err != nil {
		if errors.IsDuplicateError(err) {
			return nil, errors.NewConflictError("gateway subscription reference already in use")
		}
		uc.logger.Errorw("failed to persist subscription", "tutor_id", cmd.TutorID, "error", err)
		return nil, fmt.Errorf("failed to persist subscription: %w", err)
	}

	uc.logger.Infow("subscription created",
		"subscription_id", sub.ID(),
		"tutor_id", sub.TutorID(),
		"plan_id", plan.ID(),
		"final_price", price,
	)
	return dto.ToSubscriptionDTO(sub), nil
}
