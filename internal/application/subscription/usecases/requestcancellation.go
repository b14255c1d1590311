package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mateatletas/tutorbilling/internal/application/subscription/dto"
	"github.com/mateatletas/tutorbilling/internal/application/subscription/services"
	"github.com/mateatletas/tutorbilling/internal/domain/subscription"
	vo "github.com/mateatletas/tutorbilling/internal/domain/subscription/valueobjects"
	apperrors "github.com/mateatletas/tutorbilling/internal/shared/errors"
	"github.com/mateatletas/tutorbilling/internal/shared/logger"
	"github.com/mateatletas/tutorbilling/internal/shared/utils"
)

type RequestCancellationCommand struct {
	SubscriptionID uint   `json:"subscription_id" validate:"required"`
	Actor          string `json:"actor" validate:"required,oneof=tutor admin"`
	Reason         string `json:"reason" validate:"required,max=500"`
}

type RequestCancellationUseCase struct {
	engine TransitionApplier
	logger logger.Interface
}

func NewRequestCancellationUseCase(engine TransitionApplier, logger logger.Interface) *RequestCancellationUseCase {
	return &RequestCancellationUseCase{
		engine: engine,
		logger: logger,
	}
}

// Execute cancels the subscription on behalf of a tutor or an administrator. A subscription
// that is already cancelled yields a conflict.
func (uc *RequestCancellationUseCase) Execute(ctx context.Context, cmd RequestCancellationCommand) (*dto.SubscriptionDTO, error) {
	cmd.Reason = strings.TrimSpace(cmd.Reason)
	if err := utils.ValidateStruct(cmd); err != nil {
		return nil, err
	}

	result, err := uc.engine.ApplyTransition(ctx, services.TransitionRequest{
		SubscriptionID: cmd.SubscriptionID,
		Target:         vo.StatusCancelled,
		Reason:         cmd.Reason,
		Actor:          vo.Actor(cmd.Actor),
		Metadata:       map[string]interface{}{"source": "cancellation_request"},
	})
	if err != nil {
		switch {
		case errors.Is(err, subscription.ErrAlreadyTerminal):
			return nil, apperrors.NewConflictError("subscription already cancelled")
		case errors.Is(err, subscription.ErrSubscriptionNotFound):
			return nil, apperrors.NewNotFoundError("subscription not found")
		case errors.Is(err, subscription.ErrConcurrentModification):
			return nil, apperrors.NewConflictError("subscription was modified concurrently, retry")
		}
		uc.logger.Errorw("failed to cancel subscription", "subscription_id", cmd.SubscriptionID, "error", err)
		return nil, fmt.Errorf("failed to cancel subscription: %w", err)
	}

	uc.logger.Infow("subscription cancelled",
		"subscription_id", cmd.SubscriptionID,
		"actor", cmd.Actor,
		"from", result.Previous,
	)
	return dto.ToSubscriptionDTO(result.Subscription), nil
}
