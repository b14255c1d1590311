package handlers

import (
	"context"

	paymentUsecases "github.com/mateatletas/tutorbilling/internal/application/payment/usecases"
	subdto "github.com/mateatletas/tutorbilling/internal/application/subscription/dto"
	"github.com/mateatletas/tutorbilling/internal/application/subscription/usecases"
)

type reconcileGatewayEventUseCase interface {
	Execute(ctx context.Context, cmd paymentUsecases.ReconcileGatewayEventCommand) (*paymentUsecases.ReconcileResult, error)
}

type createPlanUseCase interface {
	Execute(ctx context.Context, cmd usecases.CreatePlanCommand) (*subdto.PlanDTO, error)
}

type deactivatePlanUseCase interface {
	Execute(ctx context.Context, planID uint) (*subdto.PlanDTO, error)
}

type createSubscriptionUseCase interface {
	Execute(ctx context.Context, cmd usecases.CreateSubscriptionCommand) (*subdto.SubscriptionDTO, error)
}

type requestCancellationUseCase interface {
	Execute(ctx context.Context, cmd usecases.RequestCancellationCommand) (*subdto.SubscriptionDTO, error)
}

type getSubscriptionHistoryUseCase interface {
	Execute(ctx context.Context, subscriptionID uint) (*subdto.SubscriptionHistoryDTO, error)
}

type checkAccessUseCase interface {
	Execute(ctx context.Context, tutorID string) (*subdto.AccessDTO, error)
}
