package usecases

import (
	"context"
	"fmt"

	"github.com/mateatletas/tutorbilling/internal/application/subscription/dto"
	"github.com/mateatletas/tutorbilling/internal/domain/subscription"
	"github.com/mateatletas/tutorbilling/internal/shared/errors"
	"github.com/mateatletas/tutorbilling/internal/shared/logger"
)

type GetSubscriptionHistoryUseCase struct {
	subscriptionRepo subscription.SubscriptionRepository
	historyRepo      subscription.HistoryRepository
	logger           logger.Interface
}

func NewGetSubscriptionHistoryUseCase(
	subscriptionRepo subscription.SubscriptionRepository,
	historyRepo subscription.HistoryRepository,
	logger logger.Interface,
) *GetSubscriptionHistoryUseCase {
	return &GetSubscriptionHistoryUseCase{
		subscriptionRepo: subscriptionRepo,
		historyRepo:      historyRepo,
		logger:           logger,
	}
}

func (uc *GetSubscriptionHistoryUseCase) Execute(ctx context.Context, subscriptionID uint) (*dto.SubscriptionHistoryDTO, error) {
	sub, err := uc.subscriptionRepo.GetByID(ctx, subscriptionID)
	if err != nil {
		uc.logger.Errorw("failed to get subscription", "subscription_id", subscriptionID, "error", err)
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	if sub == nil {
		return nil, errors.NewNotFoundError("subscription not found")
	}

	records, err := uc.historyRepo.ListBySubscription(ctx, subscriptionID)
	if err != nil {
		uc.logger.Errorw("failed to list subscription history", "subscription_id", subscriptionID, "error", err)
		return nil, fmt.Errorf("failed to list subscription history: %w", err)
	}

	out := &dto.SubscriptionHistoryDTO{
		SubscriptionID: sub.ID(),
		Status:         sub.Status().String(),
		Records:        dto.ToHistoryRecordDTOs(records),
	}
	if n := len(out.Records); n > 0 {
		out.Latest = out.Records[n-1]
	}
	return out, nil
}
