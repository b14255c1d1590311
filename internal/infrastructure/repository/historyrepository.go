package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mateatletas/tutorbilling/internal/domain/subscription"
	"github.com/mateatletas/tutorbilling/internal/infrastructure/persistence/mappers"
	"github.com/mateatletas/tutorbilling/internal/infrastructure/persistence/models"
	"github.com/mateatletas/tutorbilling/internal/shared/db"
	"github.com/mateatletas/tutorbilling/internal/shared/logger"
)

// HistoryRepositoryImpl only inserts and reads; the ledger has no update or delete path.
type HistoryRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.HistoryMapper
	logger logger.Interface
}

func NewHistoryRepository(db *gorm.DB, logger logger.Interface) subscription.HistoryRepository {
	return &HistoryRepositoryImpl{
		db:     db,
		mapper: mappers.NewHistoryMapper(),
		logger: logger,
	}
}

func (r *HistoryRepositoryImpl) Append(ctx context.Context, record *subscription.HistoryRecord) error {
	if record.ID() != 0 {
		return subscription.ErrHistoryImmutable
	}

	model, err := r.mapper.ToModel(record)
	if err != nil {
		r.logger.Errorw("failed to map history record to model", "subscription_id", record.SubscriptionID(), "error", err)
		return fmt.Errorf("failed to map history record: %w", err)
	}

	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		r.logger.Errorw("failed to append history record", "subscription_id", model.SubscriptionID, "error", err)
		return fmt.Errorf("failed to append history record: %w", err)
	}

	return record.SetID(model.ID)
}

// ListBySubscription returns the ledger oldest first.
func (r *HistoryRepositoryImpl) ListBySubscription(ctx context.Context, subscriptionID uint) ([]*subscription.HistoryRecord, error) {
	var historyModels []*models.SubscriptionHistoryModel
	if err := db.GetTxFromContext(ctx, r.db).
		Where("subscription_id = ?", subscriptionID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&historyModels).Error; err != nil {
		r.logger.Errorw("failed to list history records", "subscription_id", subscriptionID, "error", err)
		return nil, fmt.Errorf("failed to list history records: %w", err)
	}

	records, err := r.mapper.ToEntities(historyModels)
	if err != nil {
		return nil, fmt.Errorf("failed to map history records: %w", err)
	}
	return records, nil
}

func (r *HistoryRepositoryImpl) Latest(ctx context.Context, subscriptionID uint) (*subscription.HistoryRecord, error) {
	var model models.SubscriptionHistoryModel
	err := db.GetTxFromContext(ctx, r.db).
		Where("subscription_id = ?", subscriptionID).
		Order("created_at DESC").
		Order("id DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get latest history record", "subscription_id", subscriptionID, "error", err)
		return nil, fmt.Errorf("failed to get latest history record: %w", err)
	}

	return r.mapper.ToEntity(&model)
}
