package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mateatletas/tutorbilling/internal/domain/payment"
	"github.com/mateatletas/tutorbilling/internal/infrastructure/persistence/mappers"
	"github.com/mateatletas/tutorbilling/internal/infrastructure/persistence/models"
	"github.com/mateatletas/tutorbilling/internal/shared/db"
	apperrors "github.com/mateatletas/tutorbilling/internal/shared/errors"
)

type ProcessedEventRepository struct {
	db     *gorm.DB
	mapper mappers.ProcessedEventMapper
}

func NewProcessedEventRepository(db *gorm.DB) *ProcessedEventRepository {
	return &ProcessedEventRepository{db: db, mapper: mappers.NewProcessedEventMapper()}
}

// Record inserts the dedup marker. The unique index on gateway_event_id decides races.
func (r *ProcessedEventRepository) Record(ctx context.Context, event *payment.ProcessedEvent) error {
	model := r.mapper.ToModel(event)
	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		if apperrors.IsDuplicateError(err) {
			return payment.ErrDuplicateEvent
		}
		return fmt.Errorf("failed to record gateway event: %w", err)
	}
	event.SetID(model.ID)
	return nil
}

func (r *ProcessedEventRepository) SetOutcome(ctx context.Context, gatewayEventID string, outcome payment.EventOutcome, errMsg *string) error {
	if err := db.GetTxFromContext(ctx, r.db).
		Model(&models.ProcessedGatewayEventModel{}).
		Where("gateway_event_id = ?", gatewayEventID).
		Updates(map[string]interface{}{
			"outcome":    string(outcome),
			"error":      errMsg,
			"updated_at": time.Now().UTC(),
		}).Error; err != nil {
		return fmt.Errorf("failed to set gateway event outcome: %w", err)
	}
	return nil
}

func (r *ProcessedEventRepository) GetByGatewayEventID(ctx context.Context, gatewayEventID string) (*payment.ProcessedEvent, error) {
	var model models.ProcessedGatewayEventModel
	if err := db.GetTxFromContext(ctx, r.db).Where("gateway_event_id = ?", gatewayEventID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get gateway event: %w", err)
	}
	return r.mapper.ToEntity(&model), nil
}
