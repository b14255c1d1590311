package mappers

import (
	"github.com/mateatletas/tutorbilling/internal/domain/payment"
	"github.com/mateatletas/tutorbilling/internal/infrastructure/persistence/models"
)

type ProcessedEventMapper interface {
	ToEntity(model *models.ProcessedGatewayEventModel) *payment.ProcessedEvent
	ToModel(entity *payment.ProcessedEvent) *models.ProcessedGatewayEventModel
}

type ProcessedEventMapperImpl struct{}

func NewProcessedEventMapper() ProcessedEventMapper {
	return &ProcessedEventMapperImpl{}
}

func (m *ProcessedEventMapperImpl) ToEntity(model *models.ProcessedGatewayEventModel) *payment.ProcessedEvent {
	if model == nil {
		return nil
	}
	return payment.ReconstructProcessedEvent(
		model.ID,
		model.GatewayEventID,
		model.GatewaySubscriptionRef,
		model.GatewayStatus,
		payment.EventOutcome(model.Outcome),
		model.Error,
		model.CreatedAt,
	)
}

func (m *ProcessedEventMapperImpl) ToModel(entity *payment.ProcessedEvent) *models.ProcessedGatewayEventModel {
	if entity == nil {
		return nil
	}
	return &models.ProcessedGatewayEventModel{
		ID:                     entity.ID(),
		GatewayEventID:         entity.GatewayEventID(),
		GatewaySubscriptionRef: entity.GatewaySubscriptionRef(),
		GatewayStatus:          entity.GatewayStatus(),
		Outcome:                string(entity.Outcome()),
		Error:                  entity.ErrorMessage(),
		CreatedAt:              entity.CreatedAt(),
		UpdatedAt:              entity.CreatedAt(),
	}
}
