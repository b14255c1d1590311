package mappers

import (
	"fmt"

	"github.com/mateatletas/tutorbilling/internal/domain/subscription"
	vo "github.com/mateatletas/tutorbilling/internal/domain/subscription/valueobjects"
	"github.com/mateatletas/tutorbilling/internal/infrastructure/persistence/models"
	"github.com/mateatletas/tutorbilling/internal/shared/mapper"
)

type HistoryMapper interface {
	ToEntity(model *models.SubscriptionHistoryModel) (*subscription.HistoryRecord, error)
	ToModel(entity *subscription.HistoryRecord) (*models.SubscriptionHistoryModel, error)
	ToEntities(models []*models.SubscriptionHistoryModel) ([]*subscription.HistoryRecord, error)
}

type HistoryMapperImpl struct{}

func NewHistoryMapper() HistoryMapper {
	return &HistoryMapperImpl{}
}

func (m *HistoryMapperImpl) ToEntity(model *models.SubscriptionHistoryModel) (*subscription.HistoryRecord, error) {
	if model == nil {
		return nil, nil
	}

	var previous *vo.SubscriptionStatus
	if model.PreviousStatus != nil {
		status, ok := vo.ParseStatus(*model.PreviousStatus)
		if !ok {
			return nil, fmt.Errorf("invalid previous status: %s", *model.PreviousStatus)
		}
		previous = &status
	}

	next, ok := vo.ParseStatus(model.NewStatus)
	if !ok {
		return nil, fmt.Errorf("invalid new status: %s", model.NewStatus)
	}

	metadata, err := unmarshalMetadata(model.Metadata)
	if err != nil {
		return nil, err
	}

	return subscription.ReconstructHistoryRecord(
		model.ID,
		model.SubscriptionID,
		previous,
		next,
		model.Reason,
		vo.Actor(model.Actor),
		metadata,
		model.CreatedAt,
	)
}

func (m *HistoryMapperImpl) ToModel(entity *subscription.HistoryRecord) (*models.SubscriptionHistoryModel, error) {
	if entity == nil {
		return nil, nil
	}

	metadata, err := marshalMetadata(entity.Metadata())
	if err != nil {
		return nil, err
	}

	var previous *string
	if p := entity.PreviousStatus(); p != nil {
		s := p.String()
		previous = &s
	}

	return &models.SubscriptionHistoryModel{
		ID:             entity.ID(),
		SubscriptionID: entity.SubscriptionID(),
		PreviousStatus: previous,
		NewStatus:      entity.NewStatus().String(),
		Reason:         entity.Reason(),
		Actor:          entity.Actor().String(),
		Metadata:       metadata,
		CreatedAt:      entity.CreatedAt(),
	}, nil
}

func (m *HistoryMapperImpl) ToEntities(modelList []*models.SubscriptionHistoryModel) ([]*subscription.HistoryRecord, error) {
	return mapper.MapSliceWithError(modelList, m.ToEntity)
}
