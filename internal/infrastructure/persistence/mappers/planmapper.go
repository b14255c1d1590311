package mappers

import (
	"fmt"

	"github.com/mateatletas/tutorbilling/internal/domain/subscription"
	vo "github.com/mateatletas/tutorbilling/internal/domain/subscription/valueobjects"
	"github.com/mateatletas/tutorbilling/internal/infrastructure/persistence/models"
	"github.com/mateatletas/tutorbilling/internal/shared/mapper"
)

type PlanMapper interface {
	ToEntity(model *models.PlanModel) (*subscription.Plan, error)
	ToModel(entity *subscription.Plan) *models.PlanModel
	ToEntities(models []*models.PlanModel) ([]*subscription.Plan, error)
}

type PlanMapperImpl struct{}

func NewPlanMapper() PlanMapper {
	return &PlanMapperImpl{}
}

func (m *PlanMapperImpl) ToEntity(model *models.PlanModel) (*subscription.Plan, error) {
	if model == nil {
		return nil, nil
	}

	interval := vo.BillingInterval(model.Interval)
	if !interval.IsValid() {
		return nil, fmt.Errorf("invalid billing interval: %s", model.Interval)
	}

	entity, err := subscription.ReconstructPlan(
		model.ID,
		model.SID,
		model.Name,
		model.BasePrice,
		model.Currency,
		interval,
		model.IntervalCount,
		model.Active,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct plan entity: %w", err)
	}
	return entity, nil
}

func (m *PlanMapperImpl) ToModel(entity *subscription.Plan) *models.PlanModel {
	if entity == nil {
		return nil
	}
	return &models.PlanModel{
		ID:            entity.ID(),
		SID:           entity.SID(),
		Name:          entity.Name(),
		BasePrice:     entity.BasePrice(),
		Currency:      entity.Currency(),
		Interval:      entity.Interval().String(),
		IntervalCount: entity.IntervalCount(),
		Active:        entity.IsActive(),
		CreatedAt:     entity.CreatedAt(),
		UpdatedAt:     entity.UpdatedAt(),
	}
}

func (m *PlanMapperImpl) ToEntities(modelList []*models.PlanModel) ([]*subscription.Plan, error) {
	return mapper.MapSliceWithError(modelList, m.ToEntity)
}
