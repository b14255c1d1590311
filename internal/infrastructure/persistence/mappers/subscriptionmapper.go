package mappers

import (
	"fmt"

	"github.com/mateatletas/tutorbilling/internal/domain/subscription"
	vo "github.com/mateatletas/tutorbilling/internal/domain/subscription/valueobjects"
	"github.com/mateatletas/tutorbilling/internal/infrastructure/persistence/models"
	"github.com/mateatletas/tutorbilling/internal/shared/mapper"
)

type SubscriptionMapper interface {
	ToEntity(model *models.SubscriptionModel) (*subscription.Subscription, error)
	ToModel(entity *subscription.Subscription) (*models.SubscriptionModel, error)
	ToEntities(models []*models.SubscriptionModel) ([]*subscription.Subscription, error)
}

type SubscriptionMapperImpl struct{}

func NewSubscriptionMapper() SubscriptionMapper {
	return &SubscriptionMapperImpl{}
}

func (m *SubscriptionMapperImpl) ToEntity(model *models.SubscriptionModel) (*subscription.Subscription, error) {
	if model == nil {
		return nil, nil
	}

	status, ok := vo.ParseStatus(model.Status)
	if !ok {
		return nil, fmt.Errorf("invalid subscription status: %s", model.Status)
	}

	var cancelledBy *vo.Actor
	if model.CancelledBy != nil {
		actor := vo.Actor(*model.CancelledBy)
		if !actor.IsValid() {
			return nil, fmt.Errorf("invalid cancelled_by actor: %s", *model.CancelledBy)
		}
		cancelledBy = &actor
	}

	entity, err := subscription.ReconstructSubscription(
		model.ID,
		model.SID,
		model.TutorID,
		model.PlanID,
		status,
		model.FinalPrice,
		model.Currency,
		model.GatewaySubscriptionRef,
		model.GatewayStatus,
		model.GraceDaysUsed,
		model.GracePeriodStart,
		model.DelinquentSince,
		model.CancelledAt,
		model.CancelReason,
		cancelledBy,
		model.Version,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct subscription entity: %w", err)
	}

	return entity, nil
}

func (m *SubscriptionMapperImpl) ToModel(entity *subscription.Subscription) (*models.SubscriptionModel, error) {
	if entity == nil {
		return nil, nil
	}

	var cancelledBy *string
	if actor := entity.CancelledBy(); actor != nil {
		s := actor.String()
		cancelledBy = &s
	}

	return &models.SubscriptionModel{
		ID:                     entity.ID(),
		SID:                    entity.SID(),
		TutorID:                entity.TutorID(),
		PlanID:                 entity.PlanID(),
		Status:                 entity.Status().String(),
		FinalPrice:             entity.FinalPrice(),
		Currency:               entity.Currency(),
		GatewaySubscriptionRef: entity.GatewayRef(),
		GatewayStatus:          entity.GatewayStatus(),
		GraceDaysUsed:          entity.GraceDaysUsed(),
		GracePeriodStart:       entity.GracePeriodStart(),
		DelinquentSince:        entity.DelinquentSince(),
		CancelledAt:            entity.CancelledAt(),
		CancelReason:           entity.CancelReason(),
		CancelledBy:            cancelledBy,
		Version:                entity.Version(),
		CreatedAt:              entity.CreatedAt(),
		UpdatedAt:              entity.UpdatedAt(),
	}, nil
}

func (m *SubscriptionMapperImpl) ToEntities(modelList []*models.SubscriptionModel) ([]*subscription.Subscription, error) {
	return mapper.MapSliceWithError(modelList, m.ToEntity)
}
