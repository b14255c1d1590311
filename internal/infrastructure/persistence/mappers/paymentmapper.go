package mappers

import (
	"fmt"

	"github.com/mateatletas/tutorbilling/internal/domain/payment"
	vo "github.com/mateatletas/tutorbilling/internal/domain/payment/valueobjects"
	"github.com/mateatletas/tutorbilling/internal/infrastructure/persistence/models"
	"github.com/mateatletas/tutorbilling/internal/shared/mapper"
)

type PaymentMapper interface {
	ToEntity(model *models.PaymentModel) (*payment.Payment, error)
	ToModel(entity *payment.Payment) (*models.PaymentModel, error)
	ToEntities(models []*models.PaymentModel) ([]*payment.Payment, error)
}

type PaymentMapperImpl struct{}

func NewPaymentMapper() PaymentMapper {
	return &PaymentMapperImpl{}
}

func (m *PaymentMapperImpl) ToEntity(model *models.PaymentModel) (*payment.Payment, error) {
	if model == nil {
		return nil, nil
	}

	var amount *vo.Money
	if model.Amount != nil {
		currency := ""
		if model.Currency != nil {
			currency = *model.Currency
		}
		money := vo.NewMoney(*model.Amount, currency)
		amount = &money
	}

	metadata, err := unmarshalMetadata(model.Metadata)
	if err != nil {
		return nil, err
	}

	entity, err := payment.ReconstructPayment(
		model.ID,
		model.SubscriptionID,
		model.GatewayPaymentRef,
		model.GatewayStatus,
		amount,
		model.PeriodStart,
		model.PeriodEnd,
		model.AttemptNumber,
		metadata,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct payment entity: %w", err)
	}
	return entity, nil
}

func (m *PaymentMapperImpl) ToModel(entity *payment.Payment) (*models.PaymentModel, error) {
	if entity == nil {
		return nil, nil
	}

	metadata, err := marshalMetadata(entity.Metadata())
	if err != nil {
		return nil, err
	}

	model := &models.PaymentModel{
		ID:                entity.ID(),
		SubscriptionID:    entity.SubscriptionID(),
		GatewayPaymentRef: entity.GatewayPaymentRef(),
		GatewayStatus:     entity.GatewayStatus(),
		PeriodStart:       entity.PeriodStart(),
		PeriodEnd:         entity.PeriodEnd(),
		AttemptNumber:     entity.AttemptNumber(),
		Metadata:          metadata,
		CreatedAt:         entity.CreatedAt(),
		UpdatedAt:         entity.UpdatedAt(),
	}
	if amount := entity.Amount(); amount != nil {
		cents := amount.AmountInCents()
		currency := amount.Currency()
		model.Amount = &cents
		model.Currency = &currency
	}
	return model, nil
}

func (m *PaymentMapperImpl) ToEntities(modelList []*models.PaymentModel) ([]*payment.Payment, error) {
	return mapper.MapSliceWithError(modelList, m.ToEntity)
}
