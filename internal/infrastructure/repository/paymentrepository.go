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

type PaymentRepository struct {
	db     *gorm.DB
	mapper mappers.PaymentMapper
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db, mapper: mappers.NewPaymentMapper()}
}

// Upsert keys on the gateway payment reference. An existing row takes the new gateway status
// and merges the event metadata; amount, period and attempt keep their first-seen values.
func (r *PaymentRepository) Upsert(ctx context.Context, p *payment.Payment) (bool, error) {
	existing, err := r.findModelByRef(ctx, p.GatewayPaymentRef())
	if err != nil {
		return false, err
	}
	if existing == nil {
		model, err := r.mapper.ToModel(p)
		if err != nil {
			return false, err
		}
		err = db.GetTxFromContext(ctx, r.db).Create(model).Error
		if err == nil {
			p.SetID(model.ID)
			return true, nil
		}
		if !apperrors.IsDuplicateError(err) {
			return false, fmt.Errorf("failed to create payment: %w", err)
		}
		// Lost an insert race on the same reference; fall through to the update path.
		existing, err = r.findModelByRef(ctx, p.GatewayPaymentRef())
		if err != nil {
			return false, err
		}
		if existing == nil {
			return false, fmt.Errorf("payment %s vanished after duplicate insert", p.GatewayPaymentRef())
		}
	}

	if existing.SubscriptionID != p.SubscriptionID() {
		return false, fmt.Errorf("%w: %s is held by subscription %d, not %d",
			payment.ErrPaymentRefConflict, p.GatewayPaymentRef(), existing.SubscriptionID, p.SubscriptionID())
	}

	p.SetID(existing.ID)
	if existing.GatewayStatus == p.GatewayStatus() {
		return false, nil
	}

	metadata, err := mappers.MergeMetadata(existing.Metadata, p.Metadata())
	if err != nil {
		return false, fmt.Errorf("failed to merge payment metadata: %w", err)
	}

	if err := db.GetTxFromContext(ctx, r.db).
		Model(&models.PaymentModel{}).
		Where("id = ?", existing.ID).
		Updates(map[string]interface{}{
			"gateway_status": p.GatewayStatus(),
			"metadata":       metadata,
			"updated_at":     p.UpdatedAt(),
		}).Error; err != nil {
		return false, fmt.Errorf("failed to update payment status: %w", err)
	}
	return false, nil
}

func (r *PaymentRepository) findModelByRef(ctx context.Context, ref string) (*models.PaymentModel, error) {
	var model models.PaymentModel
	if err := db.GetTxFromContext(ctx, r.db).Where("gateway_payment_ref = ?", ref).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get payment by gateway ref: %w", err)
	}
	return &model, nil
}

func (r *PaymentRepository) GetByGatewayRef(ctx context.Context, ref string) (*payment.Payment, error) {
	model, err := r.findModelByRef(ctx, ref)
	if err != nil || model == nil {
		return nil, err
	}
	return r.mapper.ToEntity(model)
}

func (r *PaymentRepository) ListBySubscription(ctx context.Context, subscriptionID uint) ([]*payment.Payment, error) {
	var paymentModels []*models.PaymentModel
	if err := db.GetTxFromContext(ctx, r.db).
		Where("subscription_id = ?", subscriptionID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&paymentModels).Error; err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return r.mapper.ToEntities(paymentModels)
}

// CountForPeriod counts payments of a subscription for one billing period. A nil period
// matches payments that carried no period.
func (r *PaymentRepository) CountForPeriod(ctx context.Context, subscriptionID uint, periodStart *time.Time) (int64, error) {
	query := db.GetTxFromContext(ctx, r.db).
		Model(&models.PaymentModel{}).
		Where("subscription_id = ?", subscriptionID)
	if periodStart != nil {
		query = query.Where("period_start = ?", *periodStart)
	} else {
		query = query.Where("period_start IS NULL")
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count payments: %w", err)
	}
	return count, nil
}
