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

const defaultListLimit = 100

type SubscriptionRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.SubscriptionMapper
	logger logger.Interface
}

func NewSubscriptionRepository(
	db *gorm.DB,
	logger logger.Interface,
) subscription.SubscriptionRepository {
	return &SubscriptionRepositoryImpl{
		db:     db,
		mapper: mappers.NewSubscriptionMapper(),
		logger: logger,
	}
}

func (r *SubscriptionRepositoryImpl) Create(ctx context.Context, subscriptionEntity *subscription.Subscription) error {
	model, err := r.mapper.ToModel(subscriptionEntity)
	if err != nil {
		r.logger.Errorw("failed to map subscription entity to model", "error", err)
		return fmt.Errorf("failed to map subscription entity: %w", err)
	}

	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create subscription in database", "tutor_id", model.TutorID, "error", err)
		return fmt.Errorf("failed to create subscription: %w", err)
	}

	if err := subscriptionEntity.SetID(model.ID); err != nil {
		r.logger.Errorw("failed to set subscription ID", "error", err)
		return fmt.Errorf("failed to set subscription ID: %w", err)
	}

	r.logger.Infow("subscription created successfully", "id", model.ID, "tutor_id", model.TutorID, "plan_id", model.PlanID)
	return nil
}

func (r *SubscriptionRepositoryImpl) GetByID(ctx context.Context, id uint) (*subscription.Subscription, error) {
	return r.first(ctx, "id", db.GetTxFromContext(ctx, r.db).Where("id = ?", id))
}

func (r *SubscriptionRepositoryImpl) GetBySID(ctx context.Context, sid string) (*subscription.Subscription, error) {
	return r.first(ctx, "sid", db.GetTxFromContext(ctx, r.db).Where("sid = ?", sid))
}

func (r *SubscriptionRepositoryImpl) GetByGatewayRef(ctx context.Context, ref string) (*subscription.Subscription, error) {
	return r.first(ctx, "gateway_ref", db.GetTxFromContext(ctx, r.db).Where("gateway_subscription_ref = ?", ref))
}

// GetLatestByTutorID returns the tutor's most recently created subscription.
func (r *SubscriptionRepositoryImpl) GetLatestByTutorID(ctx context.Context, tutorID string) (*subscription.Subscription, error) {
	query := db.GetTxFromContext(ctx, r.db).
		Where("tutor_id = ?", tutorID).
		Order("created_at DESC").
		Order("id DESC")
	return r.first(ctx, "tutor_id", query)
}

func (r *SubscriptionRepositoryImpl) first(ctx context.Context, lookup string, query *gorm.DB) (*subscription.Subscription, error) {
	var model models.SubscriptionModel
	if err := query.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get subscription", "lookup", lookup, "error", err)
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	entity, err := r.mapper.ToEntity(&model)
	if err != nil {
		r.logger.Errorw("failed to map subscription model to entity", "id", model.ID, "error", err)
		return nil, fmt.Errorf("failed to map subscription: %w", err)
	}
	return entity, nil
}

// Update writes the snapshot only if the stored version still equals the version the
// entity was loaded with.
func (r *SubscriptionRepositoryImpl) Update(ctx context.Context, subscriptionEntity *subscription.Subscription) error {
	if !subscriptionEntity.IsDirty() {
		return nil
	}

	model, err := r.mapper.ToModel(subscriptionEntity)
	if err != nil {
		r.logger.Errorw("failed to map subscription entity to model", "id", subscriptionEntity.ID(), "error", err)
		return fmt.Errorf("failed to map subscription entity: %w", err)
	}

	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.SubscriptionModel{}).
		Where("id = ? AND version = ?", model.ID, subscriptionEntity.ExpectedVersion()).
		Updates(map[string]interface{}{
			"status":                   model.Status,
			"gateway_subscription_ref": model.GatewaySubscriptionRef,
			"gateway_status":           model.GatewayStatus,
			"grace_days_used":          model.GraceDaysUsed,
			"grace_period_start":       model.GracePeriodStart,
			"delinquent_since":         model.DelinquentSince,
			"cancelled_at":             model.CancelledAt,
			"cancel_reason":            model.CancelReason,
			"cancelled_by":             model.CancelledBy,
			"version":                  model.Version,
			"updated_at":               model.UpdatedAt,
		})

	if result.Error != nil {
		r.logger.Errorw("failed to update subscription", "id", model.ID, "error", result.Error)
		return fmt.Errorf("failed to update subscription: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		r.logger.Warnw("subscription version conflict",
			"id", model.ID,
			"expected_version", subscriptionEntity.ExpectedVersion(),
		)
		return subscription.ErrConcurrentModification
	}

	subscriptionEntity.MarkPersisted()
	r.logger.Debugw("subscription updated", "id", model.ID, "status", model.Status, "version", model.Version)
	return nil
}

// List returns subscriptions ordered by ID, starting after filter.AfterID.
func (r *SubscriptionRepositoryImpl) List(ctx context.Context, filter subscription.SubscriptionFilter) ([]*subscription.Subscription, error) {
	query := db.GetTxFromContext(ctx, r.db).Model(&models.SubscriptionModel{})

	if filter.Status != nil {
		query = query.Where("status = ?", filter.Status.String())
	}
	if filter.DelinquentBefore != nil {
		query = query.Where("delinquent_since IS NOT NULL AND delinquent_since < ?", *filter.DelinquentBefore)
	}
	if filter.AfterID > 0 {
		query = query.Where("id > ?", filter.AfterID)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	var subscriptionModels []*models.SubscriptionModel
	if err := query.Order("id ASC").Limit(limit).Find(&subscriptionModels).Error; err != nil {
		r.logger.Errorw("failed to list subscriptions", "error", err)
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	entities, err := r.mapper.ToEntities(subscriptionModels)
	if err != nil {
		r.logger.Errorw("failed to map subscription models to entities", "error", err)
		return nil, fmt.Errorf("failed to map subscriptions: %w", err)
	}
	return entities, nil
}
