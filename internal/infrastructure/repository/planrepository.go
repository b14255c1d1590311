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

type PlanRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.PlanMapper
	logger logger.Interface
}

func NewPlanRepository(db *gorm.DB, logger logger.Interface) subscription.PlanRepository {
	return &PlanRepositoryImpl{
		db:     db,
		mapper: mappers.NewPlanMapper(),
		logger: logger,
	}
}

func (r *PlanRepositoryImpl) Create(ctx context.Context, plan *subscription.Plan) error {
	model := r.mapper.ToModel(plan)
	if err := db.GetTxFromContext(ctx, r.db).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create plan", "name", model.Name, "error", err)
		return fmt.Errorf("failed to create plan: %w", err)
	}
	if err := plan.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set plan ID: %w", err)
	}
	r.logger.Infow("plan created successfully", "id", model.ID, "sid", model.SID)
	return nil
}

func (r *PlanRepositoryImpl) GetByID(ctx context.Context, id uint) (*subscription.Plan, error) {
	var model models.PlanModel
	if err := db.GetTxFromContext(ctx, r.db).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Errorw("failed to get plan by ID", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	return r.mapper.ToEntity(&model)
}

func (r *PlanRepositoryImpl) Update(ctx context.Context, plan *subscription.Plan) error {
	model := r.mapper.ToModel(plan)
	result := db.GetTxFromContext(ctx, r.db).
		Model(&models.PlanModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]interface{}{
			"name":       model.Name,
			"active":     model.Active,
			"updated_at": model.UpdatedAt,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update plan", "id", model.ID, "error", result.Error)
		return fmt.Errorf("failed to update plan: %w", result.Error)
	}
	return nil
}

func (r *PlanRepositoryImpl) ListActive(ctx context.Context) ([]*subscription.Plan, error) {
	var planModels []*models.PlanModel
	if err := db.GetTxFromContext(ctx, r.db).
		Where("active = ?", true).
		Order("id ASC").
		Find(&planModels).Error; err != nil {
		r.logger.Errorw("failed to list active plans", "error", err)
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return r.mapper.ToEntities(planModels)
}
