package repository

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hotspotpay/captive-portal/internal/domain/model"
	"github.com/hotspotpay/captive-portal/internal/domain/repository"
)

type planRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewPlanRepository creates a new plan repository
func NewPlanRepository(db *gorm.DB, logger *zap.Logger) repository.PlanRepository {
	return &planRepository{
		db:     db,
		logger: logger,
	}
}

// GetAll retrieves all plans, active first, in display order
func (r *planRepository) GetAll(ctx context.Context) ([]*model.Plan, error) {
	var plans []*model.Plan

	err := r.db.WithContext(ctx).
		Order("sort_order ASC, price ASC").
		Find(&plans).Error

	if err != nil {
		r.logger.Error("Failed to get plans", zap.Error(err))
		return nil, fmt.Errorf("failed to get plans: %w", err)
	}

	return plans, nil
}

// GetByID retrieves a plan by ID, returning (nil, nil) when absent
func (r *planRepository) GetByID(ctx context.Context, id string) (*model.Plan, error) {
	var plan model.Plan

	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&plan).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get plan",
			zap.String("plan_id", id),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}

	return &plan, nil
}

// Create creates a new plan
func (r *planRepository) Create(ctx context.Context, plan *model.Plan) error {
	err := r.db.WithContext(ctx).Create(plan).Error
	if err != nil {
		r.logger.Error("Failed to create plan",
			zap.String("plan_id", plan.ID),
			zap.Error(err))
		return fmt.Errorf("failed to create plan: %w", err)
	}

	return nil
}

// Deactivate soft deletes a plan so it stops appearing on the portal
func (r *planRepository) Deactivate(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).
		Model(&model.Plan{}).
		Where("id = ?", id).
		Update("is_active", false).Error

	if err != nil {
		r.logger.Error("Failed to deactivate plan",
			zap.String("plan_id", id),
			zap.Error(err))
		return fmt.Errorf("failed to deactivate plan: %w", err)
	}

	return nil
}
