package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hotspotpay/captive-portal/internal/domain/model"
	"github.com/hotspotpay/captive-portal/internal/domain/repository"
)

type walledGardenRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewWalledGardenRepository creates a new walled-garden repository
func NewWalledGardenRepository(db *gorm.DB, logger *zap.Logger) repository.WalledGardenRepository {
	return &walledGardenRepository{
		db:     db,
		logger: logger,
	}
}

// GetAll retrieves all walled-garden domains
func (r *walledGardenRepository) GetAll(ctx context.Context) ([]*model.WalledGarden, error) {
	var gardens []*model.WalledGarden

	err := r.db.WithContext(ctx).
		Order("domain ASC").
		Find(&gardens).Error

	if err != nil {
		r.logger.Error("Failed to get walled gardens", zap.Error(err))
		return nil, fmt.Errorf("failed to get walled gardens: %w", err)
	}

	return gardens, nil
}

// Create adds a walled-garden domain
func (r *walledGardenRepository) Create(ctx context.Context, garden *model.WalledGarden) error {
	err := r.db.WithContext(ctx).Create(garden).Error
	if err != nil {
		r.logger.Error("Failed to create walled garden",
			zap.String("domain", garden.Domain),
			zap.Error(err))
		return fmt.Errorf("failed to create walled garden: %w", err)
	}

	return nil
}
