package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hotspotpay/captive-portal/internal/domain/model"
	"github.com/hotspotpay/captive-portal/internal/domain/repository"
)

type transactionRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *gorm.DB, logger *zap.Logger) repository.TransactionRepository {
	return &transactionRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new payment transaction
func (r *transactionRepository) Create(ctx context.Context, tx *model.Transaction) error {
	err := r.db.WithContext(ctx).Create(tx).Error
	if err != nil {
		r.logger.Error("Failed to create transaction",
			zap.String("transaction_id", tx.ID),
			zap.Error(err))
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a transaction by ID, returning (nil, nil) when absent
func (r *transactionRepository) GetByID(ctx context.Context, id string) (*model.Transaction, error) {
	var tx model.Transaction

	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&tx).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get transaction",
			zap.String("transaction_id", id),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return &tx, nil
}

// GetByProviderRef retrieves a transaction by the gateway's push handle
func (r *transactionRepository) GetByProviderRef(ctx context.Context, ref string) (*model.Transaction, error) {
	var tx model.Transaction

	err := r.db.WithContext(ctx).
		Where("provider_ref = ?", ref).
		First(&tx).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get transaction by provider ref",
			zap.String("provider_ref", ref),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return &tx, nil
}

// SetProviderRef records the gateway's handle for a pending push
func (r *transactionRepository) SetProviderRef(ctx context.Context, id, ref string) error {
	err := r.db.WithContext(ctx).
		Model(&model.Transaction{}).
		Where("id = ?", id).
		Update("provider_ref", ref).Error

	if err != nil {
		r.logger.Error("Failed to set provider ref",
			zap.String("transaction_id", id),
			zap.Error(err))
		return fmt.Errorf("failed to set provider ref: %w", err)
	}

	return nil
}

// Resolve moves a transaction into a terminal status
func (r *transactionRepository) Resolve(ctx context.Context, id, status string, receipt, description *string) error {
	updates := map[string]interface{}{
		"status": status,
	}
	if receipt != nil {
		updates["receipt"] = *receipt
	}
	if description != nil {
		updates["description"] = *description
	}
	if status == model.StatusCompleted {
		updates["paid_at"] = time.Now()
	}

	err := r.db.WithContext(ctx).
		Model(&model.Transaction{}).
		Where("id = ?", id).
		Updates(updates).Error

	if err != nil {
		r.logger.Error("Failed to resolve transaction",
			zap.String("transaction_id", id),
			zap.String("status", status),
			zap.Error(err))
		return fmt.Errorf("failed to resolve transaction: %w", err)
	}

	return nil
}
