package database

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hotspotpay/captive-portal/internal/domain/model"
)

// Migrate runs database migrations
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	logger.Info("Running database migrations...")

	err := db.AutoMigrate(
		&model.Plan{},
		&model.Transaction{},
		&model.WalledGarden{},
	)
	if err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return err
	}

	logger.Info("Database migrations completed successfully")
	return nil
}

// Seed inserts the walled-garden domains every portal must let through
// before payment; without them the payment prompt itself cannot load.
// It is a no-op when entries already exist.
func Seed(ctx context.Context, repos *Repositories, logger *zap.Logger) error {
	existing, err := repos.WalledGarden.GetAll(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	defaults := []model.WalledGarden{
		{Domain: "safaricom.co.ke", Description: "M-Pesa payment prompts"},
		{Domain: "*.safaricom.co.ke", Description: "M-Pesa payment prompts"},
	}
	for _, entry := range defaults {
		entry.ID = uuid.NewString()
		if err := repos.WalledGarden.Create(ctx, &entry); err != nil {
			return err
		}
	}
	logger.Info("Seeded default walled garden entries", zap.Int("count", len(defaults)))
	return nil
}

// SeedDevPlans inserts a set of hotspot plans for local development.
// It is a no-op when any plan already exists.
func SeedDevPlans(ctx context.Context, repos *Repositories, logger *zap.Logger) error {
	existing, err := repos.Plan.GetAll(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	plans := []*model.Plan{
		{
			ID:              uuid.NewString(),
			Name:            "1 Hour",
			Description:     "Unlimited browsing for one hour",
			Type:            model.PlanTypeHotspot,
			Price:           10,
			ValidityMinutes: 60,
			SortOrder:       1,
			IsActive:        true,
		},
		{
			ID:              uuid.NewString(),
			Name:            "Daily",
			Description:     "Unlimited browsing for 24 hours",
			Type:            model.PlanTypeHotspot,
			Price:           50,
			ValidityMinutes: 24 * 60,
			SortOrder:       2,
			IsActive:        true,
		},
		{
			ID:              uuid.NewString(),
			Name:            "Weekly",
			Description:     "Unlimited browsing for 7 days",
			Type:            model.PlanTypeHotspot,
			Price:           250,
			ValidityMinutes: 7 * 24 * 60,
			SortOrder:       3,
			IsActive:        true,
		},
	}
	for _, p := range plans {
		if err := repos.Plan.Create(ctx, p); err != nil {
			return err
		}
	}
	logger.Info("Seeded development plans", zap.Int("count", len(plans)))
	return nil
}
