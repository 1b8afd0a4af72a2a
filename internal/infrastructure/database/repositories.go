package database

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hotspotpay/captive-portal/internal/adapter/repository"
	domainRepo "github.com/hotspotpay/captive-portal/internal/domain/repository"
)

// Repositories holds all repository instances
type Repositories struct {
	Plan         domainRepo.PlanRepository
	Transaction  domainRepo.TransactionRepository
	WalledGarden domainRepo.WalledGardenRepository
}

// NewRepositories creates new repository instances with database connection
func NewRepositories(db *gorm.DB, logger *zap.Logger) *Repositories {
	return &Repositories{
		Plan:         repository.NewPlanRepository(db, logger),
		Transaction:  repository.NewTransactionRepository(db, logger),
		WalledGarden: repository.NewWalledGardenRepository(db, logger),
	}
}
