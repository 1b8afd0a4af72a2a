package repository

import (
	"context"

	"github.com/hotspotpay/captive-portal/internal/domain/model"
)

// WalledGardenRepository handles walled-garden domain storage
type WalledGardenRepository interface {
	GetAll(ctx context.Context) ([]*model.WalledGarden, error)
	Create(ctx context.Context, garden *model.WalledGarden) error
}
