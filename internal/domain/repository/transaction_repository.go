package repository

import (
	"context"

	"github.com/hotspotpay/captive-portal/internal/domain/model"
)

// TransactionRepository handles payment transaction storage.
// GetByID and GetByProviderRef return (nil, nil) when no row exists.
type TransactionRepository interface {
	Create(ctx context.Context, tx *model.Transaction) error
	GetByID(ctx context.Context, id string) (*model.Transaction, error)
	GetByProviderRef(ctx context.Context, ref string) (*model.Transaction, error)
	SetProviderRef(ctx context.Context, id, ref string) error
	Resolve(ctx context.Context, id, status string, receipt, description *string) error
}
