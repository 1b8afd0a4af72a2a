package repository

import (
	"context"

	"github.com/hotspotpay/captive-portal/internal/domain/model"
)

// PlanRepository handles plan storage
type PlanRepository interface {
	GetAll(ctx context.Context) ([]*model.Plan, error)
	GetByID(ctx context.Context, id string) (*model.Plan, error)
	Create(ctx context.Context, plan *model.Plan) error
	Deactivate(ctx context.Context, id string) error
}
