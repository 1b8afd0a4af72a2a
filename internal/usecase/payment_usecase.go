package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	domainErrors "github.com/hotspotpay/captive-portal/internal/domain/errors"
	"github.com/hotspotpay/captive-portal/internal/domain/model"
	"github.com/hotspotpay/captive-portal/internal/domain/provider"
	"github.com/hotspotpay/captive-portal/internal/domain/repository"
	"github.com/hotspotpay/captive-portal/internal/phone"
)

// PaymentUsecase owns the backend side of a payment attempt: creating the
// PENDING transaction, firing the STK push and resolving the transaction
// from the gateway's callback.
type PaymentUsecase struct {
	planRepo   repository.PlanRepository
	txRepo     repository.TransactionRepository
	gateway    provider.Gateway
	normalizer *phone.Normalizer
	logger     *zap.Logger
}

// NewPaymentUsecase creates a new payment usecase
func NewPaymentUsecase(
	planRepo repository.PlanRepository,
	txRepo repository.TransactionRepository,
	gateway provider.Gateway,
	normalizer *phone.Normalizer,
	logger *zap.Logger,
) *PaymentUsecase {
	return &PaymentUsecase{
		planRepo:   planRepo,
		txRepo:     txRepo,
		gateway:    gateway,
		normalizer: normalizer,
		logger:     logger,
	}
}

// Initiate creates a PENDING transaction for the plan and asks the gateway
// to prompt the subscriber. The phone is re-canonicalized server-side so a
// misbehaving client cannot submit a malformed MSISDN.
func (u *PaymentUsecase) Initiate(ctx context.Context, planID, rawPhone string) (*model.Transaction, error) {
	if planID == "" {
		return nil, errors.New("plan ID is required")
	}

	msisdn, err := u.normalizer.Normalize(rawPhone)
	if err != nil {
		return nil, err
	}

	plan, err := u.planRepo.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan == nil || !plan.IsActive {
		return nil, domainErrors.NewPlanNotFoundError(planID)
	}

	tx := &model.Transaction{
		ID:     uuid.NewString(),
		PlanID: plan.ID,
		Phone:  msisdn,
		Amount: plan.Price,
		Status: model.StatusPending,
	}
	if err := u.txRepo.Create(ctx, tx); err != nil {
		return nil, err
	}

	pushResp, err := u.gateway.RequestPush(ctx, &provider.PushRequest{
		TransactionID: tx.ID,
		Phone:         msisdn,
		Amount:        decimal.NewFromInt(int64(plan.Price)),
		Reference:     plan.Name,
		Description:   fmt.Sprintf("WiFi access: %s", plan.Name),
	})
	if err != nil {
		u.logger.Error("STK push failed",
			zap.String("transaction_id", tx.ID),
			zap.String("gateway", u.gateway.Name()),
			zap.Error(err))

		desc := err.Error()
		if resolveErr := u.txRepo.Resolve(ctx, tx.ID, model.StatusFailed, nil, &desc); resolveErr != nil {
			u.logger.Error("Failed to mark transaction failed after push error",
				zap.String("transaction_id", tx.ID),
				zap.Error(resolveErr))
		}
		return nil, fmt.Errorf("payment push failed: %w", err)
	}

	if err := u.txRepo.SetProviderRef(ctx, tx.ID, pushResp.ProviderRef); err != nil {
		return nil, err
	}

	u.logger.Info("Payment initiated",
		zap.String("transaction_id", tx.ID),
		zap.String("plan_id", plan.ID),
		zap.Int("amount", plan.Price),
		zap.String("gateway", u.gateway.Name()),
		zap.String("provider_ref", pushResp.ProviderRef))

	return tx, nil
}

// Get retrieves the current snapshot of a transaction
func (u *PaymentUsecase) Get(ctx context.Context, id string) (*model.Transaction, error) {
	if id == "" {
		return nil, errors.New("transaction ID is required")
	}

	tx, err := u.txRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, domainErrors.NewTransactionNotFoundError(id)
	}
	return tx, nil
}

// ApplyCallback resolves a transaction from the gateway's asynchronous
// callback. Unknown provider refs and already-terminal transactions are
// ignored: gateways retry callbacks.
func (u *PaymentUsecase) ApplyCallback(ctx context.Context, res *provider.CallbackResult) error {
	tx, err := u.txRepo.GetByProviderRef(ctx, res.ProviderRef)
	if err != nil {
		return err
	}
	if tx == nil {
		u.logger.Warn("Callback for unknown provider ref",
			zap.String("provider_ref", res.ProviderRef))
		return nil
	}
	if tx.IsTerminal() {
		u.logger.Debug("Callback for already resolved transaction",
			zap.String("transaction_id", tx.ID),
			zap.String("status", tx.Status))
		return nil
	}

	if res.Success {
		receipt := res.Receipt
		u.logger.Info("Payment completed",
			zap.String("transaction_id", tx.ID),
			zap.String("receipt", receipt))
		return u.txRepo.Resolve(ctx, tx.ID, model.StatusCompleted, &receipt, nil)
	}

	desc := res.Description
	u.logger.Info("Payment failed",
		zap.String("transaction_id", tx.ID),
		zap.String("description", desc))
	return u.txRepo.Resolve(ctx, tx.ID, model.StatusFailed, nil, &desc)
}
