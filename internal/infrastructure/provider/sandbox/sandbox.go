// Package sandbox is a simulated mobile-money gateway for development and
// tests: it accepts every push and resolves the transaction after a
// configured delay with a configured outcome, the way the real gateway
// does through its callback.
package sandbox

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hotspotpay/captive-portal/internal/domain/model"
	"github.com/hotspotpay/captive-portal/internal/domain/provider"
	"github.com/hotspotpay/captive-portal/internal/domain/repository"
)

const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
)

// Gateway simulates STK pushes against the local transaction store.
type Gateway struct {
	transactions repository.TransactionRepository
	outcome      string
	delay        time.Duration
	logger       *zap.Logger
}

// New creates a sandbox gateway. An empty outcome defaults to completed.
func New(transactions repository.TransactionRepository, outcome string, delay time.Duration, logger *zap.Logger) *Gateway {
	if outcome == "" {
		outcome = OutcomeCompleted
	}
	return &Gateway{
		transactions: transactions,
		outcome:      outcome,
		delay:        delay,
		logger:       logger,
	}
}

// Name returns the gateway name
func (g *Gateway) Name() string {
	return "sandbox"
}

// RequestPush accepts the push and schedules its resolution.
func (g *Gateway) RequestPush(ctx context.Context, req *provider.PushRequest) (*provider.PushResponse, error) {
	ref := "SBX_" + uuid.NewString()

	g.logger.Info("Sandbox push accepted",
		zap.String("transaction_id", req.TransactionID),
		zap.String("phone", req.Phone),
		zap.String("outcome", g.outcome),
		zap.Duration("delay", g.delay))

	transactionID := req.TransactionID
	time.AfterFunc(g.delay, func() {
		g.resolve(transactionID)
	})

	return &provider.PushResponse{
		ProviderRef: ref,
		Message:     "Success. Request accepted for processing",
	}, nil
}

func (g *Gateway) resolve(transactionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var err error
	if g.outcome == OutcomeFailed {
		desc := "Request cancelled by user"
		err = g.transactions.Resolve(ctx, transactionID, model.StatusFailed, nil, &desc)
	} else {
		receipt := newReceipt()
		err = g.transactions.Resolve(ctx, transactionID, model.StatusCompleted, &receipt, nil)
	}

	if err != nil {
		g.logger.Error("Sandbox failed to resolve transaction",
			zap.String("transaction_id", transactionID),
			zap.Error(err))
		return
	}
	g.logger.Info("Sandbox resolved transaction",
		zap.String("transaction_id", transactionID),
		zap.String("outcome", g.outcome))
}

// newReceipt fabricates an M-Pesa-looking receipt number.
func newReceipt() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "SB" + raw[:8]
}
