package sandbox

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hotspotpay/captive-portal/internal/domain/model"
	"github.com/hotspotpay/captive-portal/internal/domain/provider"
)

// MockTransactionRepository mocks the transaction store
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx *model.Transaction) error {
	return m.Called(ctx, tx).Error(0)
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id string) (*model.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) GetByProviderRef(ctx context.Context, ref string) (*model.Transaction, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) SetProviderRef(ctx context.Context, id, ref string) error {
	return m.Called(ctx, id, ref).Error(0)
}

func (m *MockTransactionRepository) Resolve(ctx context.Context, id, status string, receipt, description *string) error {
	return m.Called(ctx, id, status, receipt, description).Error(0)
}

func push() *provider.PushRequest {
	return &provider.PushRequest{
		TransactionID: "tx-1",
		Phone:         "254712345678",
		Amount:        decimal.NewFromInt(20),
		Reference:     "1 Hour",
	}
}

func TestSandboxCompletesTransaction(t *testing.T) {
	repo := new(MockTransactionRepository)
	resolved := make(chan struct{})
	repo.On("Resolve", mock.Anything, "tx-1", model.StatusCompleted, mock.Anything, (*string)(nil)).
		Run(func(args mock.Arguments) {
			receipt := args.Get(3).(*string)
			require.NotNil(t, receipt)
			assert.NotEmpty(t, *receipt)
			close(resolved)
		}).
		Return(nil)

	g := New(repo, OutcomeCompleted, 0, zap.NewNop())
	resp, err := g.RequestPush(context.Background(), push())
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ProviderRef)

	select {
	case <-resolved:
	case <-time.After(5 * time.Second):
		t.Fatal("sandbox never resolved the transaction")
	}
	repo.AssertExpectations(t)
}

func TestSandboxFailsTransaction(t *testing.T) {
	repo := new(MockTransactionRepository)
	resolved := make(chan struct{})
	repo.On("Resolve", mock.Anything, "tx-1", model.StatusFailed, (*string)(nil), mock.Anything).
		Run(func(args mock.Arguments) {
			desc := args.Get(4).(*string)
			require.NotNil(t, desc)
			assert.Contains(t, *desc, "cancelled")
			close(resolved)
		}).
		Return(nil)

	g := New(repo, OutcomeFailed, 0, zap.NewNop())
	_, err := g.RequestPush(context.Background(), push())
	require.NoError(t, err)

	select {
	case <-resolved:
	case <-time.After(5 * time.Second):
		t.Fatal("sandbox never resolved the transaction")
	}
	repo.AssertExpectations(t)
}
