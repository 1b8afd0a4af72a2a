package provider

import (
	"context"

	"github.com/shopspring/decimal"
)

// Gateway defines the interface for mobile-money gateways (Daraja, sandbox)
type Gateway interface {
	// RequestPush asks the gateway to send an STK push prompt to the
	// subscriber's handset. The push is asynchronous: the transaction is
	// resolved later through a callback, never by this call.
	RequestPush(ctx context.Context, req *PushRequest) (*PushResponse, error)

	// Name returns the gateway name
	Name() string
}

// PushRequest represents a gateway-agnostic STK push request
type PushRequest struct {
	TransactionID string          `json:"transaction_id"`
	Phone         string          `json:"phone"` // canonical MSISDN, no leading +
	Amount        decimal.Decimal `json:"amount"`
	Reference     string          `json:"reference"`
	Description   string          `json:"description"`
}

// PushResponse represents the synchronous acceptance of a push request
type PushResponse struct {
	ProviderRef string `json:"provider_ref"` // gateway's handle for the push
	Message     string `json:"message"`      // human-readable acceptance message
}

// CallbackResult is the gateway's asynchronous resolution of a push
type CallbackResult struct {
	ProviderRef string          `json:"provider_ref"`
	Success     bool            `json:"success"`
	Receipt     string          `json:"receipt,omitempty"`
	Description string          `json:"description,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Phone       string          `json:"phone,omitempty"`
}

// Error types for gateway operations
type GatewayError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *GatewayError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}
