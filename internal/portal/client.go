// Package portal is the HTTP client for the captive-portal REST surface.
package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/hotspotpay/captive-portal/internal/domain/errors"
	"github.com/hotspotpay/captive-portal/internal/domain/model"
)

// Client talks to the portal backend over its public REST contract.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewClient creates a portal API client
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type initiateRequest struct {
	PlanID string `json:"planId"`
	Phone  string `json:"phone"`
}

type errorResponse struct {
	Message string `json:"message"`
}

// ListPlans fetches all plans and keeps only the active ones for display.
func (c *Client) ListPlans(ctx context.Context) ([]*model.Plan, error) {
	var all []*model.Plan
	if err := c.getJSON(ctx, "/api/plans", &all); err != nil {
		return nil, err
	}

	active := make([]*model.Plan, 0, len(all))
	for _, p := range all {
		if p.IsActive {
			active = append(active, p)
		}
	}
	return active, nil
}

// ListWalledGardens fetches the domains reachable without payment.
func (c *Client) ListWalledGardens(ctx context.Context) ([]*model.WalledGarden, error) {
	var gardens []*model.WalledGarden
	if err := c.getJSON(ctx, "/api/walled-gardens", &gardens); err != nil {
		return nil, err
	}
	return gardens, nil
}

// InitiatePayment creates a new payment transaction for the plan. The
// phone must already be canonical. A non-2xx response is surfaced as a
// PaymentInitiationError carrying the server's message.
func (c *Client) InitiatePayment(ctx context.Context, planID, phone string) (*model.Transaction, error) {
	jsonBody, err := json.Marshal(initiateRequest{PlanID: planID, Phone: phone})
	if err != nil {
		return nil, fmt.Errorf("failed to prepare initiate request: %w", err)
	}

	url := c.baseURL + "/api/transactions/initiate"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create initiate request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		c.logger.Error("Initiate request failed", zap.String("plan_id", planID), zap.Error(err))
		return nil, errors.NewPaymentInitiationError(0, err.Error())
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewPaymentInitiationError(resp.StatusCode, "failed to read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp errorResponse
		json.Unmarshal(respBody, &errResp)

		c.logger.Warn("Initiate rejected",
			zap.String("plan_id", planID),
			zap.Int("status_code", resp.StatusCode),
			zap.String("message", errResp.Message))

		return nil, errors.NewPaymentInitiationError(resp.StatusCode, errResp.Message)
	}

	var tx model.Transaction
	if err := json.Unmarshal(respBody, &tx); err != nil {
		return nil, errors.NewPaymentInitiationError(resp.StatusCode, "failed to parse transaction")
	}

	c.logger.Info("Payment initiated",
		zap.String("transaction_id", tx.ID),
		zap.String("plan_id", planID),
		zap.String("status", tx.Status))

	return &tx, nil
}

// GetTransaction fetches the current snapshot of a transaction.
func (c *Client) GetTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	var tx model.Transaction
	if err := c.getJSON(ctx, "/api/transactions/"+id, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response from %s: %w", path, err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		json.Unmarshal(respBody, &errResp)
		if errResp.Message != "" {
			return fmt.Errorf("%s returned status %d: %s", path, resp.StatusCode, errResp.Message)
		}
		return fmt.Errorf("%s returned status %d", path, resp.StatusCode)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response from %s: %w", path, err)
	}
	return nil
}
