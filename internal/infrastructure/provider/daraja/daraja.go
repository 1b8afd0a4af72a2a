// Package daraja implements the Safaricom Daraja M-Pesa gateway.
package daraja

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hotspotpay/captive-portal/internal/config"
	"github.com/hotspotpay/captive-portal/internal/domain/provider"
)

const (
	defaultBaseURL = "https://sandbox.safaricom.co.ke"
	timestampForm  = "20060102150405"

	// token expiry slack so a push never races an expiring token
	tokenSlack = 30 * time.Second
)

// Client is an STK-push client for the Daraja API.
type Client struct {
	baseURL        string
	consumerKey    string
	consumerSecret string
	shortCode      string
	passkey        string
	callbackURL    string

	client *http.Client
	logger *zap.Logger

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewClient creates a Daraja gateway client
func NewClient(cfg *config.MpesaConfig, logger *zap.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:        baseURL,
		consumerKey:    cfg.ConsumerKey,
		consumerSecret: cfg.ConsumerSecret,
		shortCode:      cfg.ShortCode,
		passkey:        cfg.Passkey,
		callbackURL:    cfg.CallbackURL,
		client:         &http.Client{Timeout: 30 * time.Second},
		logger:         logger,
	}
}

// Name returns the gateway name
func (c *Client) Name() string {
	return "daraja"
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

type stkPushRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            int64  `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

type stkPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

type darajaErrorResponse struct {
	RequestID    string `json:"requestId"`
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

// RequestPush sends an STK push prompt to the subscriber's handset.
// POST /mpesa/stkpush/v1/processrequest
func (c *Client) RequestPush(ctx context.Context, req *provider.PushRequest) (*provider.PushResponse, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	timestamp := time.Now().Format(timestampForm)
	password := base64.StdEncoding.EncodeToString([]byte(c.shortCode + c.passkey + timestamp))

	body := stkPushRequest{
		BusinessShortCode: c.shortCode,
		Password:          password,
		Timestamp:         timestamp,
		TransactionType:   "CustomerPayBillOnline",
		Amount:            req.Amount.IntPart(),
		PartyA:            req.Phone,
		PartyB:            c.shortCode,
		PhoneNumber:       req.Phone,
		CallBackURL:       c.callbackURL,
		AccountReference:  req.Reference,
		TransactionDesc:   req.Description,
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, &provider.GatewayError{
			Code:    "MARSHAL_ERROR",
			Message: "Failed to prepare push request",
			Details: err.Error(),
		}
	}

	url := c.baseURL + "/mpesa/stkpush/v1/processrequest"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, &provider.GatewayError{
			Code:    "REQUEST_ERROR",
			Message: "Failed to create push request",
			Details: err.Error(),
		}
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Content-Type", "application/json")

	c.logger.Info("Requesting STK push",
		zap.String("transaction_id", req.TransactionID),
		zap.String("phone", req.Phone),
		zap.Int64("amount", req.Amount.IntPart()))

	resp, err := c.client.Do(httpReq)
	if err != nil {
		c.logger.Error("STK push request failed", zap.Error(err))
		return nil, &provider.GatewayError{
			Code:    "API_ERROR",
			Message: "Daraja API request failed",
			Details: err.Error(),
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &provider.GatewayError{
			Code:    "RESPONSE_ERROR",
			Message: "Failed to read push response",
			Details: err.Error(),
		}
	}

	if resp.StatusCode != http.StatusOK {
		var errResp darajaErrorResponse
		json.Unmarshal(respBody, &errResp)

		c.logger.Error("STK push rejected",
			zap.Int("status_code", resp.StatusCode),
			zap.String("error_code", errResp.ErrorCode),
			zap.String("error_message", errResp.ErrorMessage))

		return nil, &provider.GatewayError{
			Code:    errResp.ErrorCode,
			Message: errResp.ErrorMessage,
			Details: string(respBody),
		}
	}

	var result stkPushResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, &provider.GatewayError{
			Code:    "PARSE_ERROR",
			Message: "Failed to parse push response",
			Details: err.Error(),
		}
	}

	if result.ResponseCode != "0" {
		return nil, &provider.GatewayError{
			Code:    result.ResponseCode,
			Message: result.ResponseDescription,
		}
	}

	c.logger.Info("STK push accepted",
		zap.String("transaction_id", req.TransactionID),
		zap.String("checkout_request_id", result.CheckoutRequestID))

	return &provider.PushResponse{
		ProviderRef: result.CheckoutRequestID,
		Message:     result.CustomerMessage,
	}, nil
}

// accessToken returns a cached OAuth token, refreshing when near expiry.
// GET /oauth/v1/generate?grant_type=client_credentials
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry.Add(-tokenSlack)) {
		return c.token, nil
	}

	url := c.baseURL + "/oauth/v1/generate?grant_type=client_credentials"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &provider.GatewayError{
			Code:    "REQUEST_ERROR",
			Message: "Failed to create token request",
			Details: err.Error(),
		}
	}
	httpReq.SetBasicAuth(c.consumerKey, c.consumerSecret)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", &provider.GatewayError{
			Code:    "AUTH_ERROR",
			Message: "Daraja token request failed",
			Details: err.Error(),
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &provider.GatewayError{
			Code:    "RESPONSE_ERROR",
			Message: "Failed to read token response",
			Details: err.Error(),
		}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &provider.GatewayError{
			Code:    "AUTH_ERROR",
			Message: fmt.Sprintf("Daraja token request returned status %d", resp.StatusCode),
			Details: string(respBody),
		}
	}

	var tok tokenResponse
	if err := json.Unmarshal(respBody, &tok); err != nil {
		return "", &provider.GatewayError{
			Code:    "PARSE_ERROR",
			Message: "Failed to parse token response",
			Details: err.Error(),
		}
	}

	// Daraja reports expiry as a string of seconds, typically "3599".
	expiresIn := time.Hour
	if seconds := tok.ExpiresIn; seconds != "" {
		var n int64
		if _, err := fmt.Sscanf(seconds, "%d", &n); err == nil && n > 0 {
			expiresIn = time.Duration(n) * time.Second
		}
	}

	c.token = tok.AccessToken
	c.tokenExpiry = time.Now().Add(expiresIn)
	return c.token, nil
}
