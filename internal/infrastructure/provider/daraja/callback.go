package daraja

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/hotspotpay/captive-portal/internal/domain/provider"
)

// callbackEnvelope is the POST body Daraja sends to the callback URL.
type callbackEnvelope struct {
	Body struct {
		StkCallback struct {
			MerchantRequestID string `json:"MerchantRequestID"`
			CheckoutRequestID string `json:"CheckoutRequestID"`
			ResultCode        int    `json:"ResultCode"`
			ResultDesc        string `json:"ResultDesc"`
			CallbackMetadata  struct {
				Item []callbackItem `json:"Item"`
			} `json:"CallbackMetadata"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

type callbackItem struct {
	Name  string      `json:"Name"`
	Value interface{} `json:"Value"`
}

// ParseCallback decodes a Daraja STK result callback into the
// gateway-agnostic form. ResultCode 0 means the subscriber paid; any other
// code (cancelled prompt, insufficient funds, timeout on the handset) is a
// failure described by ResultDesc.
func ParseCallback(data []byte) (*provider.CallbackResult, error) {
	var envelope callbackEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode callback: %w", err)
	}

	cb := envelope.Body.StkCallback
	if cb.CheckoutRequestID == "" {
		return nil, fmt.Errorf("callback missing CheckoutRequestID")
	}

	result := &provider.CallbackResult{
		ProviderRef: cb.CheckoutRequestID,
		Success:     cb.ResultCode == 0,
		Description: cb.ResultDesc,
	}

	for _, item := range cb.CallbackMetadata.Item {
		switch item.Name {
		case "MpesaReceiptNumber":
			if s, ok := item.Value.(string); ok {
				result.Receipt = s
			}
		case "Amount":
			if f, ok := item.Value.(float64); ok {
				result.Amount = decimal.NewFromFloat(f)
			}
		case "PhoneNumber":
			switch v := item.Value.(type) {
			case string:
				result.Phone = v
			case float64:
				result.Phone = decimal.NewFromFloat(v).String()
			}
		}
	}

	return result, nil
}
