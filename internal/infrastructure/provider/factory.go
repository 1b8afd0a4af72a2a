package provider

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/hotspotpay/captive-portal/internal/config"
	"github.com/hotspotpay/captive-portal/internal/domain/provider"
	"github.com/hotspotpay/captive-portal/internal/domain/repository"
	"github.com/hotspotpay/captive-portal/internal/infrastructure/provider/daraja"
	"github.com/hotspotpay/captive-portal/internal/infrastructure/provider/sandbox"
)

// NewGateway creates the mobile-money gateway selected by configuration.
func NewGateway(cfg *config.Config, transactions repository.TransactionRepository, logger *zap.Logger) (provider.Gateway, error) {
	switch cfg.Mpesa.Driver {
	case "daraja":
		if cfg.Mpesa.ConsumerKey == "" || cfg.Mpesa.ConsumerSecret == "" {
			return nil, fmt.Errorf("daraja consumer credentials not configured")
		}
		if cfg.Mpesa.ShortCode == "" || cfg.Mpesa.Passkey == "" {
			return nil, fmt.Errorf("daraja short code or passkey not configured")
		}
		return daraja.NewClient(&cfg.Mpesa, logger), nil
	case "sandbox":
		return sandbox.New(transactions, cfg.Mpesa.Sandbox.Outcome, cfg.Mpesa.Sandbox.Delay(), logger), nil
	default:
		return nil, fmt.Errorf("unsupported gateway driver: %s", cfg.Mpesa.Driver)
	}
}
