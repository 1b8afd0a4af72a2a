package http

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/hotspotpay/captive-portal/internal/infrastructure/provider/daraja"
)

type CallbackHandler struct {
	payments PaymentService
	logger   *zap.Logger
}

func NewCallbackHandler(payments PaymentService, logger *zap.Logger) *CallbackHandler {
	return &CallbackHandler{
		payments: payments,
		logger:   logger,
	}
}

// HandleDaraja consumes the gateway's STK push result callback. The
// gateway retries on non-2xx, so decode problems are acknowledged with an
// error body rather than a 5xx loop.
func (h *CallbackHandler) HandleDaraja(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"ResultCode": 1,
			"ResultDesc": "failed to read callback body",
		})
	}

	result, err := daraja.ParseCallback(body)
	if err != nil {
		h.logger.Warn("Undecodable gateway callback", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{
			"ResultCode": 1,
			"ResultDesc": "failed to parse callback",
		})
	}

	if err := h.payments.ApplyCallback(c.Request().Context(), result); err != nil {
		h.logger.Error("Failed to apply gateway callback",
			zap.String("provider_ref", result.ProviderRef),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"ResultCode": 1,
			"ResultDesc": "failed to apply callback",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"ResultCode": 0,
		"ResultDesc": "Accepted",
	})
}
