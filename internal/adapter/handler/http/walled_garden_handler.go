package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/hotspotpay/captive-portal/internal/domain/model"
	"github.com/hotspotpay/captive-portal/internal/domain/repository"
)

type WalledGardenHandler struct {
	logger  *zap.Logger
	gardens repository.WalledGardenRepository
}

func NewWalledGardenHandler(logger *zap.Logger, gardens repository.WalledGardenRepository) *WalledGardenHandler {
	return &WalledGardenHandler{logger: logger, gardens: gardens}
}

// GetWalledGardens returns the domains reachable without payment.
func (h *WalledGardenHandler) GetWalledGardens(c echo.Context) error {
	gardens, err := h.gardens.GetAll(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to fetch walled gardens", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"message": "failed to fetch walled gardens",
		})
	}

	if gardens == nil {
		gardens = []*model.WalledGarden{}
	}
	return c.JSON(http.StatusOK, gardens)
}
