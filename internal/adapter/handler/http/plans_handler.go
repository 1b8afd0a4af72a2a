package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/hotspotpay/captive-portal/internal/domain/model"
	"github.com/hotspotpay/captive-portal/internal/domain/repository"
)

type PlansHandler struct {
	logger *zap.Logger
	plans  repository.PlanRepository
}

func NewPlansHandler(logger *zap.Logger, plans repository.PlanRepository) *PlansHandler {
	return &PlansHandler{logger: logger, plans: plans}
}

// GetPlans returns every plan; the portal client filters to active ones.
func (h *PlansHandler) GetPlans(c echo.Context) error {
	plans, err := h.plans.GetAll(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to fetch plans", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"message": "failed to fetch plans",
		})
	}

	if plans == nil {
		plans = []*model.Plan{}
	}

	h.logger.Debug("Plans fetched", zap.Int("count", len(plans)))
	return c.JSON(http.StatusOK, plans)
}
