package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	domainErrors "github.com/hotspotpay/captive-portal/internal/domain/errors"
	"github.com/hotspotpay/captive-portal/internal/domain/model"
	"github.com/hotspotpay/captive-portal/internal/domain/provider"
)

// PaymentService is the slice of the payment usecase the handlers need.
type PaymentService interface {
	Initiate(ctx context.Context, planID, phone string) (*model.Transaction, error)
	Get(ctx context.Context, id string) (*model.Transaction, error)
	ApplyCallback(ctx context.Context, res *provider.CallbackResult) error
}

type TransactionHandler struct {
	payments PaymentService
	logger   *zap.Logger
}

func NewTransactionHandler(payments PaymentService, logger *zap.Logger) *TransactionHandler {
	return &TransactionHandler{
		payments: payments,
		logger:   logger,
	}
}

type initiateRequest struct {
	PlanID string `json:"planId" validate:"required"`
	Phone  string `json:"phone" validate:"required,min=9"`
}

// Initiate creates a PENDING transaction and triggers the STK push.
func (h *TransactionHandler) Initiate(c echo.Context) error {
	var req initiateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "planId and phone are required",
		})
	}

	tx, err := h.payments.Initiate(c.Request().Context(), req.PlanID, req.Phone)
	if err != nil {
		var invalidPhone *domainErrors.InvalidPhoneNumberError
		var planNotFound *domainErrors.PlanNotFoundError
		switch {
		case errors.As(err, &invalidPhone):
			return c.JSON(http.StatusBadRequest, echo.Map{
				"message": err.Error(),
			})
		case errors.As(err, &planNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{
				"message": err.Error(),
			})
		default:
			h.logger.Error("Failed to initiate payment",
				zap.String("plan_id", req.PlanID),
				zap.Error(err))
			return c.JSON(http.StatusBadGateway, echo.Map{
				"message": "payment could not be initiated, please try again",
			})
		}
	}

	return c.JSON(http.StatusCreated, tx)
}

// Get returns the current snapshot of a transaction; the portal polls it.
func (h *TransactionHandler) Get(c echo.Context) error {
	id := c.Param("id")

	tx, err := h.payments.Get(c.Request().Context(), id)
	if err != nil {
		var notFound *domainErrors.TransactionNotFoundError
		if errors.As(err, &notFound) {
			return c.JSON(http.StatusNotFound, echo.Map{
				"message": err.Error(),
			})
		}
		h.logger.Error("Failed to get transaction",
			zap.String("transaction_id", id),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"message": "failed to get transaction",
		})
	}

	return c.JSON(http.StatusOK, tx)
}
