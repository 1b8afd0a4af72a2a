package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	handlers "github.com/hotspotpay/captive-portal/internal/adapter/handler/http"
	"github.com/hotspotpay/captive-portal/internal/config"
	"github.com/hotspotpay/captive-portal/internal/infrastructure/database"
	"github.com/hotspotpay/captive-portal/internal/usecase"
)

type Server struct {
	config   *config.Config
	logger   *zap.Logger
	echo     *echo.Echo
	repos    *database.Repositories
	payments *usecase.PaymentUsecase
}

type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func NewServer(cfg *config.Config, logger *zap.Logger, repos *database.Repositories, payments *usecase.PaymentUsecase) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &requestValidator{validate: validator.New()}

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// Captive-portal clients arrive from arbitrary origins unless a
	// dedicated portal URL is configured.
	origins := []string{"*"}
	if cfg.Service.ClientURL != "" {
		origins = []string{cfg.Service.ClientURL}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{echo.GET, echo.POST},
	}))

	return &Server{
		config:   cfg,
		logger:   logger,
		echo:     e,
		repos:    repos,
		payments: payments,
	}
}

func (s *Server) Start() error {
	// Setup routes
	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", s.config.Server.HTTP.Host, s.config.Server.HTTP.Port)
	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	// Health check
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": s.config.Service.Name,
		})
	})

	// Initialize handlers
	plansHandler := handlers.NewPlansHandler(s.logger, s.repos.Plan)
	gardensHandler := handlers.NewWalledGardenHandler(s.logger, s.repos.WalledGarden)
	transactionHandler := handlers.NewTransactionHandler(s.payments, s.logger)
	callbackHandler := handlers.NewCallbackHandler(s.payments, s.logger)

	api := s.echo.Group("/api")

	api.GET("/plans", plansHandler.GetPlans)
	api.GET("/walled-gardens", gardensHandler.GetWalledGardens)

	transactions := api.Group("/transactions")
	transactions.POST("/initiate", transactionHandler.Initiate)
	transactions.GET("/:id", transactionHandler.Get)

	// Gateway callback (outside the portal API surface)
	s.echo.POST("/api/callbacks/daraja", callbackHandler.HandleDaraja)
}
