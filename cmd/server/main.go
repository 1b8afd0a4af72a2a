package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hotspotpay/captive-portal/internal/config"
	"github.com/hotspotpay/captive-portal/internal/infrastructure/database"
	httpServer "github.com/hotspotpay/captive-portal/internal/infrastructure/http"
	gatewayFactory "github.com/hotspotpay/captive-portal/internal/infrastructure/provider"
	"github.com/hotspotpay/captive-portal/internal/phone"
	"github.com/hotspotpay/captive-portal/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize database connection
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db, logger); err != nil {
			logger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	// Run database migrations
	if err := database.Migrate(db, logger); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Initialize repositories
	repos := database.NewRepositories(db, logger)

	seedCtx := context.Background()
	if err := database.Seed(seedCtx, repos, logger); err != nil {
		logger.Fatal("Failed to seed walled gardens", zap.Error(err))
	}
	if cfg.Service.Environment != "production" {
		if err := database.SeedDevPlans(seedCtx, repos, logger); err != nil {
			logger.Fatal("Failed to seed development plans", zap.Error(err))
		}
	}

	// Initialize payment gateway
	gateway, err := gatewayFactory.NewGateway(cfg, repos.Transaction, logger)
	if err != nil {
		logger.Fatal("Failed to initialize payment gateway", zap.Error(err))
	}
	logger.Info("Payment gateway initialized", zap.String("gateway", gateway.Name()))

	normalizer := phone.NewNormalizer(cfg.Service.CountryCode)
	payments := usecase.NewPaymentUsecase(repos.Plan, repos.Transaction, gateway, normalizer, logger)

	httpSrv := httpServer.NewServer(cfg, logger, repos, payments)

	go func() {
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown HTTP server", zap.Error(err))
	}

	logger.Info("Server shut down successfully")
}
