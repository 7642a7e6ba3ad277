package main

import (
	"elearning-storefront/internal/client"
	"elearning-storefront/internal/config"
	"elearning-storefront/internal/repository"
	"elearning-storefront/internal/server"
	"elearning-storefront/internal/service"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	defer logger.Sync()
	sugar := logger.Sugar()

	if cfg.MercadoPago.AccessToken == "" {
		sugar.Warn("MP_ACCESS_TOKEN is missing or empty")
	}

	db, err := client.InitSqliteClient(cfg.DatabasePath)
	if err != nil {
		sugar.Fatalw("database initialization error", "error", err)
	}

	mpClient := client.NewMercadoPagoClient(&cfg.MercadoPago)
	wpClient := client.NewWordPressClient(&cfg.WordPress)

	orderRepo := repository.NewOrderRepository(db)
	deliveryRepo := repository.NewWebhookDeliveryRepository(db)

	entitlementService := service.NewEntitlementService(
		mpClient, wpClient, orderRepo, deliveryRepo, sugar, cfg.GrantRetries)
	checkoutService := service.NewCheckoutService(
		mpClient, orderRepo, sugar, cfg.BaseURL, cfg.MercadoPago.AccessToken)
	accountService := service.NewAccountService(wpClient, sugar)
	catalogService := service.NewCatalogService(wpClient)

	srv := server.NewServer(
		entitlementService, checkoutService, accountService, catalogService,
		sugar, cfg.MercadoPago.WebhookSecret)

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	sugar.Infow("starting HTTP server", "addr", serverAddr)
	go func() {
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			sugar.Fatalw("HTTP server error", "error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	sugar.Info("signal received, starting graceful shutdown...")

	if err := srv.Shutdown(); err != nil {
		sugar.Fatalw("HTTP server shutdown error", "error", err)
	}
}

func newLogger(cfg *config.Config) *zap.Logger {
	var logger *zap.Logger
	var err error
	if cfg.Environment.Name == "development" || cfg.Log.Format == "console" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Printf("Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}
