package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"foodorder/docs"
	"foodorder/internal/app"
	"foodorder/internal/auth"
	"foodorder/internal/cache"
	"foodorder/internal/config"
	"foodorder/internal/handler"
	"foodorder/internal/logger"
	"foodorder/internal/payment"
	"foodorder/internal/router"
	"foodorder/internal/service"
	"foodorder/internal/storage"
)

// @title Food Ordering API
// @version 1.0
// @description Catalog, cart, checkout and order tracking for a food delivery storefront.
// @host localhost:4000
// @BasePath /
// @schemes http https
// @securityDefinitions.apikey TokenAuth
// @in header
// @name token
func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	decimal.MarshalJSONWithoutQuotes = true

	var sinks []slog.Handler
	if cfg.LogMongoURL != "" {
		sink, err := logger.NewMongoHandler(context.Background(), cfg.LogMongoURL, cfg.MongoDB)
		if err != nil {
			slog.Warn("mongo log sink disabled", "error", err)
		} else {
			defer sink.Close()
			sinks = append(sinks, sink)
		}
	}
	logger.Setup(cfg.IsProduction(), sinks...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, err := app.OpenStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := stores.Close(closeCtx); err != nil {
			slog.Warn("close database", "error", err)
		}
	}()
	slog.Info("database connected", "driver", cfg.DBDriver)

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()
	if err := cacheClient.Ping(ctx); err != nil {
		slog.Warn("redis unavailable, continuing without cache", "addr", cfg.RedisAddr, "error", err)
	}

	images, imagesDir, err := openImageStore(ctx, cfg)
	if err != nil {
		return err
	}

	var gateway payment.Gateway
	if cfg.StripeSecretKey != "" {
		gateway = payment.NewStripeGateway(cfg.StripeSecretKey, cfg.Currency, cfg.FrontendURL, nil)
	} else {
		slog.Warn("STRIPE_SECRET_KEY not set, using the development gateway")
		gateway = payment.NewDevGateway(cfg.FrontendURL)
	}

	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.TokenTTL)
	throttle := auth.NewLoginThrottle(cacheClient, cfg.LoginMaxAttempts, cfg.LoginLockout)

	authService := service.NewAuthService(stores.Users, jwtService, throttle, cfg.BcryptCost)
	cartService := service.NewCartService(stores.Users, stores.Foods, cfg.MaxItemQuantity)
	foodService := service.NewFoodService(stores.Foods, cacheClient, images)
	orderService := service.NewOrderService(stores.Orders, stores.Foods, cartService, gateway, cfg.MaxItemQuantity)

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = strings.TrimPrefix(strings.TrimPrefix(cfg.SwaggerHost, "https://"), "http://")
	}

	e := echo.New()
	e.HideBanner = true
	router.Register(e, cfg, authService, router.Handlers{
		User:  handler.NewUserHandler(authService),
		Food:  handler.NewFoodHandler(foodService),
		Cart:  handler.NewCartHandler(cartService),
		Order: handler.NewOrderHandler(orderService, cartService),
	}, imagesDir)

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.ServerPort
		slog.Info("server listening", "addr", addr, "swagger", cfg.PublicURL+"/swagger/index.html")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// openImageStore returns the configured store and, for the local driver, the directory to serve.
func openImageStore(ctx context.Context, cfg *config.Config) (storage.Store, string, error) {
	if cfg.StorageDriver == "s3" {
		store, err := storage.NewS3Store(ctx, storage.S3Config{
			Bucket:   cfg.S3Bucket,
			Region:   cfg.S3Region,
			Key:      cfg.S3Key,
			Secret:   cfg.S3Secret,
			Endpoint: cfg.S3Endpoint,
			URL:      cfg.S3URL,
		})
		return store, "", err
	}
	store, err := storage.NewLocalStore(cfg.StorageLocalRoot, cfg.PublicURL+"/images")
	if err != nil {
		return nil, "", err
	}
	return store, store.Root(), nil
}
