package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prepline/prepline/internal/app"
	"github.com/prepline/prepline/internal/availability"
	"github.com/prepline/prepline/internal/inventory"
	"github.com/prepline/prepline/internal/orders"
	"github.com/prepline/prepline/internal/platform/cache"
	"github.com/prepline/prepline/internal/platform/db"
	"github.com/prepline/prepline/internal/production"
	"github.com/prepline/prepline/internal/shared"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	// Redis is advisory: without it availability falls back to direct reads.
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, availability cache disabled", slog.Any("error", err))
		redisClient = nil
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	availabilityCache := availability.NewCache(redisClient, cfg.AvailabilityCacheTTL)
	if err := availabilityCache.ListenForInvalidation(ctx, ""); err != nil {
		logger.Warn("cache invalidation listener", slog.Any("error", err))
	}

	inventoryRepo := inventory.NewRepository(pool)
	inventoryService := inventory.NewService(inventoryRepo, logger, inventory.ServiceConfig{
		AllowNegativeStock: cfg.AllowNegativeStock,
	})

	productionRepo := production.NewRepository(pool)
	productionService := production.NewService(
		productionRepo,
		production.NewStockAdapter(inventoryService),
		shared.NewKeyedMutex(),
		availabilityCache,
		logger,
	)

	ordersRepo := orders.NewRepository(pool)
	ordersService := orders.NewService(
		ordersRepo,
		orders.NewInventoryAdapter(inventoryService),
		orders.NewPlannerAdapter(productionService),
		logger,
	)

	availabilityRepo := availability.NewRepository(pool)
	availabilityService := availability.NewService(availabilityRepo, availabilityCache, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:              logger,
		Config:              cfg,
		OrdersHandler:       orders.NewHandler(logger, ordersService),
		ProductionHandler:   production.NewHandler(logger, productionService),
		InventoryHandler:    inventory.NewHandler(logger, inventoryService),
		AvailabilityHandler: availability.NewHandler(logger, availabilityService),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server run", slog.Any("error", err))
			os.Exit(1)
		}
	}
}
