package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/tmrivera/cardhaven-backend/api/routes"
	"github.com/tmrivera/cardhaven-backend/internal/cart"
	"github.com/tmrivera/cardhaven-backend/internal/search"
	"github.com/tmrivera/cardhaven-backend/pkg/config"
	"github.com/tmrivera/cardhaven-backend/pkg/justtcg"
	"github.com/tmrivera/cardhaven-backend/pkg/logger"
	"github.com/tmrivera/cardhaven-backend/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	cardClient, err := justtcg.NewClient(cfg.Pricing.APIKey,
		justtcg.WithBaseURL(cfg.Pricing.BaseURL),
		justtcg.WithHTTPClient(&http.Client{Timeout: cfg.Pricing.Timeout}),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create card api client", err)
		os.Exit(1)
	}

	snapshotStore, err := cart.NewSnapshotStore(redisClient, logg, cfg.Cart.Retention)
	if err != nil {
		logg.Error(context.Background(), "failed to create snapshot store", err)
		os.Exit(1)
	}

	registry, err := cart.NewRegistry(cart.RegistryParams{
		Store:           snapshotStore,
		Pricing:         cardClient,
		Logger:          logg,
		Retention:       cfg.Cart.Retention,
		PriceDeviation:  decimal.NewFromFloat(cfg.Cart.PriceDeviationPct),
		NotificationTTL: cfg.Cart.NotificationTTL,
		NotificationCap: cfg.Cart.MaxNotificationQueue,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart registry", err)
		os.Exit(1)
	}

	searchService, err := search.NewService(search.ServiceParams{
		Client:    cardClient,
		Logger:    logg,
		Debounce:  cfg.Search.Debounce,
		CountsTTL: cfg.Search.CountsCacheTTL,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create search service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, redisClient, registry, searchService),
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-runCtx.Done():
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}

	logg.Info(ctx, "api server shut down gracefully")
}
