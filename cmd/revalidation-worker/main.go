package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/tmrivera/cardhaven-backend/internal/cart"
	"github.com/tmrivera/cardhaven-backend/internal/revalidation"
	"github.com/tmrivera/cardhaven-backend/pkg/config"
	"github.com/tmrivera/cardhaven-backend/pkg/justtcg"
	"github.com/tmrivera/cardhaven-backend/pkg/logger"
	"github.com/tmrivera/cardhaven-backend/pkg/metrics"
	"github.com/tmrivera/cardhaven-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "revalidation-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "revalidation-worker",
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

	cartRegistry, err := cart.NewRegistry(cart.RegistryParams{
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

	jobMetrics := metrics.NewRevalidationJobMetrics(prometheus.DefaultRegisterer)
	lock, err := revalidation.NewRedisLock(redisClient, redisClient.LockKey("revalidation"), cfg.Revalidation.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create worker lock", err)
		os.Exit(1)
	}

	carts := revalidation.Directory{Registry: cartRegistry}

	priceJob, err := revalidation.NewPriceJob(revalidation.PriceJobParams{
		Logger:  logg,
		Carts:   carts,
		Metrics: jobMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create price job", err)
		os.Exit(1)
	}
	stockJob, err := revalidation.NewStockJob(revalidation.StockJobParams{
		Logger:  logg,
		Carts:   carts,
		Metrics: jobMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create stock job", err)
		os.Exit(1)
	}
	expiryJob, err := revalidation.NewExpiryJob(revalidation.ExpiryJobParams{
		Logger:  logg,
		Carts:   carts,
		Metrics: jobMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create expiry job", err)
		os.Exit(1)
	}

	service, err := revalidation.NewService(revalidation.ServiceParams{
		Logger:   logg,
		Registry: revalidation.NewRegistry(priceJob, stockJob, expiryJob),
		Lock:     lock,
		Metrics:  jobMetrics,
		Interval: cfg.Revalidation.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create revalidation service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env})
	logg.Info(ctx, "starting revalidation worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "revalidation worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "revalidation worker shutting down gracefully")
}
