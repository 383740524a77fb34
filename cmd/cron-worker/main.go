package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/storefront-labs/storefront-backend/internal/bootstrap"
	"github.com/storefront-labs/storefront-backend/internal/cart"
	"github.com/storefront-labs/storefront-backend/internal/cron"
	"github.com/storefront-labs/storefront-backend/pkg/config"
	"github.com/storefront-labs/storefront-backend/pkg/db"
	"github.com/storefront-labs/storefront-backend/pkg/logger"
	"github.com/storefront-labs/storefront-backend/pkg/metrics"
	"github.com/storefront-labs/storefront-backend/pkg/outbox"
	"github.com/storefront-labs/storefront-backend/pkg/redis"
)

func main() {
	cfg, logg, err := bootstrap.Env("cron-worker")
	if err != nil {
		bootstrap.Exit(context.Background(), logg, "failed to load config", err)
	}

	dbClient, err := bootstrap.Database(context.Background(), cfg, logg)
	if err != nil {
		bootstrap.Exit(context.Background(), logg, "failed to bootstrap database", err)
	}
	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		bootstrap.Exit(context.Background(), logg, "failed to bootstrap redis", err)
	}
	defer func() {
		if err := multierr.Append(redisClient.Close(), dbClient.Close()); err != nil {
			logg.Error(context.Background(), "error closing connections", err)
		}
	}()

	registry, err := buildRegistry(cfg, logg, dbClient)
	if err != nil {
		bootstrap.Exit(context.Background(), logg, "failed to register cron jobs", err)
	}

	locker, err := cron.NewRedisLocker(redisClient, 0)
	if err != nil {
		bootstrap.Exit(context.Background(), logg, "failed to create cron locker", err)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Locker:   locker,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		bootstrap.Exit(context.Background(), logg, "failed to create cron service", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"interval": cfg.Cron.Interval.String(),
		"jobs":     len(registry.Jobs()),
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func buildRegistry(cfg *config.Config, logg *logger.Logger, dbClient *db.Client) (*cron.Registry, error) {
	registry := cron.NewRegistry()

	abandoned, err := cron.NewAbandonedCartJob(logg, cart.NewRepository(dbClient.DB()), cfg.Cron.AbandonedCartAge)
	if err != nil {
		return nil, err
	}
	retention, err := cron.NewOutboxRetentionJob(logg, dbClient, outbox.NewRepository(dbClient.DB()), cfg.Cron.OutboxRetention)
	if err != nil {
		return nil, err
	}

	for _, job := range []cron.Job{abandoned, retention} {
		if err := registry.Register(job); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
