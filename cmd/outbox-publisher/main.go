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
	"github.com/storefront-labs/storefront-backend/pkg/metrics"
	"github.com/storefront-labs/storefront-backend/pkg/outbox"
	"github.com/storefront-labs/storefront-backend/pkg/outbox/registry"
)

func main() {
	cfg, logg, err := bootstrap.Env("outbox-publisher")
	if err != nil {
		bootstrap.Exit(context.Background(), logg, "failed to load config", err)
	}

	dbClient, err := bootstrap.Database(context.Background(), cfg, logg)
	if err != nil {
		bootstrap.Exit(context.Background(), logg, "failed to bootstrap database", err)
	}

	writer := newKafkaWriter(cfg.Kafka)
	defer func() {
		if err := multierr.Append(writer.Close(), dbClient.Close()); err != nil {
			logg.Error(context.Background(), "error closing connections", err)
		}
	}()

	eventRegistry, err := registry.NewEventRegistry(cfg.Kafka.Topic)
	if err != nil {
		bootstrap.Exit(context.Background(), logg, "failed to build event registry", err)
	}
	service, err := NewService(ServiceParams{
		Config:     cfg,
		Logger:     logg,
		DB:         dbClient,
		Writer:     writer,
		Repository: outbox.NewRepository(dbClient.DB()),
		Registry:   eventRegistry,
		Metrics:    metrics.NewOutboxMetrics(prometheus.DefaultRegisterer),
		BrokerPing: brokerPinger(cfg.Kafka.BrokerList()),
	})
	if err != nil {
		bootstrap.Exit(context.Background(), logg, "failed to create outbox publisher", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":     cfg.App.Env,
		"topic":   cfg.Kafka.Topic,
		"brokers": cfg.Kafka.Brokers,
	})
	logg.Info(ctx, "starting outbox publisher")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "outbox publisher stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "outbox publisher shutting down gracefully")
}
