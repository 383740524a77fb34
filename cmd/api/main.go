package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/storefront-labs/storefront-backend/api/controllers"
	"github.com/storefront-labs/storefront-backend/api/routes"
	"github.com/storefront-labs/storefront-backend/internal/bootstrap"
	"github.com/storefront-labs/storefront-backend/internal/cart"
	"github.com/storefront-labs/storefront-backend/internal/checkout"
	"github.com/storefront-labs/storefront-backend/internal/comments"
	"github.com/storefront-labs/storefront-backend/internal/orders"
	product "github.com/storefront-labs/storefront-backend/internal/products"
	"github.com/storefront-labs/storefront-backend/internal/ratings"
	"github.com/storefront-labs/storefront-backend/internal/reviews"
	"github.com/storefront-labs/storefront-backend/pkg/db"
	"github.com/storefront-labs/storefront-backend/pkg/logger"
	"github.com/storefront-labs/storefront-backend/pkg/metrics"
	"github.com/storefront-labs/storefront-backend/pkg/outbox"
	"github.com/storefront-labs/storefront-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, logg, err := bootstrap.Env("api")
	if err != nil {
		bootstrap.Exit(context.Background(), logg, "failed to load config", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := bootstrap.Database(ctx, cfg, logg)
	if err != nil {
		bootstrap.Exit(ctx, logg, "failed to bootstrap database", err)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		bootstrap.Exit(ctx, logg, "failed to bootstrap redis", err)
	}
	defer func() {
		if err := multierr.Append(redisClient.Close(), dbClient.Close()); err != nil {
			logg.Error(context.Background(), "error closing connections", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	commerceMetrics := metrics.NewCommerceMetrics(registry)

	deps, err := buildServices(dbClient, logg, commerceMetrics)
	if err != nil {
		bootstrap.Exit(ctx, logg, "failed to build services", err)
	}
	deps.Config = cfg
	deps.Logger = logg
	deps.Redis = redisClient
	deps.Health = map[string]controllers.Pinger{"postgres": dbClient, "redis": redisClient}
	deps.HTTPMetrics = metrics.NewHTTPMetrics(registry)
	deps.Gatherer = registry

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(logCtx, "api server stopped unexpectedly", err)
		}
	case <-ctx.Done():
		logg.Info(logCtx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(logCtx, "graceful shutdown failed", err)
		}
	}
}

func buildServices(dbClient *db.Client, logg *logger.Logger, m *metrics.CommerceMetrics) (routes.Dependencies, error) {
	conn := dbClient.DB()
	publisher := outbox.NewService(outbox.NewRepository(conn), logg)

	productRepo := product.NewRepository(conn)
	cartRepo := cart.NewRepository(conn)
	ordersRepo := orders.NewRepository(conn)
	reviewRepo := reviews.NewRepository(conn)
	commentRepo := comments.NewRepository(conn)

	var deps routes.Dependencies
	var err error

	if deps.Products, err = product.NewService(productRepo); err != nil {
		return deps, err
	}
	if deps.Cart, err = cart.NewService(cartRepo, productRepo); err != nil {
		return deps, err
	}
	if deps.Checkout, err = checkout.NewService(dbClient, cartRepo, ordersRepo, productRepo, publisher, logg, m); err != nil {
		return deps, err
	}
	if deps.Orders, err = orders.NewService(ordersRepo, dbClient, publisher, logg, m); err != nil {
		return deps, err
	}
	if deps.Ratings, err = ratings.NewService(dbClient, ordersRepo, productRepo, commentRepo, publisher, logg, m); err != nil {
		return deps, err
	}
	if deps.Reviews, err = reviews.NewService(reviewRepo, dbClient, publisher, productRepo, deps.Orders, logg, m); err != nil {
		return deps, err
	}
	if deps.Comments, err = comments.NewService(commentRepo, dbClient, productRepo, logg, m); err != nil {
		return deps, err
	}
	return deps, nil
}
