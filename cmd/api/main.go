package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/agrostore-bff/api/routes"
	"github.com/angelmondragon/agrostore-bff/internal/address"
	"github.com/angelmondragon/agrostore-bff/internal/cart"
	"github.com/angelmondragon/agrostore-bff/internal/catalog"
	"github.com/angelmondragon/agrostore-bff/internal/checkout"
	"github.com/angelmondragon/agrostore-bff/internal/orders"
	"github.com/angelmondragon/agrostore-bff/internal/paymentmethods"
	"github.com/angelmondragon/agrostore-bff/internal/shipping"
	"github.com/angelmondragon/agrostore-bff/pkg/backend"
	"github.com/angelmondragon/agrostore-bff/pkg/config"
	"github.com/angelmondragon/agrostore-bff/pkg/db"
	"github.com/angelmondragon/agrostore-bff/pkg/logger"
	"github.com/angelmondragon/agrostore-bff/pkg/metrics"
	"github.com/angelmondragon/agrostore-bff/pkg/migrate"
	"github.com/angelmondragon/agrostore-bff/pkg/redis"
)

const draftSweepInterval = time.Minute

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
		Env:         cfg.App.Env,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	backendClient, err := backend.NewFromConfig(cfg.Backend, metrics.NewBackendMetrics(registry))
	requireResource(ctx, logg, "backend client", err)

	catalogService, err := catalog.NewService(backendClient, redisClient, cfg.Catalog.CacheTTL, logg)
	requireResource(ctx, logg, "catalog service", err)

	cartRepo, err := cart.NewRedisRepository(redisClient, cfg.Cart.TTL)
	requireResource(ctx, logg, "cart repository", err)
	cartStore, err := cart.NewStore(cartRepo, logg)
	requireResource(ctx, logg, "cart store", err)

	addressService, err := address.NewService(backendClient)
	requireResource(ctx, logg, "address service", err)

	shippingService, err := shipping.NewService(backendClient)
	requireResource(ctx, logg, "shipping service", err)

	ordersService, err := orders.NewService(orders.NewRepository(dbClient.DB()))
	requireResource(ctx, logg, "orders service", err)

	policy, err := paymentmethods.FromConfig(cfg.Payments)
	requireResource(ctx, logg, "payment policy", err)

	drafts := checkout.NewDraftStore(policy, cfg.Checkout.DraftTTL)
	go drafts.Run(ctx, draftSweepInterval, logg)

	checkoutService, err := checkout.NewService(checkout.Deps{
		Carts:     cartStore,
		Shipping:  shippingService,
		Addresses: addressService,
		Orders:    backendClient,
		Receipts:  ordersService,
		Policy:    policy,
		Drafts:    drafts,
		Metrics:   metrics.NewCheckoutMetrics(registry),
		Logger:    logg,
		Channel:   cfg.Backend.Channel,
	})
	requireResource(ctx, logg, "checkout service", err)

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
		Handler:           routes.NewRouter(cfg, logg, dbClient, redisClient, registry, catalogService, cartStore, checkoutService, ordersService),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logg.Info(logCtx, "shutdown signal received")
	case err := <-errCh:
		logg.Error(logCtx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(logCtx, "graceful shutdown failed", err)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "resource not working: "+resource, err)
	os.Exit(1)
}
