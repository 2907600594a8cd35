package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Roxxy17/storefront-gateway/api/routes"
	cartsvc "github.com/Roxxy17/storefront-gateway/internal/cart"
	checkoutsvc "github.com/Roxxy17/storefront-gateway/internal/checkout"
	"github.com/Roxxy17/storefront-gateway/internal/payment"
	"github.com/Roxxy17/storefront-gateway/internal/pickup"
	"github.com/Roxxy17/storefront-gateway/internal/reconcile"
	"github.com/Roxxy17/storefront-gateway/pkg/commerce"
	"github.com/Roxxy17/storefront-gateway/pkg/config"
	"github.com/Roxxy17/storefront-gateway/pkg/logger"
	"github.com/Roxxy17/storefront-gateway/pkg/metrics"
	"github.com/Roxxy17/storefront-gateway/pkg/redis"
	"github.com/Roxxy17/storefront-gateway/pkg/routing"
	"github.com/Roxxy17/storefront-gateway/pkg/types"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "storefront-gateway"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "storefront-gateway",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	pipeline := metrics.NewPipelineMetrics(registry)

	commerceClient, err := commerce.NewClient(cfg.Commerce.BaseURL, commerce.WithTimeout(cfg.Commerce.RequestTimeout))
	if err != nil {
		logg.Error(context.Background(), "failed to build commerce client", err)
		os.Exit(1)
	}

	routingClient := routing.NewClient(
		routing.WithBaseURL(cfg.Routing.BaseURL),
		routing.WithTimeout(cfg.Routing.RequestTimeout),
	)

	cartService, err := cartsvc.NewService(commerceClient)
	if err != nil {
		logg.Error(context.Background(), "failed to build cart service", err)
		os.Exit(1)
	}

	paymentService, err := payment.NewService(redisClient, pipeline, logg, cfg.Payment.SessionTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to build payment service", err)
		os.Exit(1)
	}

	checkoutService, err := checkoutsvc.NewService(cartService, commerceClient, paymentService, redisClient, pipeline, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to build checkout service", err)
		os.Exit(1)
	}

	reconcileService, err := reconcile.NewService(commerceClient, redisClient, logg, cfg.Pickup.OrderCacheTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to build reconcile service", err)
		os.Exit(1)
	}

	pickupService, err := pickup.NewService(
		reconcileService,
		commerceClient,
		routingClient,
		pipeline,
		logg,
		types.GeoPoint{Lat: cfg.Pickup.DefaultLat, Lng: cfg.Pickup.DefaultLng},
	)
	if err != nil {
		logg.Error(context.Background(), "failed to build pickup service", err)
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
	logg.Info(ctx, "starting storefront gateway")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, redisClient, registry, routes.Services{
			Cart:      cartService,
			Checkout:  checkoutService,
			Payment:   paymentService,
			Reconcile: reconcileService,
			Pickup:    pickupService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "gateway stopped unexpectedly", err)
		os.Exit(1)
	}
}
