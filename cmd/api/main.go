package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bodenhaus/checkout-backend/api/routes"
	"github.com/bodenhaus/checkout-backend/internal/checkout"
	"github.com/bodenhaus/checkout-backend/internal/journal"
	"github.com/bodenhaus/checkout-backend/internal/orders"
	"github.com/bodenhaus/checkout-backend/internal/providers"
	"github.com/bodenhaus/checkout-backend/internal/providers/banktransfer"
	"github.com/bodenhaus/checkout-backend/internal/providers/paypalpay"
	"github.com/bodenhaus/checkout-backend/internal/providers/stripepay"
	"github.com/bodenhaus/checkout-backend/internal/reconcile"
	"github.com/bodenhaus/checkout-backend/pkg/config"
	"github.com/bodenhaus/checkout-backend/pkg/db"
	"github.com/bodenhaus/checkout-backend/pkg/logger"
	"github.com/bodenhaus/checkout-backend/pkg/metrics"
	"github.com/bodenhaus/checkout-backend/pkg/migrate"
	"github.com/bodenhaus/checkout-backend/pkg/paypal"
	"github.com/bodenhaus/checkout-backend/pkg/redis"
	"github.com/bodenhaus/checkout-backend/pkg/stripe"
	"github.com/bodenhaus/checkout-backend/pkg/woocommerce"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "checkout-api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "checkout-api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

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

	wooClient, err := woocommerce.NewClient(context.Background(), cfg.Woo, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to build woocommerce client", err)
		os.Exit(1)
	}

	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to build stripe client", err)
		os.Exit(1)
	}

	paypalClient, err := paypal.NewClient(context.Background(), cfg.PayPal, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to build paypal client", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	paymentMetrics := metrics.NewPaymentMetrics(registry)

	journalRepo := journal.NewRepo(dbClient.DB())

	guard, err := reconcile.NewIdempotencyGuard(redisClient, cfg.Reconcile.IdempotencyTTL, "payment-events")
	if err != nil {
		logg.Error(context.Background(), "failed to build idempotency guard", err)
		os.Exit(1)
	}

	paypalAdapter := paypalpay.NewAdapter(paypalClient, cfg.PayPal)
	adapters := []providers.Adapter{
		stripepay.NewAdapter(stripeClient, cfg.Stripe),
		paypalAdapter,
		banktransfer.NewAdapter(),
	}

	checkoutService := checkout.NewService(
		wooClient,
		adapters,
		journalRepo,
		paymentMetrics,
		logg,
		cfg.Checkout.StartRetries,
		cfg.Checkout.StartBackoff,
		cfg.Checkout.RequestTimeout,
	)
	reconcileService := reconcile.NewService(
		wooClient,
		journalRepo,
		journalRepo,
		guard,
		paymentMetrics,
		logg,
		cfg.Reconcile.MaxWriteRetries,
	)
	captureService := reconcile.NewCaptureService(reconcileService, journalRepo, paypalAdapter)
	orderService := orders.NewService(wooClient, logg)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting checkout api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			stripeClient,
			checkoutService,
			orderService,
			captureService,
			reconcileService,
			journalRepo,
			promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "checkout api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
