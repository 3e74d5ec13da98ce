package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bodenhaus/checkout-backend/api/controllers"
	webhookcontrollers "github.com/bodenhaus/checkout-backend/api/controllers/webhooks"
	"github.com/bodenhaus/checkout-backend/api/middleware"
	"github.com/bodenhaus/checkout-backend/pkg/config"
	"github.com/bodenhaus/checkout-backend/pkg/db"
	"github.com/bodenhaus/checkout-backend/pkg/logger"
	"github.com/bodenhaus/checkout-backend/pkg/stripe"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	cache db.Pinger,
	stripeClient *stripe.Client,
	checkoutService controllers.CheckoutService,
	orderService controllers.OrderStatusService,
	captureService controllers.PayPalCaptureService,
	reconcileService webhookcontrollers.ReconcileService,
	conflicts controllers.ConflictLister,
	metricsHandler http.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, cache))
	})

	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	r.Route("/checkout", func(r chi.Router) {
		r.Post("/create-order", controllers.CreateOrder(checkoutService, logg))
		r.Get("/paypal/capture", controllers.PayPalCapture(captureService, cfg.Checkout, logg))
		r.Post("/stripe/webhook", webhookcontrollers.StripeWebhook(reconcileService, stripeClient, logg))
		r.Get("/order/{orderId}", controllers.OrderStatus(orderService, logg))
	})

	r.Route("/admin", func(r chi.Router) {
		r.Get("/reconcile/conflicts", controllers.ReconcileConflicts(conflicts, logg))
	})

	return r
}
