package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Roxxy17/storefront-gateway/api/controllers"
	"github.com/Roxxy17/storefront-gateway/api/middleware"
	cartsvc "github.com/Roxxy17/storefront-gateway/internal/cart"
	checkoutsvc "github.com/Roxxy17/storefront-gateway/internal/checkout"
	"github.com/Roxxy17/storefront-gateway/internal/payment"
	"github.com/Roxxy17/storefront-gateway/internal/pickup"
	"github.com/Roxxy17/storefront-gateway/internal/reconcile"
	"github.com/Roxxy17/storefront-gateway/pkg/config"
	"github.com/Roxxy17/storefront-gateway/pkg/logger"
	"github.com/Roxxy17/storefront-gateway/pkg/redis"
)

// Services bundles everything the router exposes.
type Services struct {
	Cart      cartsvc.Service
	Checkout  checkoutsvc.Service
	Payment   payment.Service
	Reconcile reconcile.Service
	Pickup    pickup.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	redisClient redis.Pinger,
	registry *prometheus.Registry,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, redisClient))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/cart", controllers.Cart(svcs.Cart, logg))
		r.Post("/checkout", controllers.Checkout(svcs.Checkout, logg))

		r.Route("/payment/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", controllers.PaymentSession(svcs.Payment, logg))
			r.Post("/navigation", controllers.PaymentNavigation(svcs.Payment, logg))
			r.Post("/dismiss", controllers.PaymentDismiss(svcs.Payment, logg))
		})

		r.Get("/orders", controllers.Orders(svcs.Reconcile, logg))

		r.Route("/transactions/{ref}", func(r chi.Router) {
			r.Get("/", controllers.Transaction(svcs.Reconcile, logg))
			r.Get("/pickup-route", controllers.PickupRoute(svcs.Pickup, logg))
		})
	})

	return r
}
