package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rakapradana/kostumpos-backend/api/controllers"
	"github.com/rakapradana/kostumpos-backend/api/middleware"
	availabilitysvc "github.com/rakapradana/kostumpos-backend/internal/availability"
	catalogsvc "github.com/rakapradana/kostumpos-backend/internal/catalog"
	checkoutsvc "github.com/rakapradana/kostumpos-backend/internal/checkout"
	reservationsvc "github.com/rakapradana/kostumpos-backend/internal/reservations"
	"github.com/rakapradana/kostumpos-backend/pkg/config"
	"github.com/rakapradana/kostumpos-backend/pkg/db"
	"github.com/rakapradana/kostumpos-backend/pkg/logger"
	"github.com/rakapradana/kostumpos-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	gatherer prometheus.Gatherer,
	catalogService catalogsvc.Service,
	availabilityService availabilitysvc.Service,
	checkoutService checkoutsvc.Service,
	reservationService reservationsvc.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	var redisP redis.Pinger
	if redisClient != nil {
		redisP = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1", func(r chi.Router) {
		if redisClient != nil {
			r.Use(middleware.Idempotency(redisClient, logg))
		}

		r.Get("/products", controllers.ListProducts(catalogService, logg))
		r.Get("/products/{productID}", controllers.GetProduct(catalogService, logg))
		r.Get("/categories", controllers.ListCategories(catalogService, logg))
		r.Get("/bundles", controllers.ListBundles(catalogService, logg))

		r.Get("/availability", controllers.Availability(availabilityService, logg))

		r.Post("/checkout", controllers.Checkout(checkoutService, logg))
		r.Get("/orders/{orderID}", controllers.GetOrder(checkoutService, logg))
		r.Get("/orders/{orderID}/reservations", controllers.ListOrderReservations(reservationService, logg))
		r.Post("/reservations/{reservationID}/cancel", controllers.CancelReservation(reservationService, logg))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	return r
}
