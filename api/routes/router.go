package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stashspot/stashspot-backend/api/controllers"
	webhookcontrollers "github.com/stashspot/stashspot-backend/api/controllers/webhooks"
	"github.com/stashspot/stashspot-backend/api/middleware"
	"github.com/stashspot/stashspot-backend/internal/bookings"
	"github.com/stashspot/stashspot-backend/internal/items"
	"github.com/stashspot/stashspot-backend/internal/staff"
	"github.com/stashspot/stashspot-backend/pkg/config"
	"github.com/stashspot/stashspot-backend/pkg/logger"
	"github.com/stashspot/stashspot-backend/pkg/metrics"
	"github.com/stashspot/stashspot-backend/pkg/redis"
)

// RouterParams collects everything the HTTP surface depends on.
type RouterParams struct {
	Config            *config.Config
	Logger            *logger.Logger
	DB                controllers.Pinger
	Redis             *redis.Client
	Bookings          bookings.Service
	Items             items.Service
	Staff             staff.Registry
	PaymentsWebhook   webhookcontrollers.PaymentsWebhookService
	SchedulingWebhook webhookcontrollers.SchedulingWebhookService
	WebhookMetrics    *metrics.WebhookMetrics
	PromGatherer      prometheus.Gatherer
}

func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, params.DB, params.Redis, logg))
	})

	if params.PromGatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(params.PromGatherer, promhttp.HandlerOpts{}))
	}

	// Webhooks authenticate by signature, never by bearer token.
	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/payments", webhookcontrollers.PaymentsWebhook(params.PaymentsWebhook, cfg.Webhooks, params.WebhookMetrics, logg))
		r.Post("/scheduling", webhookcontrollers.SchedulingWebhook(params.SchedulingWebhook, cfg.Webhooks, params.WebhookMetrics, logg))
	})

	var idempotencyStore redis.IdempotencyStore
	if params.Redis != nil {
		idempotencyStore = params.Redis
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RejectDisallowedOrigin(cfg.CORS, logg))
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Route("/bookings", func(r chi.Router) {
			r.Get("/", controllers.ListBookings(params.Bookings, logg))
			r.Get("/{bookingId}", controllers.GetBooking(params.Bookings, logg))
			r.Post("/select-items", controllers.SelectItems(params.Bookings, logg))
			r.Post("/cancel", controllers.CancelBooking(params.Bookings, logg))
		})

		r.Get("/items", controllers.ListItems(params.Items, logg))

		r.Route("/staff", func(r chi.Router) {
			r.Use(middleware.RequireStaff(params.Staff, logg))
			r.Post("/complete", controllers.StaffComplete(params.Bookings, logg))
		})
	})

	return r
}
