package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/stashspot/stashspot-backend/api/routes"
	"github.com/stashspot/stashspot-backend/internal/audit"
	"github.com/stashspot/stashspot-backend/internal/bookings"
	"github.com/stashspot/stashspot-backend/internal/customers"
	"github.com/stashspot/stashspot-backend/internal/items"
	"github.com/stashspot/stashspot-backend/internal/ledger"
	"github.com/stashspot/stashspot-backend/internal/notifications"
	"github.com/stashspot/stashspot-backend/internal/staff"
	paymentswebhook "github.com/stashspot/stashspot-backend/internal/webhooks/payments"
	schedulingwebhook "github.com/stashspot/stashspot-backend/internal/webhooks/scheduling"
	"github.com/stashspot/stashspot-backend/pkg/config"
	"github.com/stashspot/stashspot-backend/pkg/db"
	"github.com/stashspot/stashspot-backend/pkg/enums"
	"github.com/stashspot/stashspot-backend/pkg/logger"
	"github.com/stashspot/stashspot-backend/pkg/metrics"
	"github.com/stashspot/stashspot-backend/pkg/migrate"
	"github.com/stashspot/stashspot-backend/pkg/redis"
)

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

	conn := dbClient.DB()

	auditService, err := audit.NewService(audit.ServiceParams{
		Repo:   audit.NewRepository(conn),
		Logger: logg,
	})
	requireService(logg, "audit", err)

	customersRepo := customers.NewRepository(conn)
	customersService, err := customers.NewService(customersRepo)
	requireService(logg, "customers", err)

	ledgerService, err := ledger.NewService(ledger.NewRepository(conn))
	requireService(logg, "ledger", err)

	itemsRepo := items.NewRepository(conn)
	itemsService, err := items.NewService(itemsRepo)
	requireService(logg, "items", err)

	notificationsService, err := notifications.NewService(notifications.ServiceParams{
		Repo:      notifications.NewRepository(conn),
		Customers: customersRepo,
		Sender:    &notifications.LogSender{Logg: logg},
		Logger:    logg,
	})
	requireService(logg, "notifications", err)

	bookingsService, err := bookings.NewService(bookings.ServiceParams{
		Repo:              bookings.NewRepository(conn),
		Items:             itemsRepo,
		Customers:         customersService,
		Audit:             auditService,
		Notifier:          notificationsService,
		Tx:                dbClient,
		Logger:            logg,
		CompletableStates: completableStates(logg, cfg.Bookings.CompletableStates),
	})
	requireService(logg, "bookings", err)

	staffRegistry, err := staff.NewRegistry(staff.NewRepository(conn))
	requireService(logg, "staff", err)

	paymentsWebhookService, err := paymentswebhook.NewService(paymentswebhook.ServiceParams{
		Ledger:    ledgerService,
		Customers: customersService,
		Audit:     auditService,
		Tx:        dbClient,
		Logger:    logg,
	})
	requireService(logg, "payments webhook", err)

	schedulingWebhookService, err := schedulingwebhook.NewService(schedulingwebhook.ServiceParams{
		Ledger:   ledgerService,
		Bookings: bookingsService,
		Logger:   logg,
	})
	requireService(logg, "scheduling webhook", err)

	webhookMetrics := metrics.NewWebhookMetrics(prometheus.DefaultRegisterer)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:            cfg,
			Logger:            logg,
			DB:                dbClient,
			Redis:             redisClient,
			Bookings:          bookingsService,
			Items:             itemsService,
			Staff:             staffRegistry,
			PaymentsWebhook:   paymentsWebhookService,
			SchedulingWebhook: schedulingWebhookService,
			WebhookMetrics:    webhookMetrics,
			PromGatherer:      prometheus.DefaultGatherer,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func requireService(logg *logger.Logger, name string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), "failed to create "+name+" service", err)
	os.Exit(1)
}

// completableStates parses the configured completion allow-list, skipping
// values that are not known booking statuses.
func completableStates(logg *logger.Logger, values []string) []enums.BookingStatus {
	var states []enums.BookingStatus
	for _, value := range values {
		status, err := enums.ParseBookingStatus(value)
		if err != nil {
			logg.Warn(context.Background(), "ignoring unknown completable state "+value)
			continue
		}
		states = append(states, status)
	}
	return states
}
