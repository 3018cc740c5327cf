package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rakapradana/kostumpos-backend/api/routes"
	"github.com/rakapradana/kostumpos-backend/internal/allocation"
	"github.com/rakapradana/kostumpos-backend/internal/availability"
	"github.com/rakapradana/kostumpos-backend/internal/catalog"
	"github.com/rakapradana/kostumpos-backend/internal/checkout"
	"github.com/rakapradana/kostumpos-backend/internal/pricing"
	"github.com/rakapradana/kostumpos-backend/internal/reservations"
	"github.com/rakapradana/kostumpos-backend/pkg/config"
	"github.com/rakapradana/kostumpos-backend/pkg/db"
	"github.com/rakapradana/kostumpos-backend/pkg/logger"
	"github.com/rakapradana/kostumpos-backend/pkg/metrics"
	"github.com/rakapradana/kostumpos-backend/pkg/migrate"
	"github.com/rakapradana/kostumpos-backend/pkg/redis"
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

	catalogRepo := catalog.NewRepository(dbClient.DB())
	catalogService, err := catalog.NewService(catalogRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	availabilityService, err := availability.NewService(availability.NewRepository(dbClient.DB()), cfg.Rental)
	if err != nil {
		logg.Error(context.Background(), "failed to create availability service", err)
		os.Exit(1)
	}

	allocator, err := allocation.NewAllocator(allocation.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create allocator", err)
		os.Exit(1)
	}

	checkoutMetrics := metrics.NewCheckoutMetrics(prometheus.DefaultRegisterer)
	checkoutService, err := checkout.NewService(
		checkout.NewRepository(dbClient.DB()),
		catalogRepo,
		allocator,
		pricing.NewEngine(cfg.Rental),
		dbClient,
		cfg.Rental,
		checkoutMetrics,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	reservationService, err := reservations.NewService(reservations.NewRepository(dbClient.DB()), dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create reservation service", err)
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
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			prometheus.DefaultGatherer,
			catalogService,
			availabilityService,
			checkoutService,
			reservationService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
