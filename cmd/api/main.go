package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lucasmerida/storely-backend/api/routes"
	"github.com/lucasmerida/storely-backend/internal/classify"
	"github.com/lucasmerida/storely-backend/internal/custbalance"
	"github.com/lucasmerida/storely-backend/internal/notifications"
	"github.com/lucasmerida/storely-backend/internal/orders"
	"github.com/lucasmerida/storely-backend/internal/paymentmethods"
	"github.com/lucasmerida/storely-backend/internal/products"
	"github.com/lucasmerida/storely-backend/internal/reservations"
	"github.com/lucasmerida/storely-backend/internal/settlement"
	"github.com/lucasmerida/storely-backend/internal/storeledger"
	"github.com/lucasmerida/storely-backend/internal/stores"
	"github.com/lucasmerida/storely-backend/pkg/config"
	"github.com/lucasmerida/storely-backend/pkg/db"
	"github.com/lucasmerida/storely-backend/pkg/i18n"
	"github.com/lucasmerida/storely-backend/pkg/logger"
	"github.com/lucasmerida/storely-backend/pkg/metrics"
	"github.com/lucasmerida/storely-backend/pkg/migrate"
	"github.com/lucasmerida/storely-backend/pkg/outbox"
	"github.com/lucasmerida/storely-backend/pkg/redis"
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

	printer := i18n.New(cfg.App.Locale)

	gormDB := dbClient.DB()
	orderService, err := orders.NewService(orders.NewRepository(gormDB))
	exitOn(logg, "order service", err)
	storeService, err := stores.NewService(stores.NewRepository(gormDB))
	exitOn(logg, "store service", err)
	methodService, err := paymentmethods.NewService(paymentmethods.NewRepository(gormDB))
	exitOn(logg, "payment method service", err)
	balanceService, err := custbalance.NewService(custbalance.NewRepository(gormDB))
	exitOn(logg, "customer balance service", err)
	ledgerService, err := storeledger.NewService(storeledger.NewRepository(gormDB))
	exitOn(logg, "store ledger service", err)
	productService, err := products.NewService(products.NewRepository(gormDB))
	exitOn(logg, "product service", err)
	notificationService, err := notifications.NewService(notifications.NewRepository(gormDB))
	exitOn(logg, "notification service", err)

	reservationRepo := reservations.NewRepository(gormDB)
	classifier, err := classify.NewService(productService, reservationRepo, logg)
	exitOn(logg, "order classifier", err)

	outboxService := outbox.NewService(outbox.NewRepository(gormDB), logg)

	reservationService, err := reservations.NewService(
		reservationRepo,
		orderService,
		storeService,
		methodService,
		balanceService,
		ledgerService,
		outboxService,
		dbClient,
		printer,
		logg,
	)
	exitOn(logg, "reservation service", err)

	promRegistry := prometheus.NewRegistry()
	settlementMetrics := metrics.NewSettlementMetrics(promRegistry)

	settlementService, err := settlement.NewService(settlement.Deps{
		Orders:       orderService,
		Stores:       storeService,
		Methods:      methodService,
		Ledger:       ledgerService,
		Balances:     balanceService,
		Reservations: reservationService,
		Classifier:   classifier,
		Events:       outboxService,
		Tx:           dbClient,
		Metrics:      settlementMetrics,
		Printer:      printer,
		Logger:       logg,
	})
	exitOn(logg, "settlement service", err)

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
			promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}),
			settlementService,
			reservationService,
			notificationService,
		),
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		<-shutdownCtx.Done()
		graceCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(graceCtx); err != nil {
			logg.Error(ctx, "server shutdown failed", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "api server shut down gracefully")
}

func exitOn(logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), "failed to create "+resource, err)
	os.Exit(1)
}
