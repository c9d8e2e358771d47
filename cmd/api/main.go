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

	"github.com/vichar-ai/vichar-backend/api/routes"
	"github.com/vichar-ai/vichar-backend/internal/analysis"
	"github.com/vichar-ai/vichar-backend/internal/auth"
	"github.com/vichar-ai/vichar-backend/internal/credits"
	"github.com/vichar-ai/vichar-backend/internal/payments"
	"github.com/vichar-ai/vichar-backend/internal/subscriptions"
	"github.com/vichar-ai/vichar-backend/internal/users"
	"github.com/vichar-ai/vichar-backend/pkg/auth/session"
	"github.com/vichar-ai/vichar-backend/pkg/config"
	"github.com/vichar-ai/vichar-backend/pkg/db"
	"github.com/vichar-ai/vichar-backend/pkg/logger"
	"github.com/vichar-ai/vichar-backend/pkg/metrics"
	"github.com/vichar-ai/vichar-backend/pkg/migrate"
	"github.com/vichar-ai/vichar-backend/pkg/razorpay"
	"github.com/vichar-ai/vichar-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

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

	registry := prometheus.NewRegistry()
	ledgerMetrics := metrics.NewLedgerMetrics(registry)

	var (
		dbClient    *db.Client
		creditStore credits.Store
		userRepo    users.Repository
		subRepo     subscriptions.Repository
		orderRepo   payments.OrderRepository
	)

	if cfg.FeatureFlags.UseMemoryStore {
		logg.Warn(context.Background(), "memory store enabled, state is lost on restart")
		creditStore = credits.NewMemoryStore()
		userRepo = users.NewMemoryRepository()
		subRepo = subscriptions.NewMemoryRepository()
		orderRepo = payments.NewMemoryOrderRepository()
	} else {
		dbClient, err = db.New(context.Background(), cfg.DB, cfg.FeatureFlags, logg)
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

		creditStore, err = credits.NewGormStore(dbClient.DB())
		if err != nil {
			logg.Error(context.Background(), "failed to create credit store", err)
			os.Exit(1)
		}
		userRepo = users.NewRepository(dbClient.DB())
		subRepo = subscriptions.NewRepository(dbClient.DB())
		orderRepo = payments.NewOrderRepository(dbClient.DB())
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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	creditService, err := credits.NewService(credits.ServiceParams{
		Store:       creditStore,
		Metrics:     ledgerMetrics,
		SignupGrant: cfg.Credits.SignupGrant,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create credit service", err)
		os.Exit(1)
	}

	subscriptionService, err := subscriptions.NewService(subscriptions.ServiceParams{
		Repo:   subRepo,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create subscription service", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		Credits:        creditService,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	analysisService, err := analysis.NewService(analysis.ServiceParams{
		Provider:      analysis.EchoProvider{},
		Credits:       creditService,
		Subscriptions: subscriptionService,
		Logger:        logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create analysis service", err)
		os.Exit(1)
	}

	var paymentService payments.Service
	if cfg.Razorpay.Enabled() {
		gateway, err := razorpay.NewClient(context.Background(), cfg.Razorpay, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create payment gateway client", err)
			os.Exit(1)
		}
		paymentService, err = payments.NewService(payments.ServiceParams{
			Gateway:       gateway,
			Orders:        orderRepo,
			Credits:       creditService,
			Subscriptions: subscriptionService,
			Metrics:       ledgerMetrics,
			Logger:        logg,
		})
		if err != nil {
			logg.Error(context.Background(), "failed to create payment service", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "razorpay credentials missing, purchase routes disabled")
	}

	var dbPinger db.Pinger
	if dbClient != nil {
		dbPinger = dbClient
	}

	handler := routes.NewRouter(routes.RouterParams{
		Config:        cfg,
		Logger:        logg,
		DB:            dbPinger,
		Redis:         redisClient,
		Sessions:      sessionManager,
		Metrics:       ledgerMetrics,
		Gatherer:      registry,
		Auth:          authService,
		Credits:       creditService,
		Subscriptions: subscriptionService,
		Payments:      paymentService,
		Analysis:      analysisService,
	})

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
		Addr:    addr,
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}
}
