package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vichar-ai/vichar-backend/api/controllers"
	"github.com/vichar-ai/vichar-backend/api/middleware"
	"github.com/vichar-ai/vichar-backend/internal/analysis"
	"github.com/vichar-ai/vichar-backend/internal/auth"
	"github.com/vichar-ai/vichar-backend/internal/credits"
	"github.com/vichar-ai/vichar-backend/internal/payments"
	"github.com/vichar-ai/vichar-backend/internal/subscriptions"
	"github.com/vichar-ai/vichar-backend/pkg/auth/session"
	"github.com/vichar-ai/vichar-backend/pkg/config"
	"github.com/vichar-ai/vichar-backend/pkg/db"
	"github.com/vichar-ai/vichar-backend/pkg/logger"
	"github.com/vichar-ai/vichar-backend/pkg/metrics"
	"github.com/vichar-ai/vichar-backend/pkg/redis"
)

// RouterParams bundles everything the HTTP surface needs. Nil optional
// dependencies (redis, metrics, pingers) disable the matching middleware
// instead of failing, so the memory-store dev profile can run bare.
type RouterParams struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    *redis.Client
	Sessions session.AccessSessionChecker
	Metrics  *metrics.LedgerMetrics
	Gatherer prometheus.Gatherer

	Auth          auth.Service
	Credits       credits.Service
	Subscriptions subscriptions.Service
	Payments      payments.Service
	Analysis      analysis.Service
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)
	if p.Metrics != nil {
		r.Use(middleware.HTTPMetrics(p.Metrics))
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, redisPinger(p.Redis)))
	})

	if p.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(middleware.Idempotency(idempotencyStore(p.Redis), logg))
		r.With(middleware.AuthRateLimit(loginPolicy, rateLimitStore(p.Redis), logg)).
			Post("/login", controllers.AuthLogin(p.Auth, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, rateLimitStore(p.Redis), logg)).
			Post("/register", controllers.AuthRegister(p.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(p.Auth, logg))
		r.With(middleware.Auth(cfg.JWT, p.Sessions, logg)).
			Post("/logout", controllers.AuthLogout(p.Auth, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.Sessions, logg))
		r.Use(middleware.Idempotency(idempotencyStore(p.Redis), logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/credits", func(r chi.Router) {
			r.Get("/balance", controllers.CreditBalance(p.Credits, logg))
			r.Post("/use", controllers.CreditUse(p.Credits, logg))
			r.Get("/history", controllers.CreditHistory(p.Credits, logg))
			r.Get("/packages", controllers.CreditPackages())
			r.Get("/orders", controllers.CreditOrders(p.Payments, logg))
			r.Post("/create-order", controllers.CreditCreateOrder(p.Payments, logg))
			r.Post("/verify-payment", controllers.CreditVerifyPayment(p.Payments, logg))
		})

		r.Route("/subscription", func(r chi.Router) {
			r.Get("/status", controllers.SubscriptionStatus(p.Subscriptions, logg))
			r.Get("/plans", controllers.SubscriptionPlans())
			r.Post("/create-order", controllers.SubscriptionCreateOrder(p.Payments, logg))
			r.Post("/verify-payment", controllers.SubscriptionVerifyPayment(p.Payments, logg))
		})

		r.Route("/analysis", func(r chi.Router) {
			r.Post("/", controllers.Analyze(p.Analysis, logg))
			r.Get("/models", controllers.AnalysisModels(p.Analysis))
		})
	})

	return r
}

// A nil *redis.Client must stay a nil interface, otherwise the middleware
// would call methods on it instead of disabling itself.
func idempotencyStore(client *redis.Client) redis.IdempotencyStore {
	if client == nil {
		return nil
	}
	return client
}

func rateLimitStore(client *redis.Client) middleware.RateLimiterStore {
	if client == nil {
		return nil
	}
	return client
}

func redisPinger(client *redis.Client) redis.Pinger {
	if client == nil {
		return nil
	}
	return client
}
