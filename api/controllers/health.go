package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/vichar-ai/vichar-backend/api/responses"
	"github.com/vichar-ai/vichar-backend/pkg/config"
	"github.com/vichar-ai/vichar-backend/pkg/db"
	pkgerrors "github.com/vichar-ai/vichar-backend/pkg/errors"
	"github.com/vichar-ai/vichar-backend/pkg/logger"
	"github.com/vichar-ai/vichar-backend/pkg/redis"
)

const readinessTimeout = 3 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Vichar-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the backing stores. A nil pinger is treated as "not
// wired" and skipped, which keeps memory-store deployments green.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Vichar-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := map[string]string{}

		if dbP != nil {
			if err := dbP.Ping(ctx); err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unavailable"))
				return
			}
			checks["database"] = "ok"
		}
		if redisP != nil {
			if err := redisP.Ping(ctx); err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unavailable"))
				return
			}
			checks["redis"] = "ok"
		}

		checks["status"] = "ready"
		responses.WriteSuccess(w, checks)
	}
}
