package controllers

import (
	"net/http"

	"github.com/tmrivera/cardhaven-backend/api/responses"
	"github.com/tmrivera/cardhaven-backend/pkg/config"
	pkgerrors "github.com/tmrivera/cardhaven-backend/pkg/errors"
	"github.com/tmrivera/cardhaven-backend/pkg/logger"
	"github.com/tmrivera/cardhaven-backend/pkg/redis"
)

const envHeader = "X-CardHaven-Env"

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		if redisP == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "redis not configured"))
			return
		}
		if err := redisP.Ping(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unavailable"))
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
