package controllers

import (
	"net/http"

	"github.com/Roxxy17/storefront-gateway/api/responses"
	"github.com/Roxxy17/storefront-gateway/pkg/config"
	pkgerrors "github.com/Roxxy17/storefront-gateway/pkg/errors"
	"github.com/Roxxy17/storefront-gateway/pkg/logger"
	"github.com/Roxxy17/storefront-gateway/pkg/redis"
)

const envHeader = "X-Storefront-Env"

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, redisClient redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		if redisClient != nil {
			if err := redisClient.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis not ready"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
