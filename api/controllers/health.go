package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/agrostore-bff/api/responses"
	"github.com/angelmondragon/agrostore-bff/pkg/config"
	pkgerrors "github.com/angelmondragon/agrostore-bff/pkg/errors"
	"github.com/angelmondragon/agrostore-bff/pkg/logger"
)

const envHeader = "X-Agrostore-Env"

type pinger interface {
	Ping(context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the receipt database and Redis. Any failure answers 503.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP, redisP pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		checks := []struct {
			name string
			p    pinger
		}{
			{"database", dbP},
			{"redis", redisP},
		}
		for _, c := range checks {
			if c.p == nil {
				continue
			}
			if err := c.p.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, c.name+" not ready").WithDetails(map[string]string{"check": c.name}))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
