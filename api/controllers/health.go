package controllers

import (
	"context"
	"net/http"

	"github.com/DenysVerbitskyi/verba-store/api/responses"
	"github.com/DenysVerbitskyi/verba-store/pkg/config"
	pkgerrors "github.com/DenysVerbitskyi/verba-store/pkg/errors"
	"github.com/DenysVerbitskyi/verba-store/pkg/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Verba-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports readiness only when the database answers.
func HealthReady(cfg *config.Config, db pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Verba-Env", cfg.App.Env)

		if db != nil {
			if err := db.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unavailable"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
