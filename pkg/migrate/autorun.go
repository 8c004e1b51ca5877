package migrate

import (
	"context"

	"github.com/DenysVerbitskyi/verba-store/pkg/config"
	"github.com/DenysVerbitskyi/verba-store/pkg/db"
	"github.com/DenysVerbitskyi/verba-store/pkg/logger"
)

// MaybeRunDev applies pending migrations on startup when the
// auto-migrate feature flag is enabled outside production.
func MaybeRunDev(ctx context.Context, client *db.Client, cfg *config.Config, logg *logger.Logger) {
	if cfg.App.IsProd() || !cfg.FeatureFlags.AutoMigrate {
		return
	}

	sqlDB, err := client.SQLDB()
	if err != nil {
		logg.Error(ctx, "auto-migrate: acquire sql.DB", err)
		return
	}

	if err := Run(ctx, sqlDB, cfg.DB, DefaultDir, "up"); err != nil {
		logg.Error(ctx, "auto-migrate failed", err)
		return
	}
	logg.Info(ctx, "auto-migrate: schema is up to date")
}
