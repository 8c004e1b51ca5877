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
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/DenysVerbitskyi/verba-store/api/middleware"
	"github.com/DenysVerbitskyi/verba-store/api/routes"
	authsvc "github.com/DenysVerbitskyi/verba-store/internal/auth"
	cartsvc "github.com/DenysVerbitskyi/verba-store/internal/cart"
	"github.com/DenysVerbitskyi/verba-store/internal/catalog"
	"github.com/DenysVerbitskyi/verba-store/internal/mailer"
	mediasvc "github.com/DenysVerbitskyi/verba-store/internal/media"
	ordersvc "github.com/DenysVerbitskyi/verba-store/internal/orders"
	productsvc "github.com/DenysVerbitskyi/verba-store/internal/products"
	"github.com/DenysVerbitskyi/verba-store/internal/verification"
	"github.com/DenysVerbitskyi/verba-store/pkg/config"
	"github.com/DenysVerbitskyi/verba-store/pkg/db"
	"github.com/DenysVerbitskyi/verba-store/pkg/logger"
	"github.com/DenysVerbitskyi/verba-store/pkg/metrics"
	"github.com/DenysVerbitskyi/verba-store/pkg/migrate"
	"github.com/DenysVerbitskyi/verba-store/pkg/redis"
)

const (
	shutdownTimeout   = 15 * time.Second
	codeSweepInterval = 10 * time.Minute
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

	migrate.MaybeRunDev(context.Background(), dbClient, cfg, logg)

	var rateLimiter middleware.RateLimiterStore
	if cfg.Redis.Enabled() {
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
		rateLimiter = redisClient
	} else {
		logg.Warn(context.Background(), "redis not configured, auth rate limiting disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	storeMetrics := metrics.NewStoreMetrics(registry)

	mail := mailer.New(cfg.SMTP, logg)

	authService, err := authsvc.NewService(authsvc.ServiceParams{
		Repo:          authsvc.NewRepository(dbClient.DB()),
		JWT:           cfg.JWT,
		Password:      cfg.Password,
		AllowRegister: !cfg.App.IsProd() || cfg.FeatureFlags.AllowRegister,
		Logger:        logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	verificationService, err := verification.NewService(verification.ServiceParams{
		Repo:    verification.NewRepository(dbClient.DB()),
		Sender:  mail,
		JWT:     cfg.JWT,
		CodeTTL: cfg.Verification.CodeTTL,
		Metrics: storeMetrics,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create verification service", err)
		os.Exit(1)
	}

	catalogRepo := catalog.NewRepository(dbClient.DB())
	catalogService, err := catalog.NewService(catalog.ServiceParams{Repo: catalogRepo})
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	mediaService, err := mediasvc.NewService(mediasvc.ServiceParams{
		Config: cfg.Media,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create media service", err)
		os.Exit(1)
	}

	productRepo := productsvc.NewRepository(dbClient.DB())
	productService, err := productsvc.NewService(productsvc.ServiceParams{
		Repo:       productRepo,
		Categories: catalogRepo,
		Images:     mediaService,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	cartService, err := cartsvc.NewService(cartsvc.ServiceParams{Products: productRepo})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	orderService, err := ordersvc.NewService(ordersvc.ServiceParams{
		Repo:     ordersvc.NewRepository(dbClient.DB()),
		Products: productRepo,
		Tx:       dbClient,
		Notifier: mail,
		Metrics:  storeMetrics,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go sweepExpiredCodes(sweepCtx, verificationService, logg)

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
		Handler: routes.NewRouter(routes.Deps{
			Config:       cfg,
			Logger:       logg,
			DB:           dbClient,
			RateLimiter:  rateLimiter,
			Registry:     registry,
			AuthService:  authService,
			Verification: verificationService,
			Catalog:      catalogService,
			Products:     productService,
			Cart:         cartService,
			Orders:       orderService,
			Media:        mediaService,
		}),
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

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

// sweepExpiredCodes periodically purges stale verification codes so the
// table does not accumulate rows for emails that never verified.
func sweepExpiredCodes(ctx context.Context, svc *verification.Service, logg *logger.Logger) {
	ticker := time.NewTicker(codeSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := svc.CleanupExpired(ctx)
			if err != nil {
				logg.Error(ctx, "expired code sweep failed", err)
				continue
			}
			if removed > 0 {
				logg.Info(logg.WithField(ctx, "removed", removed), "expired verification codes purged")
			}
		}
	}
}
