package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DenysVerbitskyi/verba-store/api/controllers"
	"github.com/DenysVerbitskyi/verba-store/api/middleware"
	authsvc "github.com/DenysVerbitskyi/verba-store/internal/auth"
	cartsvc "github.com/DenysVerbitskyi/verba-store/internal/cart"
	"github.com/DenysVerbitskyi/verba-store/internal/catalog"
	mediasvc "github.com/DenysVerbitskyi/verba-store/internal/media"
	ordersvc "github.com/DenysVerbitskyi/verba-store/internal/orders"
	productsvc "github.com/DenysVerbitskyi/verba-store/internal/products"
	"github.com/DenysVerbitskyi/verba-store/internal/verification"
	"github.com/DenysVerbitskyi/verba-store/pkg/config"
	"github.com/DenysVerbitskyi/verba-store/pkg/db"
	"github.com/DenysVerbitskyi/verba-store/pkg/logger"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config       *config.Config
	Logger       *logger.Logger
	DB           *db.Client
	RateLimiter  middleware.RateLimiterStore
	Registry     *prometheus.Registry
	AuthService  *authsvc.Service
	Verification *verification.Service
	Catalog      *catalog.Service
	Products     *productsvc.Service
	Cart         *cartsvc.Service
	Orders       *ordersvc.Service
	Media        *mediasvc.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	codeRequestPolicy := middleware.NewAuthRateLimitPolicy(
		"code_request",
		cfg.AuthRateLimit.CodeRequestWindow,
		cfg.AuthRateLimit.CodeRequestIPLimit,
		cfg.AuthRateLimit.CodeRequestEmailLimit,
	)
	codeVerifyPolicy := middleware.NewAuthRateLimitPolicy(
		"code_verify",
		cfg.AuthRateLimit.CodeVerifyWindow,
		cfg.AuthRateLimit.CodeVerifyIPLimit,
		cfg.AuthRateLimit.CodeVerifyEmailLimit,
	)
	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DB, logg))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/categories", controllers.ListCategories(deps.Catalog, logg))
		r.Get("/products", controllers.ListProducts(deps.Products, logg))
		r.Get("/products/{productId}", controllers.GetProduct(deps.Products, logg))
		r.Post("/cart/quote", controllers.QuoteCart(deps.Cart, logg))
		r.Post("/orders", controllers.Checkout(deps.Orders, logg))

		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(codeRequestPolicy, deps.RateLimiter, logg)).
				Post("/request-code", controllers.RequestVerificationCode(deps.Verification, logg))
			r.With(middleware.AuthRateLimit(codeVerifyPolicy, deps.RateLimiter, logg)).
				Post("/verify-code", controllers.VerifyCode(deps.Verification, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.CustomerAuth(cfg.JWT, logg))
			r.Get("/my-orders", controllers.MyOrders(deps.Orders, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(loginPolicy, deps.RateLimiter, logg)).
				Post("/login", controllers.AdminLogin(deps.AuthService, logg))
			if !cfg.App.IsProd() || cfg.FeatureFlags.AllowRegister {
				r.Post("/register", controllers.AdminRegister(deps.AuthService, logg))
			}
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.AdminAuth(cfg.JWT, logg))

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", controllers.ListCategories(deps.Catalog, logg))
				r.Post("/", controllers.AdminCreateCategory(deps.Catalog, logg))
				r.Put("/{categoryId}", controllers.AdminUpdateCategory(deps.Catalog, logg))
				r.Delete("/{categoryId}", controllers.AdminDeleteCategory(deps.Catalog, logg))
			})

			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.ListProducts(deps.Products, logg))
				r.Get("/{productId}", controllers.GetProduct(deps.Products, logg))
				r.Post("/", controllers.AdminCreateProduct(deps.Products, logg))
				r.Patch("/{productId}", controllers.AdminUpdateProduct(deps.Products, logg))
				r.Delete("/{productId}", controllers.AdminDeleteProduct(deps.Products, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.AdminListOrders(deps.Orders, logg))
				r.Get("/{orderId}", controllers.AdminGetOrder(deps.Orders, logg))
				r.Patch("/{orderId}/status", controllers.AdminUpdateOrderStatus(deps.Orders, logg))
				r.Delete("/{orderId}", controllers.AdminDeleteOrder(deps.Orders, logg))
			})

			r.Post("/media/images", controllers.AdminUploadImage(deps.Media, logg))
		})
	})

	// Uploaded product images are served straight off disk.
	if cfg.Media.UploadDir != "" {
		fileServer := http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.Media.UploadDir)))
		r.Get("/uploads/*", fileServer.ServeHTTP)
	}

	return r
}
