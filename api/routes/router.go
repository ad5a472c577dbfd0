package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lromeroa/grocerly-backend/api/controllers"
	"github.com/lromeroa/grocerly-backend/api/middleware"
	"github.com/lromeroa/grocerly-backend/internal/auth"
	"github.com/lromeroa/grocerly-backend/internal/cart"
	"github.com/lromeroa/grocerly-backend/internal/catalog"
	"github.com/lromeroa/grocerly-backend/internal/customers"
	"github.com/lromeroa/grocerly-backend/internal/orders"
	"github.com/lromeroa/grocerly-backend/pkg/config"
	"github.com/lromeroa/grocerly-backend/pkg/db"
	"github.com/lromeroa/grocerly-backend/pkg/enums"
	"github.com/lromeroa/grocerly-backend/pkg/logger"
	"github.com/lromeroa/grocerly-backend/pkg/metrics"
	"github.com/lromeroa/grocerly-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient db.Pinger,
	redisClient *redis.Client,
	registry *prometheus.Registry,
	httpMetrics *metrics.HTTPMetrics,
	authService auth.Service,
	catalogService catalog.Service,
	cartService cart.Service,
	ordersService orders.Service,
	customersService customers.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)
	if httpMetrics != nil {
		r.Use(middleware.Metrics(httpMetrics))
	}

	passthrough := func(next http.Handler) http.Handler { return next }
	loginLimit := passthrough
	registerLimit := passthrough
	if redisClient != nil {
		loginLimit = middleware.AuthRateLimit(middleware.NewAuthRateLimitPolicy(
			"login",
			cfg.AuthRateLimit.LoginWindow,
			cfg.AuthRateLimit.LoginIPLimit,
			cfg.AuthRateLimit.LoginEmailLimit,
		), redisClient, logg)
		registerLimit = middleware.AuthRateLimit(middleware.NewAuthRateLimitPolicy(
			"register",
			cfg.AuthRateLimit.RegisterWindow,
			cfg.AuthRateLimit.RegisterIPLimit,
			cfg.AuthRateLimit.RegisterEmailLimit,
		), redisClient, logg)
	}

	pingers := map[string]db.Pinger{"database": dbClient}
	if redisClient != nil {
		pingers["redis"] = redisClient
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, pingers))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(registerLimit).Post("/register", controllers.Register(authService, logg))
		r.Post("/verify", controllers.VerifyRegistration(authService, logg))
		r.With(loginLimit).Post("/login", controllers.Login(authService, logg))
		r.Post("/force-logout", controllers.ForceLogout(authService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg, enums.ActorTypeCustomer))
			r.Post("/logout", controllers.Logout(authService, logg))
		})
	})

	r.Post("/api/v1/customers/restore", controllers.CustomerRestore(customersService, logg))

	r.Route("/api/v1/catalog", func(r chi.Router) {
		r.Get("/", controllers.CatalogList(catalogService, logg))
		r.Get("/{name}", controllers.CatalogGet(catalogService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg, enums.ActorTypeCustomer))

		r.Route("/cart", func(r chi.Router) {
			r.Post("/items", controllers.CartAddItem(cartService, logg))
			r.Patch("/items/{name}", controllers.CartUpdateItem(cartService, logg))
			r.Delete("/items/{name}", controllers.CartRemoveItem(cartService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.OrderPlace(ordersService, logg))
			r.Get("/history", controllers.OrderHistory(ordersService, logg))
		})

		r.Route("/customers", func(r chi.Router) {
			r.Get("/me", controllers.CustomerMe(customersService, logg))
			r.Patch("/me", controllers.CustomerUpdate(customersService, logg))
			r.Delete("/me", controllers.CustomerDeactivate(customersService, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.With(loginLimit).Post("/auth/login", controllers.AdminLogin(authService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg, enums.ActorTypeAdmin))

			r.Post("/auth/logout", controllers.AdminLogout(authService, logg))

			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.AdminProductList(catalogService, logg))
				r.Post("/", controllers.AdminProductCreate(catalogService, logg))
				r.Post("/import", controllers.AdminProductBulkImport(catalogService, logg))
				r.Get("/highest-priced", controllers.AdminProductHighestPriced(catalogService, logg))
				r.Patch("/{name}", controllers.AdminProductUpdate(catalogService, logg))
			})

			r.Route("/transactions", func(r chi.Router) {
				r.Get("/", controllers.AdminTransactionsList(ordersService, logg))
				r.Get("/summary", controllers.AdminSalesSummary(ordersService, logg))
			})

			r.Get("/orders/placed", controllers.AdminPlacedOrders(ordersService, logg))

			r.Route("/customers", func(r chi.Router) {
				r.Get("/", controllers.AdminCustomersList(customersService, logg))
				r.Post("/{id}/restore", controllers.AdminCustomerRestore(customersService, logg))
			})
		})
	})

	return r
}
