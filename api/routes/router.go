package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lumina-commerce/storefront-backend/api/controllers"
	"github.com/lumina-commerce/storefront-backend/api/middleware"
	"github.com/lumina-commerce/storefront-backend/internal/auth"
	"github.com/lumina-commerce/storefront-backend/internal/catalog"
	"github.com/lumina-commerce/storefront-backend/internal/checkout"
	"github.com/lumina-commerce/storefront-backend/internal/orders"
	"github.com/lumina-commerce/storefront-backend/internal/shopper"
	"github.com/lumina-commerce/storefront-backend/pkg/auth/session"
	"github.com/lumina-commerce/storefront-backend/pkg/config"
	"github.com/lumina-commerce/storefront-backend/pkg/db"
	"github.com/lumina-commerce/storefront-backend/pkg/logger"
	"github.com/lumina-commerce/storefront-backend/pkg/redis"
)

// Deps carries everything the HTTP surface needs. Session-scoped routes run
// behind the shopper-session middleware so every handler can reach the
// device's cart, wishlist and gate; checkout and orders additionally require
// a verified access token.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    redis.Pinger
	Sessions session.AccessSessionChecker
	Registry *prometheus.Registry

	Shoppers *shopper.Manager
	Auth     auth.Service
	Checkout checkout.Service
	Orders   *orders.Repository
	Catalog  catalog.Catalog
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins...),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DB, deps.Redis, logg))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	authMW := middleware.Auth(cfg.JWT, deps.Sessions, logg)
	sessionMW := middleware.ShopperSession(deps.Shoppers, logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products/{productId}", controllers.ProductDetail(deps.Catalog, logg))

		r.Group(func(r chi.Router) {
			r.Use(sessionMW)

			r.Route("/auth", func(r chi.Router) {
				r.Post("/login", controllers.AuthLogin(deps.Auth, logg))
				r.Post("/refresh", controllers.AuthRefresh(deps.Auth, logg))
				r.With(authMW).Post("/logout", controllers.AuthLogout(deps.Auth, logg))
			})

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(logg))
				r.Post("/items", controllers.CartAddItem(logg))
				r.Put("/items/{variantId}", controllers.CartSetQuantity(logg))
				r.Delete("/items/{variantId}", controllers.CartRemoveItem(logg))
				r.Delete("/", controllers.CartClear(logg))
			})

			r.Route("/wishlist", func(r chi.Router) {
				r.Get("/", controllers.WishlistFetch(logg))
				r.Post("/items", controllers.WishlistAddItem(logg))
				r.Delete("/items/{productId}", controllers.WishlistRemoveItem(logg))
			})

			r.Route("/gate", func(r chi.Router) {
				r.Get("/", controllers.GateStatus(logg))
				r.Post("/decline", controllers.GateDecline(logg))
				r.Post("/cancel", controllers.GateCancel(logg))
			})

			r.With(authMW).Post("/checkout", controllers.Checkout(deps.Checkout, logg))
			r.With(authMW).Get("/orders", controllers.OrdersList(deps.Orders, logg))
		})
	})

	return r
}
