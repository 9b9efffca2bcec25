package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/agrostore-bff/api/controllers"
	"github.com/angelmondragon/agrostore-bff/api/middleware"
	"github.com/angelmondragon/agrostore-bff/internal/catalog"
	checkoutsvc "github.com/angelmondragon/agrostore-bff/internal/checkout"
	"github.com/angelmondragon/agrostore-bff/internal/orders"
	"github.com/angelmondragon/agrostore-bff/pkg/config"
	"github.com/angelmondragon/agrostore-bff/pkg/db"
	"github.com/angelmondragon/agrostore-bff/pkg/logger"
	"github.com/angelmondragon/agrostore-bff/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	gatherer prometheus.Gatherer,
	catalogService catalog.Service,
	cartStore controllers.CartStore,
	checkoutService checkoutsvc.Service,
	ordersService orders.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Recoverer(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	var redisP redis.Pinger
	if redisClient != nil {
		redisP = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	submitGuards := []func(http.Handler) http.Handler{}
	if redisClient != nil {
		submitPolicy := middleware.NewRateLimitPolicy(
			"submit",
			cfg.RateLimit.SubmitWindow,
			cfg.RateLimit.SubmitIPLimit,
			cfg.RateLimit.SubmitSessionLimit,
		)
		submitGuards = append(submitGuards,
			middleware.RateLimit(submitPolicy, redisClient, logg),
			middleware.Idempotency(redisClient, logg),
		)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.CartSession(logg))
		r.Use(middleware.OptionalAuth(cfg.JWT, logg))

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/products", controllers.CatalogProducts(catalogService, logg))
			r.Get("/products/{productId}", controllers.CatalogProduct(catalogService, logg))
			r.Get("/categories", controllers.CatalogCategories(catalogService, logg))
		})
		r.Route("/blog", func(r chi.Router) {
			r.Get("/posts", controllers.BlogPosts(catalogService, logg))
			r.Get("/posts/{slug}", controllers.BlogPost(catalogService, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(cartStore, logg))
			r.Delete("/", controllers.CartClear(cartStore, logg))
			r.Post("/items", controllers.CartAddItem(cartStore, catalogService, logg))
			r.Patch("/items/{productId}", controllers.CartUpdateItem(cartStore, logg))
			r.Delete("/items/{productId}", controllers.CartRemoveItem(cartStore, logg))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Get("/", controllers.CheckoutState(checkoutService, logg))
			r.Delete("/", controllers.CheckoutReset(checkoutService, logg))
			r.Post("/method", controllers.CheckoutSelectMethod(checkoutService, logg))
			r.Post("/quote", controllers.CheckoutQuote(checkoutService, logg))
			r.Post("/shipping-option", controllers.CheckoutShippingOption(checkoutService, logg))
			r.Post("/pickup-point", controllers.CheckoutPickupPoint(checkoutService, logg))
			r.Get("/addresses", controllers.CheckoutSavedAddresses(checkoutService, logg))
			r.Post("/address", controllers.CheckoutAddress(checkoutService, logg))
			r.Post("/saved-address", controllers.CheckoutSavedAddress(checkoutService, logg))
			r.Post("/payment", controllers.CheckoutPayment(checkoutService, logg))
			r.Post("/back", controllers.CheckoutBack(checkoutService, logg))
			r.With(submitGuards...).Post("/submit", controllers.CheckoutSubmit(checkoutService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrdersList(ordersService, logg))
			r.Get("/{orderId}", controllers.OrderDetail(ordersService, logg))
		})
	})

	return r
}
