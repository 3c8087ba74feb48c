package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tmrivera/cardhaven-backend/api/controllers"
	cartcontrollers "github.com/tmrivera/cardhaven-backend/api/controllers/cart"
	"github.com/tmrivera/cardhaven-backend/api/middleware"
	"github.com/tmrivera/cardhaven-backend/pkg/config"
	"github.com/tmrivera/cardhaven-backend/pkg/logger"
	"github.com/tmrivera/cardhaven-backend/pkg/redis"
)

// NewRouter wires the HTTP surface of the storefront backend.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	redisClient *redis.Client,
	carts cartcontrollers.ManagerProvider,
	searchService controllers.SearchService,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, redisClient))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/carts/{cartID}", func(r chi.Router) {
			r.Get("/", cartcontrollers.GetCart(carts, logg))
			r.Delete("/", cartcontrollers.ClearCart(carts, logg))
			r.Get("/stats", cartcontrollers.GetStats(carts, logg))
			r.Get("/notifications", cartcontrollers.GetNotifications(carts, logg))
			r.Post("/checkout-complete", cartcontrollers.CheckoutComplete(carts, logg))

			r.Post("/items", cartcontrollers.AddItem(carts, logg))
			r.Patch("/items/{productID}/{condition}", cartcontrollers.UpdateQuantity(carts, logg))
			r.Delete("/items/{productID}/{condition}", cartcontrollers.RemoveItem(carts, logg))
		})

		searchLimiter := middleware.SearchRateLimit(
			redisClient,
			cfg.Search.RateLimit,
			cfg.Search.RateLimitWindow,
			logg,
		)
		r.With(searchLimiter).Get("/search/autocomplete", controllers.SearchAutocomplete(searchService, logg))
		r.With(searchLimiter).Get("/search/filter-counts", controllers.SearchFilterCounts(searchService, logg))
	})

	return r
}
