package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/storefront-labs/storefront-backend/api/controllers"
	admincontrollers "github.com/storefront-labs/storefront-backend/api/controllers/admin"
	cartcontrollers "github.com/storefront-labs/storefront-backend/api/controllers/cart"
	commentcontrollers "github.com/storefront-labs/storefront-backend/api/controllers/comments"
	ordercontrollers "github.com/storefront-labs/storefront-backend/api/controllers/orders"
	productcontrollers "github.com/storefront-labs/storefront-backend/api/controllers/products"
	reviewcontrollers "github.com/storefront-labs/storefront-backend/api/controllers/reviews"
	"github.com/storefront-labs/storefront-backend/api/middleware"
	"github.com/storefront-labs/storefront-backend/internal/cart"
	"github.com/storefront-labs/storefront-backend/internal/checkout"
	"github.com/storefront-labs/storefront-backend/internal/comments"
	"github.com/storefront-labs/storefront-backend/internal/orders"
	product "github.com/storefront-labs/storefront-backend/internal/products"
	"github.com/storefront-labs/storefront-backend/internal/ratings"
	"github.com/storefront-labs/storefront-backend/internal/reviews"
	"github.com/storefront-labs/storefront-backend/pkg/config"
	"github.com/storefront-labs/storefront-backend/pkg/enums"
	"github.com/storefront-labs/storefront-backend/pkg/logger"
	"github.com/storefront-labs/storefront-backend/pkg/metrics"
	"github.com/storefront-labs/storefront-backend/pkg/redis"
)

// Dependencies is everything the HTTP surface needs. Redis may be nil, in
// which case idempotency and write rate limiting are disabled.
type Dependencies struct {
	Config      *config.Config
	Logger      *logger.Logger
	Redis       *redis.Client
	Health      map[string]controllers.Pinger
	HTTPMetrics *metrics.HTTPMetrics
	Gatherer    prometheus.Gatherer

	Products product.Service
	Cart     cart.Service
	Checkout checkout.Service
	Orders   orders.Service
	Ratings  ratings.Service
	Reviews  reviews.Service
	Comments comments.Service
}

func NewRouter(deps Dependencies) http.Handler {
	cfg, logg := deps.Config, deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID(logg),
		middleware.Recoverer(logg),
		middleware.Logging(logg, deps.HTTPMetrics),
		middleware.CORS(cfg.App.AllowedOrigins()),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive())
		r.Get("/ready", controllers.HealthReady(deps.Health, logg))
	})
	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	idempotent := idempotency(deps)
	writeLimited := writeRateLimit(deps)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Get("/products", productcontrollers.List(deps.Products, logg))
			r.Get("/products/{productId}", productcontrollers.Detail(deps.Products, logg))
			r.Get("/products/{productId}/reviews", reviewcontrollers.ProductReviews(deps.Reviews, logg))
			r.Get("/products/{productId}/comments", commentcontrollers.Thread(deps.Comments, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartcontrollers.View(deps.Cart, logg))
				r.Delete("/", cartcontrollers.Clear(deps.Cart, logg))
				r.Post("/items", cartcontrollers.AddItem(deps.Cart, logg))
				r.Put("/items/{itemId}", cartcontrollers.UpdateQuantity(deps.Cart, logg))
				r.Patch("/items/{itemId}/selection", cartcontrollers.ToggleSelection(deps.Cart, logg))
				r.Delete("/items/{itemId}", cartcontrollers.RemoveItem(deps.Cart, logg))
				r.Post("/select-all", cartcontrollers.SelectAll(deps.Cart, logg))
				r.Post("/unselect-all", cartcontrollers.UnselectAll(deps.Cart, logg))
				r.Patch("/status", cartcontrollers.UpdateStatus(deps.Cart, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", ordercontrollers.List(deps.Orders, logg))
				r.Get("/statistics", ordercontrollers.Statistics(deps.Orders, logg))
				r.Get("/{orderId}", ordercontrollers.Detail(deps.Orders, logg))
				r.With(idempotent).Post("/checkout", ordercontrollers.Checkout(deps.Checkout, logg))
				r.With(idempotent).Post("/buy-now", ordercontrollers.BuyNow(deps.Checkout, logg))
				r.With(idempotent).Post("/{orderId}/cancel", ordercontrollers.Cancel(deps.Orders, logg))
				r.With(idempotent).Post("/{orderId}/rate", ordercontrollers.Rate(deps.Ratings, logg))
			})

			r.With(writeLimited).Post("/products/{productId}/reviews", reviewcontrollers.Submit(deps.Reviews, logg))
			r.With(writeLimited).Post("/products/{productId}/comments", commentcontrollers.Create(deps.Comments, logg))

			r.Route("/reviews/{reviewId}", func(r chi.Router) {
				r.Put("/", reviewcontrollers.Update(deps.Reviews, logg))
				r.Delete("/", reviewcontrollers.Delete(deps.Reviews, logg))
				r.Get("/can-edit", reviewcontrollers.CanEdit(deps.Reviews, logg))
			})
			r.Delete("/comments/{commentId}", commentcontrollers.Delete(deps.Comments, logg))

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.RoleAdmin))
				r.Route("/orders", func(r chi.Router) {
					r.Get("/", admincontrollers.ListOrders(deps.Orders, logg))
					r.Get("/{orderId}", admincontrollers.OrderDetail(deps.Orders, logg))
					r.Patch("/{orderId}/status", admincontrollers.UpdateOrderStatus(deps.Orders, logg))
					r.Patch("/{orderId}/payment-status", admincontrollers.UpdatePaymentStatus(deps.Orders, logg))
				})
				r.Route("/products", func(r chi.Router) {
					r.Post("/", admincontrollers.CreateProduct(deps.Products, logg))
					r.Put("/{productId}", admincontrollers.UpdateProduct(deps.Products, logg))
					r.Delete("/{productId}", admincontrollers.DeleteProduct(deps.Products, logg))
				})
				r.Route("/reviews", func(r chi.Router) {
					r.Get("/", admincontrollers.ListReviews(deps.Reviews, logg))
					r.Patch("/{reviewId}/status", admincontrollers.UpdateReviewStatus(deps.Reviews, logg))
					r.Put("/{reviewId}/response", admincontrollers.RespondToReview(deps.Reviews, logg))
				})
			})
		})
	})

	return r
}

func passThrough(next http.Handler) http.Handler {
	return next
}

func idempotency(deps Dependencies) func(http.Handler) http.Handler {
	if deps.Redis == nil {
		return passThrough
	}
	return middleware.Idempotency(deps.Redis, deps.Config.Idempotency.TTL, deps.Logger)
}

func writeRateLimit(deps Dependencies) func(http.Handler) http.Handler {
	if deps.Redis == nil {
		return passThrough
	}
	rl := deps.Config.RateLimit
	return middleware.WriteRateLimit("content_write", rl.WriteLimit, rl.WriteWindow, deps.Redis, deps.Logger)
}
