package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/shopfront-backend/api/controllers"
	"github.com/angelmondragon/shopfront-backend/api/middleware"
	"github.com/angelmondragon/shopfront-backend/internal/activity"
	"github.com/angelmondragon/shopfront-backend/internal/app"
	"github.com/angelmondragon/shopfront-backend/internal/marketplace"
	"github.com/angelmondragon/shopfront-backend/pkg/auth/session"
	"github.com/angelmondragon/shopfront-backend/pkg/config"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
	"github.com/angelmondragon/shopfront-backend/pkg/metrics"
	"github.com/angelmondragon/shopfront-backend/pkg/pagination"
	pkgredis "github.com/angelmondragon/shopfront-backend/pkg/redis"
)

// RedisStore is the slice of the redis client the HTTP layer needs.
type RedisStore interface {
	controllers.Pinger
	pkgredis.IdempotencyStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Deps carries everything NewRouter wires into handlers. Nil services
// surface as 500s from their handlers rather than panics.
type Deps struct {
	DB       controllers.Pinger
	Redis    RedisStore
	Sessions session.AccessSessionChecker
	Services *app.Services
	Metrics  *metrics.ShopMetrics
	Gatherer prometheus.Gatherer
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	svc := deps.Services
	if svc == nil {
		svc = &app.Services{}
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.Metrics),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)
	resetPolicy := middleware.NewAuthRateLimitPolicy(
		"password_reset",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	var idemStore pkgredis.IdempotencyStore
	if deps.Redis != nil {
		idemStore = deps.Redis
	}
	idem := middleware.Idempotency(idemStore, logg)
	requireAuth := middleware.Auth(cfg.JWT, deps.Sessions, logg)
	optionalAuth := middleware.OptionalAuth(cfg.JWT, deps.Sessions, logg)

	pingers := map[string]controllers.Pinger{}
	if deps.DB != nil {
		pingers["db"] = deps.DB
	}
	if deps.Redis != nil {
		pingers["redis"] = deps.Redis
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, pingers))
	})
	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).
				Post("/login", controllers.AuthLogin(svc.Auth, svc.Cart, logg))
			r.With(middleware.AuthRateLimit(registerPolicy, deps.Redis, logg), idem).
				Post("/register", controllers.AuthRegister(svc.Users, svc.Auth, logg))
			r.With(requireAuth).Post("/logout", controllers.AuthLogout(svc.Auth, logg))
			r.Post("/refresh", controllers.AuthRefresh(svc.Auth, logg))
			r.With(middleware.AuthRateLimit(resetPolicy, deps.Redis, logg)).
				Post("/password/reset", controllers.PasswordResetRequest(svc.Users, logg))
			r.Post("/password/reset/confirm", controllers.PasswordResetConfirm(svc.Users, logg))
		})

		// catalog browsing is public; staff tokens unlock inactive items
		r.Group(func(r chi.Router) {
			r.Use(optionalAuth)
			r.Get("/categories", controllers.CategoryList(svc.Catalog, logg))
			r.Get("/categories/tree", controllers.CategoryTree(svc.Catalog, logg))
			r.Get("/categories/{slug}", controllers.CategoryGet(svc.Catalog, logg))
			r.Get("/products", controllers.ProductList(svc.Catalog, logg))
			r.Get("/products/{productRef}", controllers.ProductGet(svc.Catalog, logg))
			r.Get("/products/{productId}/reviews", controllers.ProductReviews(svc.Reviews, logg))
			r.Get("/wishlists/{wishlistId}", controllers.WishlistGet(svc.Wishlists, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(optionalAuth, middleware.CartSession(logg))
			r.Get("/", controllers.CartGet(svc.Cart, logg))
			r.Delete("/", controllers.CartClear(svc.Cart, logg))
			r.With(idem).Post("/items", controllers.CartAddItem(svc.Cart, logg))
			r.Patch("/items/{productId}", controllers.CartUpdateItem(svc.Cart, logg))
			r.Delete("/items/{productId}", controllers.CartRemoveItem(svc.Cart, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Route("/users/me", func(r chi.Router) {
				r.Get("/", controllers.ProfileGet(svc.Users, logg))
				r.Patch("/", controllers.ProfileUpdate(svc.Users, logg))
				r.Post("/password", controllers.ProfileChangePassword(svc.Users, logg))
				r.Get("/activity", controllers.ProfileActivity(activityLister(svc), logg))
				r.Route("/addresses", func(r chi.Router) {
					r.Get("/", controllers.AddressList(svc.Addresses, logg))
					r.Post("/", controllers.AddressCreate(svc.Addresses, logg))
					r.Get("/{addressId}", controllers.AddressGet(svc.Addresses, logg))
					r.Patch("/{addressId}", controllers.AddressUpdate(svc.Addresses, logg))
					r.Delete("/{addressId}", controllers.AddressDelete(svc.Addresses, logg))
				})
			})

			r.Route("/orders", func(r chi.Router) {
				r.With(idem).Post("/", controllers.OrderPlace(svc.Orders, logg))
				r.Get("/", controllers.OrderList(svc.Orders, logg))
				r.Get("/{orderNumber}", controllers.OrderGet(svc.Orders, logg))
			})

			r.With(idem).Post("/products/{productId}/reviews", controllers.ReviewCreate(svc.Reviews, logg))

			r.Route("/wishlists", func(r chi.Router) {
				r.Get("/", controllers.WishlistList(svc.Wishlists, logg))
				r.Post("/", controllers.WishlistCreate(svc.Wishlists, logg))
				r.Patch("/{wishlistId}", controllers.WishlistUpdate(svc.Wishlists, logg))
				r.Delete("/{wishlistId}", controllers.WishlistDelete(svc.Wishlists, logg))
				r.Post("/{wishlistId}/products", controllers.WishlistAddProduct(svc.Wishlists, logg))
				r.Delete("/{wishlistId}/products/{productId}", controllers.WishlistRemoveProduct(svc.Wishlists, logg))
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", controllers.ListNotifications(svc.Notifications, logg))
				r.With(idem).Post("/read-all", controllers.MarkAllNotificationsRead(svc.Notifications, logg))
				r.Post("/{notificationId}/read", controllers.MarkNotificationRead(svc.Notifications, logg))
				r.Post("/{notificationId}/unread", controllers.MarkNotificationUnread(svc.Notifications, logg))
				r.Post("/{notificationId}/archive", controllers.ArchiveNotification(svc.Notifications, logg))
			})

			r.Route("/marketplace", func(r chi.Router) {
				client := marketplaceClient(svc)
				r.Get("/search", controllers.MarketplaceSearch(client, logg))
				r.Get("/products/{listingId}", controllers.MarketplaceDetail(client, logg))
				r.Post("/affiliate-links", controllers.MarketplaceAffiliateLink(client, logg))
			})
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireAuth, middleware.RequireStaff(logg))

			r.Route("/users", func(r chi.Router) {
				r.Get("/", controllers.AdminUserList(svc.Users, logg))
				r.With(idem).Post("/bulk-activate", controllers.AdminUserSetActive(svc.Users, true, logg))
				r.With(idem).Post("/bulk-deactivate", controllers.AdminUserSetActive(svc.Users, false, logg))
				r.Get("/{userId}", controllers.AdminUserGet(svc.Users, logg))
				r.Patch("/{userId}", controllers.AdminUserUpdate(svc.Users, logg))
				r.Delete("/{userId}", controllers.AdminUserDelete(svc.Users, logg))
				r.Get("/{userId}/activity", controllers.AdminUserActivity(activityLister(svc), logg))
			})

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", controllers.CategoryList(svc.Catalog, logg))
				r.Post("/", controllers.AdminCategoryCreate(svc.Catalog, logg))
				r.Patch("/{categoryId}", controllers.AdminCategoryUpdate(svc.Catalog, logg))
				r.Delete("/{categoryId}", controllers.AdminCategoryDelete(svc.Catalog, logg))
			})

			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.ProductList(svc.Catalog, logg))
				r.Post("/", controllers.AdminProductCreate(svc.Catalog, logg))
				r.Patch("/{productId}", controllers.AdminProductUpdate(svc.Catalog, logg))
				r.Delete("/{productId}", controllers.AdminProductDelete(svc.Catalog, logg))
				r.Post("/{productId}/stock", controllers.AdminProductAdjustStock(svc.Catalog, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.AdminOrderList(svc.Orders, logg))
				r.With(idem).Post("/bulk-status", controllers.AdminOrderBulkStatus(svc.Orders, logg))
				r.With(idem).Post("/bulk-payment-status", controllers.AdminOrderBulkPaymentStatus(svc.Orders, logg))
				r.Get("/{orderId}", controllers.AdminOrderGet(svc.Orders, logg))
				r.Post("/{orderId}/status", controllers.AdminOrderUpdateStatus(svc.Orders, logg))
				r.Post("/{orderId}/payment-status", controllers.AdminOrderUpdatePaymentStatus(svc.Orders, logg))
				r.Post("/{orderId}/tracking", controllers.AdminOrderSetTracking(svc.Orders, logg))
			})

			r.Route("/reviews", func(r chi.Router) {
				r.Get("/", controllers.AdminReviewList(svc.Reviews, logg))
				r.With(idem).Post("/moderate", controllers.AdminReviewModerate(svc.Reviews, logg))
				r.Delete("/{reviewId}", controllers.AdminReviewDelete(svc.Reviews, logg))
			})

			r.Post("/notifications", controllers.AdminSendNotification(svc.Notifications, logg))
		})
	})

	return r
}

type activityReader interface {
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*pagination.Page[activity.ActivityDTO], error)
}

type marketplaceReader interface {
	Search(ctx context.Context, keywords string, prices marketplace.PriceRange, limit int) []marketplace.Listing
	Detail(ctx context.Context, id string) *marketplace.Listing
	AffiliateLink(ctx context.Context, productURL string) string
}

// activityLister and marketplaceClient keep a missing pointer from turning
// into a non-nil interface.
func activityLister(svc *app.Services) activityReader {
	if svc.Activity == nil {
		return nil
	}
	return svc.Activity
}

func marketplaceClient(svc *app.Services) marketplaceReader {
	if svc.Marketplace == nil {
		return nil
	}
	return svc.Marketplace
}
