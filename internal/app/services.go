// Package app builds the service graph shared by the API server and shopctl.
package app

import (
	"fmt"

	"github.com/angelmondragon/shopfront-backend/internal/activity"
	"github.com/angelmondragon/shopfront-backend/internal/addresses"
	"github.com/angelmondragon/shopfront-backend/internal/auth"
	"github.com/angelmondragon/shopfront-backend/internal/cart"
	"github.com/angelmondragon/shopfront-backend/internal/catalog"
	"github.com/angelmondragon/shopfront-backend/internal/marketplace"
	"github.com/angelmondragon/shopfront-backend/internal/notifications"
	"github.com/angelmondragon/shopfront-backend/internal/orders"
	"github.com/angelmondragon/shopfront-backend/internal/reviews"
	"github.com/angelmondragon/shopfront-backend/internal/users"
	"github.com/angelmondragon/shopfront-backend/internal/wishlist"
	"github.com/angelmondragon/shopfront-backend/pkg/auth/session"
	"github.com/angelmondragon/shopfront-backend/pkg/config"
	"github.com/angelmondragon/shopfront-backend/pkg/db"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
	"github.com/angelmondragon/shopfront-backend/pkg/metrics"
	"github.com/angelmondragon/shopfront-backend/pkg/outbox"
	"github.com/angelmondragon/shopfront-backend/pkg/redis"
)

// Deps are the process-level clients every service hangs off.
type Deps struct {
	Config  *config.Config
	Logger  *logger.Logger
	DB      *db.Client
	Redis   *redis.Client
	Metrics *metrics.ShopMetrics
}

// Services is the wired set of domain services.
type Services struct {
	Activity      *activity.Service
	Notifications notifications.Service
	Users         users.Service
	Sessions      *session.Manager
	Auth          auth.Service
	Addresses     addresses.Service
	Catalog       catalog.Service
	Cart          cart.Service
	Orders        orders.Service
	Reviews       reviews.Service
	Wishlists     wishlist.Service
	Marketplace   *marketplace.Client
}

func NewServices(d Deps) (*Services, error) {
	if d.Config == nil || d.Logger == nil || d.DB == nil || d.Redis == nil {
		return nil, fmt.Errorf("config, logger, db and redis are required")
	}
	cfg := d.Config
	gdb := d.DB.DB()

	recorder := activity.NewService(gdb, d.Logger)
	emitter := outbox.NewService(outbox.NewRepository(gdb), d.Logger)

	notificationSvc, err := notifications.NewService(notifications.NewRepository(gdb))
	if err != nil {
		return nil, fmt.Errorf("notifications service: %w", err)
	}

	userRepo := users.NewRepository(gdb)
	userSvc, err := users.NewService(users.ServiceParams{
		Repo:           userRepo,
		Tx:             d.DB,
		Outbox:         emitter,
		Notifier:       notificationSvc,
		Activity:       recorder,
		Tokens:         d.Redis,
		PasswordConfig: cfg.Password,
		ResetTokenTTL:  cfg.PasswordReset.TokenTTL,
		Logger:         d.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("users service: %w", err)
	}

	sessions, err := session.NewManager(d.Redis, cfg.JWT)
	if err != nil {
		return nil, fmt.Errorf("session manager: %w", err)
	}
	authSvc, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessions,
		Activity:       recorder,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		return nil, fmt.Errorf("auth service: %w", err)
	}

	addressRepo := addresses.NewRepository(gdb)
	addressSvc, err := addresses.NewService(addressRepo, d.DB, cfg.Orders.DefaultCountry)
	if err != nil {
		return nil, fmt.Errorf("addresses service: %w", err)
	}

	catalogRepo := catalog.NewRepository(gdb)
	catalogSvc, err := catalog.NewService(catalogRepo, d.DB, recorder)
	if err != nil {
		return nil, fmt.Errorf("catalog service: %w", err)
	}

	cartSvc, err := cart.NewService(cart.NewRepository(gdb), catalogRepo, d.DB, recorder)
	if err != nil {
		return nil, fmt.Errorf("cart service: %w", err)
	}

	loc, err := cfg.Orders.Location()
	if err != nil {
		return nil, err
	}
	orderRepo := orders.NewRepository(gdb)
	orderSvc, err := orders.NewService(orders.ServiceParams{
		Repo:       orderRepo,
		Tx:         d.DB,
		Addresses:  addressRepo,
		Outbox:     emitter,
		Notifier:   notificationSvc,
		Activity:   recorder,
		Metrics:    d.Metrics,
		Logger:     d.Logger,
		Location:   loc,
		Pricing: orders.Pricing{
			TaxRate:          cfg.Orders.TaxRate,
			FlatShipping:     cfg.Orders.ShippingFlat,
			FreeShippingOver: cfg.Orders.FreeShippingOver,
		},
		MaxBulkIDs: cfg.Orders.MaxBulkIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("orders service: %w", err)
	}

	reviewSvc, err := reviews.NewService(reviews.ServiceParams{
		Repo:       reviews.NewRepository(gdb),
		Tx:         d.DB,
		Products:   catalogRepo,
		Purchases:  orderRepo,
		Outbox:     emitter,
		Activity:   recorder,
		MaxBulkIDs: cfg.Orders.MaxBulkIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("reviews service: %w", err)
	}

	wishlistSvc, err := wishlist.NewService(wishlist.NewRepository(gdb), catalogRepo)
	if err != nil {
		return nil, fmt.Errorf("wishlist service: %w", err)
	}

	market := marketplace.NewClient(cfg.Marketplace,
		marketplace.WithCache(d.Redis),
		marketplace.WithLogger(d.Logger),
		marketplace.WithMetrics(d.Metrics),
	)

	return &Services{
		Activity:      recorder,
		Notifications: notificationSvc,
		Users:         userSvc,
		Sessions:      sessions,
		Auth:          authSvc,
		Addresses:     addressSvc,
		Catalog:       catalogSvc,
		Cart:          cartSvc,
		Orders:        orderSvc,
		Reviews:       reviewSvc,
		Wishlists:     wishlistSvc,
		Marketplace:   market,
	}, nil
}
