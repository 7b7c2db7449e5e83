package cli

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/angelmondragon/shopfront-backend/internal/app"
	"github.com/angelmondragon/shopfront-backend/internal/catalog"
	"github.com/angelmondragon/shopfront-backend/internal/marketplace"
	"github.com/angelmondragon/shopfront-backend/internal/orders"
	"github.com/angelmondragon/shopfront-backend/internal/users"
	"github.com/angelmondragon/shopfront-backend/pkg/bulk"
	"github.com/angelmondragon/shopfront-backend/pkg/config"
	"github.com/angelmondragon/shopfront-backend/pkg/db"
	"github.com/angelmondragon/shopfront-backend/pkg/enums"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
	"github.com/angelmondragon/shopfront-backend/pkg/redis"
)

type orderAdmin interface {
	ApplyBulkStatus(ctx context.Context, actor orders.Actor, ids []uuid.UUID, status enums.OrderStatus) (*bulk.Result, error)
	ApplyBulkPaymentStatus(ctx context.Context, actor orders.Actor, ids []uuid.UUID, status enums.PaymentStatus) (*bulk.Result, error)
}

type userAdmin interface {
	SetActive(ctx context.Context, ids []uuid.UUID, active bool) (*bulk.Result, error)
	Register(ctx context.Context, input users.RegisterInput) (*users.UserDTO, error)
}

type reviewModerator interface {
	Moderate(ctx context.Context, ids []uuid.UUID, approved bool) (*bulk.Result, error)
}

type marketplaceSearcher interface {
	Search(ctx context.Context, keywords string, prices marketplace.PriceRange, limit int) []marketplace.Listing
}

type catalogWriter interface {
	CreateCategory(ctx context.Context, input catalog.CategoryInput) (*catalog.CategoryDTO, error)
	CreateProduct(ctx context.Context, input catalog.ProductInput) (*catalog.ProductDTO, error)
}

// Env is what the commands operate on.
type Env struct {
	Orders      orderAdmin
	Users       userAdmin
	Reviews     reviewModerator
	Marketplace marketplaceSearcher
	Catalog     catalogWriter
}

// SetupFunc builds an Env and returns a cleanup to run when the command ends.
type SetupFunc func(ctx context.Context, envFile string) (*Env, func(), error)

// DefaultSetup connects to the configured database and Redis.
func DefaultSetup(ctx context.Context, envFile string) (*Env, func(), error) {
	cfg, logg, err := loadConfig(envFile)
	if err != nil {
		return nil, nil, err
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		_ = dbClient.Close()
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	cleanup := func() {
		_ = redisClient.Close()
		_ = dbClient.Close()
	}

	svcs, err := app.NewServices(app.Deps{Config: cfg, Logger: logg, DB: dbClient, Redis: redisClient})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return &Env{
		Orders:      svcs.Orders,
		Users:       svcs.Users,
		Reviews:     svcs.Reviews,
		Marketplace: svcs.Marketplace,
		Catalog:     svcs.Catalog,
	}, cleanup, nil
}

// loadConfig reads envFile (or ./.env when present) and then the process
// environment.
func loadConfig(envFile string) (*config.Config, *logger.Logger, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	} else {
		_ = godotenv.Load()
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logg := logger.New(logger.Options{
		ServiceName: "shopctl",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      "console",
	})
	return cfg, logg, nil
}
