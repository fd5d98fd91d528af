// Package app wires configuration into repositories, providers and services.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/neverMEH/Personabl-Developed/internal/config"
	"github.com/neverMEH/Personabl-Developed/internal/infrastructure/database"
	"github.com/neverMEH/Personabl-Developed/internal/infrastructure/provider/stripe"
	"github.com/neverMEH/Personabl-Developed/internal/usecase"
	"github.com/neverMEH/Personabl-Developed/pkg/messaging"
)

// Services are the use cases exposed by the transports and the CLI.
type Services struct {
	Webhook      *usecase.WebhookService
	Checkout     *usecase.CheckoutService
	Coupon       *usecase.CouponService
	Subscription *usecase.SubscriptionService
	Catalog      *usecase.CatalogService
}

type App struct {
	Config   *config.Config
	DB       *gorm.DB
	Repos    *database.Repositories
	Provider *stripe.StripeProvider
	Services Services

	redis  messaging.RedisClient
	logger *zap.Logger
}

// New connects to the database and, when configured, Redis. Migrations run
// when database.auto_migrate is set.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db, logger); err != nil {
			_ = database.Close(db, logger)
			return nil, fmt.Errorf("failed to run database migrations: %w", err)
		}
	}

	a := &App{
		Config: cfg,
		DB:     db,
		Repos:  database.NewRepositories(db, logger),
		Provider: stripe.NewStripeProvider(stripe.Config{
			SecretKey:     cfg.Stripe.SecretKey,
			WebhookSecret: cfg.Stripe.WebhookSecret,
			APIURL:        cfg.Stripe.APIURL,
			Timeout:       cfg.Timeouts.Provider,
		}, logger),
		logger: logger,
	}

	var publisher messaging.Publisher = messaging.NoopPublisher{}
	if cfg.Redis.Addr != "" {
		client, err := messaging.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			// Change notifications are best effort; reconciliation still runs.
			logger.Warn("Redis unavailable, subscription change notifications disabled", zap.Error(err))
		} else {
			a.redis = client
			publisher = client
		}
	}

	a.Services = a.buildServices(publisher)
	return a, nil
}

func (a *App) buildServices(publisher messaging.Publisher) Services {
	cfg := a.Config
	log := a.logger
	timeouts := usecase.Timeouts{
		Datastore: cfg.Timeouts.Datastore,
		Provider:  cfg.Timeouts.Provider,
	}

	coupons := usecase.NewCouponService(a.Repos.Coupon, timeouts, log)

	webhook := usecase.NewWebhookService(
		a.Provider,
		a.Repos.WebhookEvent,
		a.Repos.Coupon,
		usecase.NewIdentityResolver(a.Repos.Profile, timeouts, log),
		usecase.NewCatalogMapper(a.Repos.Catalog, timeouts, log),
		usecase.NewSubscriptionWriter(a.Repos.Subscription, timeouts, log),
		usecase.NewChangeNotifier(publisher, cfg.Redis.Channel, cfg.Timeouts.Datastore, log),
		usecase.WebhookOptions{
			AllowUnsigned: cfg.Stripe.AllowUnsignedWebhooks,
			Timeouts:      timeouts,
		},
		log,
	)

	checkout := usecase.NewCheckoutService(
		a.Provider,
		a.Repos.Profile,
		a.Repos.Catalog,
		coupons,
		usecase.ProfileWait{
			Attempts:       cfg.Checkout.ProfileWait.Attempts,
			InitialBackoff: cfg.Checkout.ProfileWait.InitialBackoff,
			MaxBackoff:     cfg.Checkout.ProfileWait.MaxBackoff,
		},
		timeouts,
		log,
	)

	return Services{
		Webhook:      webhook,
		Checkout:     checkout,
		Coupon:       coupons,
		Subscription: usecase.NewSubscriptionService(a.Repos.Subscription, a.Provider, timeouts, log),
		Catalog:      usecase.NewCatalogService(a.Repos.Catalog, a.Repos.Coupon, a.Provider, timeouts, log),
	}
}

// Redis returns the pub/sub client, or nil when Redis is not configured.
func (a *App) Redis() messaging.RedisClient {
	return a.redis
}

// Ready reports whether the database answers.
func (a *App) Ready(ctx context.Context) error {
	return database.Ping(ctx, a.DB)
}

func (a *App) Close() error {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}
	return database.Close(a.DB, a.logger)
}
