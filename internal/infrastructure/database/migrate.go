package database

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/neverMEH/Personabl-Developed/internal/domain/model"
)

// enumTypes are created before AutoMigrate. Missing values are added to existing types.
var enumTypes = []struct {
	name   string
	values []string
}{
	{
		name: "subscription_status",
		values: []string{
			string(model.SubscriptionStatusIncomplete),
			string(model.SubscriptionStatusIncompleteExpired),
			string(model.SubscriptionStatusTrialing),
			string(model.SubscriptionStatusActive),
			string(model.SubscriptionStatusPastDue),
			string(model.SubscriptionStatusCanceled),
			string(model.SubscriptionStatusUnpaid),
			string(model.SubscriptionStatusPaused),
		},
	},
	{
		name: "payment_status",
		values: []string{
			string(model.PaymentStatusSucceeded),
			string(model.PaymentStatusPending),
			string(model.PaymentStatusFailed),
		},
	},
	{
		name: "webhook_status",
		values: []string{
			string(model.WebhookStatusPending),
			string(model.WebhookStatusProcessing),
			string(model.WebhookStatusCompleted),
			string(model.WebhookStatusFailed),
		},
	},
	{
		name:   "price_interval",
		values: []string{string(model.PriceIntervalMonth), string(model.PriceIntervalYear)},
	},
}

// Migrate runs database migrations
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	logger.Info("Running database migrations...")

	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`).Error; err != nil {
		logger.Error("Failed to create extensions", zap.Error(err))
		return err
	}

	// Create custom types BEFORE auto-migrate
	if err := createCustomTypes(db, logger); err != nil {
		logger.Error("Failed to create custom types", zap.Error(err))
		return err
	}

	logger.Info("Running GORM auto-migrations...")
	err := db.AutoMigrate(
		&model.Profile{},
		&model.Product{},
		&model.Price{},
		&model.Coupon{},
		&model.Subscription{},
		&model.ProviderWebhookEvent{},
	)
	if err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return err
	}

	if err := createCustomIndexes(db); err != nil {
		logger.Error("Failed to create custom indexes", zap.Error(err))
		return err
	}

	logger.Info("Database migrations completed successfully")
	return nil
}

// createCustomIndexes creates custom indexes that GORM doesn't handle automatically
func createCustomIndexes(db *gorm.DB) error {
	statements := []string{
		`CREATE INDEX IF NOT EXISTS idx_profiles_email_lower ON profiles (lower(email))`,
		`CREATE INDEX IF NOT EXISTS idx_subscriptions_user_status ON subscriptions (user_id, status, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_webhook_events_unprocessed ON provider_webhook_events (created_at) WHERE status IN ('pending', 'failed')`,
		`CREATE INDEX IF NOT EXISTS idx_prices_product_active ON prices (product_id) WHERE active`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

// createCustomTypes creates custom PostgreSQL types
func createCustomTypes(db *gorm.DB, logger *zap.Logger) error {
	for _, enum := range enumTypes {
		var exists bool
		if err := db.Raw(`SELECT EXISTS (SELECT 1 FROM pg_type WHERE typname = ?)`, enum.name).Scan(&exists).Error; err != nil {
			return err
		}

		if !exists {
			quoted := make([]string, len(enum.values))
			for i, v := range enum.values {
				quoted[i] = "'" + v + "'"
			}
			stmt := fmt.Sprintf(`CREATE TYPE %s AS ENUM (%s)`, enum.name, strings.Join(quoted, ", "))
			if err := db.Exec(stmt).Error; err != nil {
				return err
			}
			logger.Info("Created enum type", zap.String("type", enum.name))
			continue
		}

		// ALTER TYPE ... ADD VALUE cannot run inside a transaction block.
		for _, v := range enum.values {
			stmt := fmt.Sprintf(`ALTER TYPE %s ADD VALUE IF NOT EXISTS '%s'`, enum.name, v)
			if err := db.Exec(stmt).Error; err != nil {
				return fmt.Errorf("failed to extend enum %s: %w", enum.name, err)
			}
		}
	}
	return nil
}
