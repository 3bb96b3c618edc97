package database

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/daynewsmedia/alphasite-billing/internal/domain/model"
)

// Migrate runs database migrations
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	logger.Info("Running database migrations...")

	if err := createExtensions(db); err != nil {
		logger.Error("Failed to create extensions", zap.Error(err))
		return err
	}

	// Custom enum types must exist before auto-migrate references them.
	if err := createCustomTypes(db); err != nil {
		logger.Error("Failed to create custom types", zap.Error(err))
		return err
	}

	err := db.AutoMigrate(
		&model.Business{},
		&model.SubscriptionRecord{},
		&model.BillingWebhookEvent{},
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

// createExtensions creates required PostgreSQL extensions
func createExtensions(db *gorm.DB) error {
	return db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error
}

// createCustomTypes creates custom PostgreSQL enum types
func createCustomTypes(db *gorm.DB) error {
	types := map[string]string{
		"subscription_tier":   `CREATE TYPE subscription_tier AS ENUM ('trial', 'basic', 'standard', 'premium', 'enterprise')`,
		"subscription_status": `CREATE TYPE subscription_status AS ENUM ('active', 'expired', 'past_due', 'canceled')`,
		"webhook_status":      `CREATE TYPE webhook_status AS ENUM ('pending', 'processing', 'completed', 'failed')`,
	}

	for name, ddl := range types {
		var exists bool
		db.Raw(`SELECT EXISTS (SELECT 1 FROM pg_type WHERE typname = ?)`, name).Scan(&exists)
		if exists {
			continue
		}
		if err := db.Exec(ddl).Error; err != nil {
			return err
		}
	}

	return nil
}

// createCustomIndexes creates indexes GORM doesn't handle automatically
func createCustomIndexes(db *gorm.DB) error {
	// Exactly one record per business is enforced by the unique index on
	// business_id; this partial index serves the expiry sweep scan.
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_subscription_records_expiring_trials ON subscription_records (trial_expires_at) WHERE tier = 'trial' AND status = 'active' AND trial_converted_at IS NULL`).Error; err != nil {
		return err
	}

	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_billing_webhook_events_unprocessed ON billing_webhook_events (created_at) WHERE status IN ('pending', 'failed')`).Error; err != nil {
		return err
	}

	return nil
}
