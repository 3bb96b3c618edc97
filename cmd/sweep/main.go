package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"github.com/daynewsmedia/alphasite-billing/internal/config"
	"github.com/daynewsmedia/alphasite-billing/internal/infrastructure/cache"
	"github.com/daynewsmedia/alphasite-billing/internal/infrastructure/database"
	"github.com/daynewsmedia/alphasite-billing/internal/usecase"
	"github.com/daynewsmedia/alphasite-billing/pkg/logger"
)

// One-shot trial-expiry sweep for cron or manual runs. The server runs the
// same sweep on an interval; this binary exists for operational reruns.
func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	zapLogger, err := logger.NewZapLogger(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Output:      cfg.Log.Output,
		Development: cfg.Log.Development,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	// Initialize database connection
	db, err := database.NewConnection(&cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db, zapLogger); err != nil {
			zapLogger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	// Initialize repositories
	repos := database.NewRepositories(db, zapLogger)

	// Cache invalidation keeps rendered pages honest after downgrades
	redisCache, err := cache.NewCache(cfg.Redis, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to redis", zap.Error(err))
	}
	defer func() {
		if err := redisCache.Close(); err != nil {
			zapLogger.Error("Failed to close redis connection", zap.Error(err))
		}
	}()

	lifecycle := usecase.NewLifecycleService(
		repos.Record,
		repos.Business,
		redisCache,
		usecase.NewRealClock(),
		cfg.Trial,
		zapLogger,
	)

	processed, err := lifecycle.ProcessExpiredTrials(context.Background())
	if err != nil {
		zapLogger.Fatal("Trial expiry sweep failed", zap.Error(err))
	}

	zapLogger.Info("Trial expiry sweep completed", zap.Int("downgraded", processed))
}
