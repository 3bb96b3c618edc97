package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/daynewsmedia/alphasite-billing/internal/config"
	"github.com/daynewsmedia/alphasite-billing/internal/infrastructure/cache"
	"github.com/daynewsmedia/alphasite-billing/internal/infrastructure/database"
	httpServer "github.com/daynewsmedia/alphasite-billing/internal/infrastructure/http"
	"github.com/daynewsmedia/alphasite-billing/internal/infrastructure/notify"
	"github.com/daynewsmedia/alphasite-billing/internal/infrastructure/provider/stripe"
	"github.com/daynewsmedia/alphasite-billing/internal/usecase"
	"github.com/daynewsmedia/alphasite-billing/pkg/logger"
)

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

	// Run database migrations
	if err := database.Migrate(db, zapLogger); err != nil {
		zapLogger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Initialize repositories
	repos := database.NewRepositories(db, zapLogger)

	// Initialize Redis-backed cache and verification store
	redisCache, err := cache.NewCache(cfg.Redis, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to redis", zap.Error(err))
	}
	defer func() {
		if err := redisCache.Close(); err != nil {
			zapLogger.Error("Failed to close redis connection", zap.Error(err))
		}
	}()

	// Initialize billing provider
	billingProvider := stripe.NewProvider(
		cfg.Service.StripeSecretKey,
		cfg.Service.StripeWebhookSecret,
		zapLogger,
	)

	clock := usecase.NewRealClock()
	notifier := notify.NewLogNotifier(zapLogger)

	// Initialize services
	lifecycle := usecase.NewLifecycleService(repos.Record, repos.Business, redisCache, clock, cfg.Trial, zapLogger)
	billing := usecase.NewBillingService(lifecycle, repos.Record, repos.Business, billingProvider, &cfg.Plans, cfg.Service.ClientURL, zapLogger)
	claims := usecase.NewClaimService(repos.Business, redisCache, notifier, clock, cfg.Service.ClientURL, zapLogger)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Background trial-expiry sweep
	go runSweep(ctx, lifecycle, cfg.Sweep.Interval.Std(), zapLogger)

	// Initialize HTTP server
	srv := httpServer.NewServer(cfg, zapLogger, repos, billingProvider, lifecycle, billing, claims)

	go func() {
		if err := srv.Start(); err != nil {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	zapLogger.Info("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Failed to shutdown HTTP server", zap.Error(err))
	}

	zapLogger.Info("Server shut down successfully")
}

// runSweep downgrades expired trials on a fixed interval until ctx ends.
func runSweep(ctx context.Context, lifecycle *usecase.LifecycleService, interval time.Duration, zapLogger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	zapLogger.Info("Trial expiry sweep started", zap.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			zapLogger.Info("Trial expiry sweep stopped")
			return
		case <-ticker.C:
			processed, err := lifecycle.ProcessExpiredTrials(ctx)
			if err != nil {
				zapLogger.Error("Trial expiry sweep failed", zap.Error(err))
				continue
			}
			if processed > 0 {
				zapLogger.Info("Trial expiry sweep completed", zap.Int("downgraded", processed))
			}
		}
	}
}
