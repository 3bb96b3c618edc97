package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/daynewsmedia/alphasite-billing/internal/config"
)

// Cache wraps the Redis client used for claim-verification challenges and
// for invalidating cached business renders on entitlement changes.
type Cache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewCache connects to Redis and verifies the connection.
func NewCache(cfg config.RedisConfig, logger *zap.Logger) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Cache{
		client: client,
		logger: logger,
	}, nil
}

// Set stores a value with a TTL.
func (c *Cache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// Get returns the stored value, or empty when the key is absent or expired.
func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

// Delete removes a key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// InvalidateBusiness drops the render-cache entries keyed by the business's
// public identifiers.
func (c *Cache) InvalidateBusiness(ctx context.Context, businessID uuid.UUID, slug string) error {
	keys := []string{"alphasite:business:" + businessID.String()}
	if slug != "" {
		keys = append(keys, "alphasite:business:slug:"+slug)
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate business cache: %w", err)
	}

	c.logger.Debug("Business cache invalidated",
		zap.String("business_id", businessID.String()),
		zap.Strings("keys", keys))

	return nil
}

// Close closes the underlying client.
func (c *Cache) Close() error {
	return c.client.Close()
}
