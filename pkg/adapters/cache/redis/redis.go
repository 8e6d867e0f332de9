package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// PredictionCache implements PredictionCache using Redis
type PredictionCache struct {
	client *redis.Client
	logger *zap.Logger
	ttl    time.Duration
}

// NewPredictionCache creates a new Redis prediction cache
func NewPredictionCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *PredictionCache {
	return &PredictionCache{
		client: client,
		logger: logger,
		ttl:    ttl,
	}
}

// Get returns the cached prediction for key
func (c *PredictionCache) Get(ctx context.Context, key string) (float64, bool, error) {
	v, err := c.client.Get(ctx, getCacheKey(key)).Float64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get prediction: %w", err)
	}

	return v, true, nil
}

// Set stores a prediction with the configured TTL
func (c *PredictionCache) Set(ctx context.Context, key string, value float64) error {
	if err := c.client.Set(ctx, getCacheKey(key), value, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache prediction: %w", err)
	}

	c.logger.Debug("prediction cached", zap.String("key", key))
	return nil
}

// Close is a no-op; the Redis client is owned by the caller
func (c *PredictionCache) Close() error {
	return nil
}

// getCacheKey returns the Redis key for a cached prediction
func getCacheKey(key string) string {
	return fmt.Sprintf("predictd:prediction:%s", key)
}
