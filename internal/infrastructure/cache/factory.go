package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/davidleathers/fraud-scoring-backend/internal/infrastructure/config"
)

// CacheManager provides access to all cache-related services
type CacheManager struct {
	Cache       Cache
	RateLimiter RateLimiter
	client      *redis.Client
	logger      *zap.Logger
}

// NewCacheManager creates a new cache manager with all cache services
func NewCacheManager(cfg *config.RedisConfig, logger *zap.Logger) (*CacheManager, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	client, err := NewRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	cache, err := NewRedisCache(client, logger)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to create redis cache: %w", err)
	}

	rateLimiter := NewRedisRateLimiter(client, logger)

	logger.Info("cache manager initialized",
		zap.String("addr", cfg.URL),
		zap.Int("db", cfg.DB),
		zap.Int("pool_size", cfg.PoolSize))

	return &CacheManager{
		Cache:       cache,
		RateLimiter: rateLimiter,
		client:      client,
		logger:      logger,
	}, nil
}

// Client exposes the underlying Redis client for consumers that need
// raw pipeline access, like the activity store.
func (cm *CacheManager) Client() *redis.Client {
	return cm.client
}

// Close closes all cache connections and cleans up resources
func (cm *CacheManager) Close() error {
	if err := cm.client.Close(); err != nil {
		return fmt.Errorf("redis client close failed: %w", err)
	}

	cm.logger.Info("cache manager closed")
	return nil
}

// HealthCheck verifies that the cache layer is operational
func (cm *CacheManager) HealthCheck(ctx context.Context) error {
	if err := cm.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}

	testKey := "fsb:health_check:test"
	testValue := time.Now().Unix()

	if err := cm.Cache.Set(ctx, testKey, testValue, 10*time.Second); err != nil {
		return fmt.Errorf("cache set health check failed: %w", err)
	}
	if _, err := cm.Cache.Get(ctx, testKey); err != nil {
		return fmt.Errorf("cache get health check failed: %w", err)
	}
	if err := cm.Cache.Delete(ctx, testKey); err != nil {
		return fmt.Errorf("cache delete health check failed: %w", err)
	}

	return nil
}
