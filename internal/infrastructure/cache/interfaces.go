package cache

import (
	"context"
	"time"
)

// Cache provides a generic caching interface with support for TTL and atomic operations
type Cache interface {
	// Get retrieves a value by key
	Get(ctx context.Context, key string) (string, error)

	// Set stores a value with optional TTL
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Delete removes a key
	Delete(ctx context.Context, key string) error

	// Exists checks if a key exists
	Exists(ctx context.Context, key string) (bool, error)

	// SetNX sets a value only if the key doesn't exist (atomic)
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)

	// Increment atomically increments a numeric value
	Increment(ctx context.Context, key string) (int64, error)

	// Expire sets TTL on an existing key
	Expire(ctx context.Context, key string, ttl time.Duration) error

	// GetJSON retrieves and unmarshals JSON data
	GetJSON(ctx context.Context, key string, dest interface{}) error

	// SetJSON marshals and stores JSON data
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Close closes the cache connection
	Close() error
}

// RateLimiter provides rate limiting functionality
type RateLimiter interface {
	// Allow checks if a request is allowed under the rate limit
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)

	// Count returns the current count for a rate limit key
	Count(ctx context.Context, key string, window time.Duration) (int, error)

	// Reset clears the rate limit counter for a key
	Reset(ctx context.Context, key string) error

	// Remaining returns how many requests are remaining in the current window
	Remaining(ctx context.Context, key string, limit int, window time.Duration) (int, error)
}

// Key prefixes for consistent cache key naming
const (
	RateLimitPrefix = "fsb:ratelimit:"
	MerchantPrefix  = "fsb:merchant:"
)

// Common TTL values
const (
	DefaultTTL         = 1 * time.Hour
	MerchantProfileTTL = 5 * time.Minute
	RateLimitTTL       = 1 * time.Minute
)

// ErrCacheKeyNotFound is returned when a cache key doesn't exist
type ErrCacheKeyNotFound struct {
	Key string
}

func (e ErrCacheKeyNotFound) Error() string {
	return "cache key not found: " + e.Key
}

// ErrRateLimitExceeded is returned when rate limit is exceeded
type ErrRateLimitExceeded struct {
	Key   string
	Limit int
}

func (e ErrRateLimitExceeded) Error() string {
	return "rate limit exceeded for key: " + e.Key
}
