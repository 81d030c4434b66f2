package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultKeyPrefix = "aosign:response:"

// RedisResponseCache is a response cache backed by Redis, suitable for
// hosts that share cached responses across processes. TTL handling is
// delegated to the server; capacity is bounded by the Redis instance's own
// eviction policy.
type RedisResponseCache struct {
	client    *redis.Client
	logger    *zap.Logger
	keyPrefix string
	mu        sync.RWMutex
	closed    bool
}

// RedisConfig holds the connection settings for the Redis backend.
type RedisConfig struct {
	// Address is the Redis server address (host:port)
	Address string
	// Password is the optional Redis password
	Password string
	// DB is the Redis database number (0-15)
	DB int
	// KeyPrefix is an optional custom prefix for all keys (for
	// multi-tenant setups). Defaults to "aosign:response:".
	KeyPrefix string
}

// NewRedisResponseCache creates a Redis-backed response cache and pings
// the server to verify connectivity.
func NewRedisResponseCache(ctx context.Context, cfg *RedisConfig, logger *zap.Logger) (*RedisResponseCache, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address cannot be empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Address, err)
	}

	keyPrefix := cfg.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}

	logger.Sugar().Infow("Connected response cache to redis", "address", cfg.Address, "db", cfg.DB)

	return &RedisResponseCache{
		client:    client,
		logger:    logger,
		keyPrefix: keyPrefix,
	}, nil
}

// Get returns the cached value when present and unexpired.
func (c *RedisResponseCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return nil, false, fmt.Errorf("response cache is closed")
	}
	value, err := c.client.Get(ctx, c.keyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached response: %w", err)
	}
	return value, true, nil
}

// Set stores a value; expiry is enforced server-side via the TTL.
func (c *RedisResponseCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return fmt.Errorf("response cache is closed")
	}
	if err := c.client.Set(ctx, c.keyPrefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache response: %w", err)
	}
	return nil
}

// Close shuts down the Redis connection.
func (c *RedisResponseCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	return c.client.Close()
}
