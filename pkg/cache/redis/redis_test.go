package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperweave/ao-sign-go/pkg/logger"
)

// getTestRedisAddress returns the Redis address for testing.
// Uses REDIS_TEST_ADDRESS env var if set, otherwise defaults to localhost:6379.
func getTestRedisAddress() string {
	if addr := os.Getenv("REDIS_TEST_ADDRESS"); addr != "" {
		return addr
	}
	return "localhost:6379"
}

// requireRedis skips the test when no Redis server is reachable.
func requireRedis(t *testing.T) *RedisResponseCache {
	t.Helper()

	testLogger, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	cfg := &RedisConfig{
		Address:   getTestRedisAddress(),
		DB:        15, // Use DB 15 for tests to avoid conflicts
		KeyPrefix: "aosign:test:",
	}

	c, err := NewRedisResponseCache(context.Background(), cfg, testLogger)
	if err != nil {
		t.Skipf("Redis not available at %s: %v", cfg.Address, err)
		return nil
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNewRedisResponseCache_Validation(t *testing.T) {
	testLogger, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})

	_, err := NewRedisResponseCache(context.Background(), nil, testLogger)
	require.Error(t, err)

	_, err = NewRedisResponseCache(context.Background(), &RedisConfig{}, testLogger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "address")
}

func TestRedisResponseCache_SetAndGet(t *testing.T) {
	c := requireRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "key", []byte("value"), time.Minute))

	got, ok, err := c.Get(ctx, "key")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("value"), got)
}

func TestRedisResponseCache_Miss(t *testing.T) {
	c := requireRedis(t)

	_, ok, err := c.Get(context.Background(), "absent-key")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisResponseCache_Closed(t *testing.T) {
	c := requireRedis(t)
	require.NoError(t, c.Close())

	_, _, err := c.Get(context.Background(), "key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "closed")
}
