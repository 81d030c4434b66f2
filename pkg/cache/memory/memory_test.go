package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryResponseCache_SetAndGet(t *testing.T) {
	c := NewMemoryResponseCache(4)
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "key", []byte("value"), time.Minute))

	got, ok, err := c.Get(ctx, "key")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("value"), got)

	_, ok, err = c.Get(ctx, "absent")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryResponseCache_TTLExpiry(t *testing.T) {
	c := NewMemoryResponseCache(4)
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	current := time.Unix(1000, 0)
	c.now = func() time.Time { return current }

	require.NoError(t, c.Set(ctx, "key", []byte("value"), 10*time.Second))

	current = current.Add(9 * time.Second)
	_, ok, err := c.Get(ctx, "key")
	require.NoError(t, err)
	assert.True(t, ok, "entry is still valid inside the TTL")

	current = current.Add(2 * time.Second)
	_, ok, err = c.Get(ctx, "key")
	require.NoError(t, err)
	assert.False(t, ok, "entry expired")
}

func TestMemoryResponseCache_FIFOEviction(t *testing.T) {
	c := NewMemoryResponseCache(2)
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), time.Minute))

	// Reading does not promote: "a" is still the oldest.
	_, ok, err := c.Get(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, c.Set(ctx, "c", []byte("3"), time.Minute))

	_, ok, err = c.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok, "oldest entry is evicted regardless of reads")
	_, ok, err = c.Get(ctx, "b")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryResponseCache_OverwriteKeepsPosition(t *testing.T) {
	c := NewMemoryResponseCache(2)
	defer func() { _ = c.Close() }()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), time.Minute))
	require.NoError(t, c.Set(ctx, "a", []byte("updated"), time.Minute))
	require.NoError(t, c.Set(ctx, "c", []byte("3"), time.Minute))

	// "a" kept its original slot, so it was evicted first.
	_, ok, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	got, ok, err := c.Get(ctx, "b")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("2"), got)
}

func TestMemoryResponseCache_Closed(t *testing.T) {
	c := NewMemoryResponseCache(2)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, c.Close())

	_, _, err := c.Get(ctx, "a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "closed")

	err = c.Set(ctx, "b", []byte("2"), time.Minute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "closed")
}
