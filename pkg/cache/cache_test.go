package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashCache_PutAndGet(t *testing.T) {
	c := NewHashCache(4)

	c.Put("key", []byte("value"))
	got, ok := c.Get("key")
	require.True(t, ok)
	assert.Equal(t, []byte("value"), got)

	_, ok = c.Get("absent")
	assert.False(t, ok)
}

func TestHashCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewHashCache(2)
	c.Put("a", []byte("1"))
	c.Put("b", []byte("2"))

	// Reading promotes "a", so "b" is now the eviction candidate.
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Put("c", []byte("3"))
	assert.Equal(t, 2, c.Len())

	_, ok = c.Get("b")
	assert.False(t, ok, "least recently used entry is evicted")
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestHashCache_OverwriteDoesNotGrow(t *testing.T) {
	c := NewHashCache(2)
	c.Put("a", []byte("1"))
	c.Put("a", []byte("2"))
	assert.Equal(t, 1, c.Len())

	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, []byte("2"), got)
}

func TestHashCache_CopiesValues(t *testing.T) {
	c := NewHashCache(2)
	value := []byte("original")
	c.Put("a", value)
	value[0] = 'X'

	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, []byte("original"), got)

	// Mutating the returned slice must not corrupt the cached copy.
	got[0] = 'Y'
	again, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, []byte("original"), again)
}

func TestHashCache_MinimumCapacity(t *testing.T) {
	c := NewHashCache(0)
	c.Put("a", []byte("1"))
	c.Put("b", []byte("2"))
	assert.Equal(t, 1, c.Len())
}
