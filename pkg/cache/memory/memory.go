package memory

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryResponseCache is an in-memory response cache with bounded capacity
// and FIFO eviction: when the capacity limit is reached the oldest entry
// is dropped, regardless of how recently it was read. Reads never promote.
//
// Thread-safe using sync.RWMutex for concurrent hosts.
type MemoryResponseCache struct {
	mu       sync.RWMutex
	capacity int
	entries  map[string]memoryEntry
	order    []string
	now      func() time.Time
	closed   bool
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryResponseCache creates an in-memory response cache holding at
// most capacity entries.
func NewMemoryResponseCache(capacity int) *MemoryResponseCache {
	if capacity < 1 {
		capacity = 1
	}
	return &MemoryResponseCache{
		capacity: capacity,
		entries:  make(map[string]memoryEntry, capacity),
		now:      time.Now,
	}
}

// Get returns the cached value when present and unexpired.
func (c *MemoryResponseCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return nil, false, fmt.Errorf("response cache is closed")
	}
	entry, ok := c.entries[key]
	if !ok || c.now().After(entry.expiresAt) {
		return nil, false, nil
	}
	out := make([]byte, len(entry.value))
	copy(out, entry.value)
	return out, true, nil
}

// Set stores a value with the given TTL, evicting the oldest entry when
// the cache is full.
func (c *MemoryResponseCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("response cache is closed")
	}

	stored := make([]byte, len(value))
	copy(stored, value)

	if _, exists := c.entries[key]; !exists {
		if len(c.order) >= c.capacity {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = memoryEntry{value: stored, expiresAt: c.now().Add(ttl)}
	return nil
}

// Close shuts down the cache.
func (c *MemoryResponseCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}
