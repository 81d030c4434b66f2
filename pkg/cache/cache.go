// Package cache holds the two bounded caches the signing pipeline shares:
// a hash-result cache (LRU, promoted on read) and a short-TTL cache for
// successful transport responses (FIFO eviction, no promotion).
//
// Both are explicit, constructor-injected objects. Backends for the
// response cache live in the memory, redis, and badger subpackages.
package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// ResponseCache stores successful response bodies under a short TTL.
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// HashCache memoizes digest-derived results (e.g. the address derived from
// a public key) in a bounded LRU. Reads promote the entry; when the
// capacity limit is reached the least recently used entry is evicted.
type HashCache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	entries  map[string]*list.Element
}

type hashEntry struct {
	key   string
	value []byte
}

// NewHashCache creates a hash cache holding at most capacity entries.
func NewHashCache(capacity int) *HashCache {
	if capacity < 1 {
		capacity = 1
	}
	return &HashCache{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[string]*list.Element, capacity),
	}
}

// Get returns the cached value and promotes the entry.
func (c *HashCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(elem)
	value := elem.Value.(*hashEntry).value
	out := make([]byte, len(value))
	copy(out, value)
	return out, true
}

// Put stores a value, evicting the least recently used entry when full.
func (c *HashCache) Put(key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := make([]byte, len(value))
	copy(stored, value)

	if elem, ok := c.entries[key]; ok {
		elem.Value.(*hashEntry).value = stored
		c.order.MoveToFront(elem)
		return
	}
	if c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*hashEntry).key)
		}
	}
	c.entries[key] = c.order.PushFront(&hashEntry{key: key, value: stored})
}

// Len returns the number of cached entries.
func (c *HashCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
