package badger

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	badgerdb "github.com/dgraph-io/badger/v3"
	"go.uber.org/zap"
)

const keyPrefixResponse = "response:"

// BadgerResponseCache is a disk-backed response cache using Badger's
// native per-entry TTL. It survives process restarts, which suits hosts
// that sign in short-lived invocations.
type BadgerResponseCache struct {
	db     *badgerdb.DB
	logger *zap.Logger
	mu     sync.RWMutex
	closed bool
}

// NewBadgerResponseCache opens (or creates) a Badger database at dataPath.
func NewBadgerResponseCache(dataPath string, logger *zap.Logger) (*BadgerResponseCache, error) {
	absPath, err := filepath.Abs(dataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	opts := badgerdb.DefaultOptions(absPath)
	opts.Logger = &badgerLoggerAdapter{logger: logger}
	opts.NumVersionsToKeep = 1

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database at %s: %w", absPath, err)
	}

	return &BadgerResponseCache{db: db, logger: logger}, nil
}

// Get returns the cached value when present and unexpired. Badger drops
// expired entries on read.
func (c *BadgerResponseCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return nil, false, fmt.Errorf("response cache is closed")
	}

	var value []byte
	err := c.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(keyPrefixResponse + key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err == badgerdb.ErrKeyNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached response: %w", err)
	}
	return value, true, nil
}

// Set stores a value with the given TTL.
func (c *BadgerResponseCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return fmt.Errorf("response cache is closed")
	}

	err := c.db.Update(func(txn *badgerdb.Txn) error {
		entry := badgerdb.NewEntry([]byte(keyPrefixResponse+key), value).WithTTL(ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("failed to cache response: %w", err)
	}
	return nil
}

// Close shuts down the database.
func (c *BadgerResponseCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	return c.db.Close()
}
