// Package blobcache provides a disk-backed cache for binary blobs such as
// fetched album art and rendered images, with per-entry expiry.
package blobcache

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Cache wraps a Badger database used as a blob store. Values are opaque
// byte slices; expired entries are reclaimed by Badger during compaction.
type Cache struct {
	db     *badger.DB
	logger *slog.Logger
}

// Open opens (or creates) the blob cache at the given directory.
func Open(path string, logger *slog.Logger) (*Cache, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = false      // Cached blobs can be refetched; skip the per-write fsync
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open blob cache: %w", err)
	}

	if logger != nil {
		logger.Info("blob cache opened", "path", path)
	}

	return &Cache{db: db, logger: logger}, nil
}

// Get retrieves a blob by key. The second return value reports whether the
// key was present; expired entries count as absent.
func (c *Cache) Get(key string) ([]byte, bool, error) {
	var data []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get blob %q: %w", key, err)
	}
	return data, true, nil
}

// Set stores a blob under key. A ttl of zero stores the blob without expiry.
func (c *Cache) Set(key string, data []byte, ttl time.Duration) error {
	err := c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), data)
		if ttl > 0 {
			entry = entry.WithTTL(ttl)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("set blob %q: %w", key, err)
	}
	return nil
}

// Delete removes a blob. Deleting a missing key is not an error.
func (c *Cache) Delete(key string) error {
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("delete blob %q: %w", key, err)
	}
	return nil
}

// Close flushes and closes the underlying database.
func (c *Cache) Close() error {
	if c.logger != nil {
		c.logger.Info("closing blob cache")
	}
	return c.db.Close()
}
