/*
Copyright 2026, Aleksei Sviridkin.

SPDX-License-Identifier: BSD-3-Clause
*/

package registry

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
)

type cacheEntry struct {
	record    *Record
	notFound  *NotFoundError
	expiresAt time.Time
}

// Cache wraps a Lookup with in-memory caching of records.
//
// Not-found answers are cached as well so a missing identifier is asked for
// once per TTL. Other errors are never cached. A zero TTL keeps entries until
// Reset or Forget is called, which suits a single resolution run.
type Cache struct {
	lookup Lookup
	cache  map[string]*cacheEntry
	mu     sync.RWMutex
	ttl    time.Duration
	now    func() time.Time
}

// NewCache creates a caching wrapper around lookup.
func NewCache(lookup Lookup, ttl time.Duration) *Cache {
	return &Cache{
		lookup: lookup,
		cache:  make(map[string]*cacheEntry),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Lookup returns a cached record or asks the wrapped lookup.
func (c *Cache) Lookup(ctx context.Context, id string) (*Record, error) {
	c.mu.RLock()
	entry, exists := c.cache[id]
	c.mu.RUnlock()

	if exists && c.fresh(entry) {
		if entry.notFound != nil {
			notFound := *entry.notFound

			return nil, &notFound
		}

		return copyRecord(entry.record), nil
	}

	record, err := c.lookup.Lookup(ctx, id)
	if err != nil {
		var notFound *NotFoundError
		if errors.As(err, &notFound) {
			stored := *notFound
			c.store(id, &cacheEntry{notFound: &stored})

			return nil, err
		}

		return nil, errors.Wrap(err, "failed to fetch record")
	}

	c.store(id, &cacheEntry{record: copyRecord(record)})

	return record, nil
}

// Reset removes all entries from the cache.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache = make(map[string]*cacheEntry)
}

// Forget removes the entry for one identifier.
func (c *Cache) Forget(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.cache, id)
}

// Len returns the number of cached entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.cache)
}

func (c *Cache) fresh(entry *cacheEntry) bool {
	return entry.expiresAt.IsZero() || c.now().Before(entry.expiresAt)
}

func (c *Cache) store(id string, entry *cacheEntry) {
	if c.ttl > 0 {
		entry.expiresAt = c.now().Add(c.ttl)
	}

	c.mu.Lock()
	c.cache[id] = entry
	c.mu.Unlock()
}

// copyRecord returns a copy so callers cannot mutate cached state.
func copyRecord(r *Record) *Record {
	out := *r
	out.Aliases = append([]string(nil), r.Aliases...)
	out.Releases = append([]Release(nil), r.Releases...)

	return &out
}
