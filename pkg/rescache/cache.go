// Package rescache provides a TTL-bounded map from resolution cache keys to
// remote resource identifiers. Expiry is checked lazily on read; there is no
// background eviction. One cache instance serves one resource class, so TTL
// policy stays configurable per class.
package rescache

import (
	"sync"
	"time"
)

type record struct {
	resourceID string
	insertedAt time.Time
}

// Cache maps cache keys to previously resolved remote resource IDs.
// Safe for concurrent use; Put is last-writer-wins.
type Cache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	records map[string]record
}

// New creates a cache whose entries expire ttl after insertion.
func New(ttl time.Duration) *Cache {
	return NewWithClock(ttl, time.Now)
}

// NewWithClock is New with an injectable clock for tests.
func NewWithClock(ttl time.Duration, now func() time.Time) *Cache {
	if now == nil {
		now = time.Now
	}
	return &Cache{
		ttl:     ttl,
		now:     now,
		records: make(map[string]record),
	}
}

// Get returns the cached resource ID for key, or ok=false when the key is
// unknown or its entry is at least TTL old. Expired entries are dropped.
func (c *Cache) Get(key string) (string, bool) {
	c.mu.RLock()
	rec, ok := c.records[key]
	c.mu.RUnlock()

	if !ok {
		return "", false
	}
	if c.now().Sub(rec.insertedAt) >= c.ttl {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent Put may have refreshed it.
		if cur, still := c.records[key]; still && c.now().Sub(cur.insertedAt) >= c.ttl {
			delete(c.records, key)
		}
		c.mu.Unlock()
		return "", false
	}
	return rec.resourceID, true
}

// Put inserts or overwrites the entry for key, stamping the current time.
func (c *Cache) Put(key, resourceID string) {
	c.mu.Lock()
	c.records[key] = record{resourceID: resourceID, insertedAt: c.now()}
	c.mu.Unlock()
}

// Len reports the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}
