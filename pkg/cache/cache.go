package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Cache stores opaque values with a time to live
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// GetJSON decodes a cached JSON value into dst. A decode failure counts as a miss.
func GetJSON(ctx context.Context, c Cache, key string, dst any) (bool, error) {
	raw, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, nil
	}
	return true, nil
}

// SetJSON stores v encoded as JSON
func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, raw, ttl)
}

type item struct {
	value      []byte
	expiration int64
}

func (i item) expired(now int64) bool {
	return i.expiration > 0 && now > i.expiration
}

// MemoryCache is a thread-safe in-process cache with expiration and a size cap
type MemoryCache struct {
	mu       sync.RWMutex
	items    map[string]item
	maxItems int
	stop     chan struct{}
	once     sync.Once
}

// NewMemoryCache creates a cache holding at most maxItems entries (0 = unbounded).
// Expired entries are purged every cleanupInterval when it is positive.
func NewMemoryCache(maxItems int, cleanupInterval time.Duration) *MemoryCache {
	c := &MemoryCache{
		items:    make(map[string]item),
		maxItems: maxItems,
		stop:     make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go c.cleanupLoop(cleanupInterval)
	}
	return c
}

// Get retrieves an item from the cache
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	it, found := c.items[key]
	if !found || it.expired(time.Now().UnixNano()) {
		return nil, false, nil
	}
	return it.value, true, nil
}

// Set adds an item to the cache. ttl <= 0 means no expiry.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	var exp int64
	if ttl > 0 {
		exp = time.Now().Add(ttl).UnixNano()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && c.maxItems > 0 && len(c.items) >= c.maxItems {
		c.evictOldest()
	}
	c.items[key] = item{value: append([]byte(nil), value...), expiration: exp}
	return nil
}

// Delete removes items from the cache
func (c *MemoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.items, k)
	}
	return nil
}

// Count returns the number of items in the cache (including expired items)
func (c *MemoryCache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Close stops the cleanup goroutine
func (c *MemoryCache) Close() {
	c.once.Do(func() { close(c.stop) })
}

func (c *MemoryCache) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.deleteExpired()
		case <-c.stop:
			return
		}
	}
}

func (c *MemoryCache) deleteExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().UnixNano()
	for k, v := range c.items {
		if v.expired(now) {
			delete(c.items, k)
		}
	}
}

// evictOldest drops the entry closest to expiry; caller holds c.mu.
// Entries without expiry are dropped only when nothing else is left.
func (c *MemoryCache) evictOldest() {
	var victim string
	var victimExp int64
	found := false

	for k, v := range c.items {
		if !found || (v.expiration != 0 && (victimExp == 0 || v.expiration < victimExp)) {
			victim, victimExp, found = k, v.expiration, true
		}
	}
	if found {
		delete(c.items, victim)
	}
}
