package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value      V
	expiration time.Time
}

func (e *entry[V]) expired(now time.Time) bool {
	return now.After(e.expiration)
}

// MemoryCache is an in-memory TTL cache bounded to maxEntries items.
// When full, the entry closest to expiry is evicted.
type MemoryCache[V any] struct {
	items      map[string]*entry[V]
	mutex      sync.RWMutex
	ttl        time.Duration
	maxEntries int
	done       chan struct{}
	closeOnce  sync.Once
}

// NewMemoryCache creates a cache and starts its cleanup loop. maxEntries
// <= 0 means unbounded. Close stops the loop.
func NewMemoryCache[V any](ttl time.Duration, maxEntries int) *MemoryCache[V] {
	c := &MemoryCache[V]{
		items:      make(map[string]*entry[V]),
		ttl:        ttl,
		maxEntries: maxEntries,
		done:       make(chan struct{}),
	}
	go c.cleanupExpired(cleanupInterval(ttl))
	return c
}

func cleanupInterval(ttl time.Duration) time.Duration {
	if ttl <= 0 || ttl > 5*time.Minute {
		return 5 * time.Minute
	}
	return ttl
}

// Set stores a value
func (c *MemoryCache[V]) Set(key string, value V) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if _, exists := c.items[key]; !exists && c.maxEntries > 0 && len(c.items) >= c.maxEntries {
		c.evictOldest()
	}
	c.items[key] = &entry[V]{value: value, expiration: time.Now().Add(c.ttl)}
}

// evictOldest must be called with the write lock held
func (c *MemoryCache[V]) evictOldest() {
	var oldestKey string
	var oldest time.Time
	for k, e := range c.items {
		if oldestKey == "" || e.expiration.Before(oldest) {
			oldestKey, oldest = k, e.expiration
		}
	}
	delete(c.items, oldestKey)
}

// Get retrieves a value that has not expired
func (c *MemoryCache[V]) Get(key string) (V, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	e, exists := c.items[key]
	if !exists || e.expired(time.Now()) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Delete removes a value
func (c *MemoryCache[V]) Delete(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.items, key)
}

// Clear removes all values
func (c *MemoryCache[V]) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.items = make(map[string]*entry[V])
}

// Size returns the number of stored entries, expired ones included
func (c *MemoryCache[V]) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.items)
}

// Close stops the cleanup loop
func (c *MemoryCache[V]) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *MemoryCache[V]) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.purge()
		}
	}
}

func (c *MemoryCache[V]) purge() {
	now := time.Now()
	c.mutex.Lock()
	defer c.mutex.Unlock()
	for key, e := range c.items {
		if e.expired(now) {
			delete(c.items, key)
		}
	}
}

// Image is an encoded picture ready to be served
type Image struct {
	Data     []byte
	MimeType string
}

// ArtworkCache holds scaled remote artwork keyed by source URL
type ArtworkCache struct {
	*MemoryCache[Image]
}

// NewArtworkCache creates an artwork cache
func NewArtworkCache(ttl time.Duration, maxEntries int) *ArtworkCache {
	return &ArtworkCache{MemoryCache: NewMemoryCache[Image](ttl, maxEntries)}
}
