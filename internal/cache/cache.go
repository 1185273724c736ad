package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"imagebot/internal/core"
)

// LRUCache is a thread-safe LRU cache with per-item expiration
type LRUCache[V any] struct {
	capacity int
	items    map[string]*cacheItem[V]
	mu       sync.Mutex
	head     *cacheItem[V]
	tail     *cacheItem[V]
	cancel   context.CancelFunc
}

type cacheItem[V any] struct {
	value      V
	expiration int64
	key        string
	prev       *cacheItem[V]
	next       *cacheItem[V]
}

// New creates an LRU cache holding at most capacity items and starts its cleanup worker.
// Non-positive capacity uses core.CacheDefaultCapacity.
func New[V any](capacity int) *LRUCache[V] {
	if capacity <= 0 {
		capacity = core.CacheDefaultCapacity
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &LRUCache[V]{
		capacity: capacity,
		items:    make(map[string]*cacheItem[V]),
		cancel:   cancel,
	}

	c.head = &cacheItem[V]{}
	c.tail = &cacheItem[V]{}
	c.head.next = c.tail
	c.tail.prev = c.head

	go c.startCleanupWorker(ctx)
	return c
}

func (c *LRUCache[V]) startCleanupWorker(ctx context.Context) {
	ticker := time.NewTicker(core.CacheCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanupExpired()
		case <-ctx.Done():
			return
		}
	}
}

// Stop terminates the cache cleanup worker goroutine.
func (c *LRUCache[V]) Stop() {
	c.cancel()
}

// Set stores a value in the cache with the given TTL.
func (c *LRUCache[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiration := time.Now().Add(ttl).UnixNano()
	if item, exists := c.items[key]; exists {
		item.value = value
		item.expiration = expiration
		c.moveToFront(item)
		return
	}

	item := &cacheItem[V]{value: value, expiration: expiration, key: key}
	c.addToFront(item)
	c.items[key] = item

	if len(c.items) > c.capacity {
		c.evict()
	}
}

// Get retrieves a value from the cache, returning false if not found or expired.
func (c *LRUCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	item, found := c.items[key]
	if !found {
		return zero, false
	}

	if time.Now().UnixNano() > item.expiration {
		c.remove(item)
		delete(c.items, key)
		return zero, false
	}

	c.moveToFront(item)
	return item.value, true
}

// Delete removes key from the cache.
func (c *LRUCache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if item, found := c.items[key]; found {
		c.remove(item)
		delete(c.items, key)
	}
}

// Len returns the number of stored items, expired or not.
func (c *LRUCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Clear removes all items
func (c *LRUCache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.head.next = c.tail
	c.tail.prev = c.head
	c.items = make(map[string]*cacheItem[V])
}

func (c *LRUCache[V]) addToFront(item *cacheItem[V]) {
	item.next = c.head.next
	item.prev = c.head
	c.head.next.prev = item
	c.head.next = item
}

func (c *LRUCache[V]) moveToFront(item *cacheItem[V]) {
	c.remove(item)
	c.addToFront(item)
}

func (c *LRUCache[V]) remove(item *cacheItem[V]) {
	item.prev.next = item.next
	item.next.prev = item.prev
}

func (c *LRUCache[V]) evict() {
	if c.tail.prev == c.head {
		return
	}
	item := c.tail.prev
	c.remove(item)
	delete(c.items, item.key)
}

func (c *LRUCache[V]) cleanupExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().UnixNano()
	for key, item := range c.items {
		if now > item.expiration {
			c.remove(item)
			delete(c.items, key)
		}
	}
}

// CatalogKey creates the cache key for a catalog URL
func CatalogKey(catalogURL string) string {
	return fmt.Sprintf("catalog:%s:%s", core.CacheKeyVersion, catalogURL)
}
