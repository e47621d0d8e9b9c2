package cache

import (
	"context"
	"sync"
	"time"
)

// Config holds the cache configuration.
type Config struct {
	DefaultTTL      time.Duration
	CleanupInterval time.Duration
	MaxItems        int
	OnEviction      func(key string, value any)
}

type item struct {
	value    any
	expireAt time.Time
	lastUsed time.Time
}

// Cache is an in-memory TTL cache with a bounded item count.
// When the cache is full the least recently used entry is evicted.
type Cache struct {
	config Config

	mu    sync.RWMutex
	items map[string]*item

	stopCleanup chan struct{}
	closeOnce   sync.Once
}

// New creates a new cache and starts its cleanup goroutine.
func New(config Config) *Cache {
	if config.DefaultTTL <= 0 {
		config.DefaultTTL = 10 * time.Minute
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = 5 * time.Minute
	}
	if config.MaxItems <= 0 {
		config.MaxItems = 1000
	}

	c := &Cache{
		config:      config,
		items:       make(map[string]*item),
		stopCleanup: make(chan struct{}),
	}
	go c.cleanupLoop()
	return c
}

// Set stores a value with the default TTL.
func (c *Cache) Set(ctx context.Context, key string, value any) {
	c.SetWithTTL(ctx, key, value, c.config.DefaultTTL)
}

// SetWithTTL stores a value with a custom TTL.
func (c *Cache) SetWithTTL(_ context.Context, key string, value any, ttl time.Duration) {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[key]; !ok && len(c.items) >= c.config.MaxItems {
		c.evictOldestLocked()
	}
	c.items[key] = &item{
		value:    value,
		expireAt: now.Add(ttl),
		lastUsed: now,
	}
}

// Get retrieves a value. Expired entries are treated as missing.
func (c *Cache) Get(_ context.Context, key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	it, ok := c.items[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(it.expireAt) {
		delete(c.items, key)
		if c.config.OnEviction != nil {
			c.config.OnEviction(key, it.value)
		}
		return nil, false
	}
	it.lastUsed = time.Now()
	return it.value, true
}

// Delete removes a value from the cache.
func (c *Cache) Delete(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Clear removes all values from the cache.
func (c *Cache) Clear(_ context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*item)
}

// Size returns the number of entries currently stored.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Close stops the cleanup goroutine.
func (c *Cache) Close() {
	c.closeOnce.Do(func() {
		close(c.stopCleanup)
	})
}

func (c *Cache) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	for key, it := range c.items {
		if oldestKey == "" || it.lastUsed.Before(oldest) {
			oldestKey = key
			oldest = it.lastUsed
		}
	}
	if oldestKey != "" {
		it := c.items[oldestKey]
		delete(c.items, oldestKey)
		if c.config.OnEviction != nil {
			c.config.OnEviction(oldestKey, it.value)
		}
	}
}

func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(c.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stopCleanup:
			return
		}
	}
}

func (c *Cache) removeExpired() {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for key, it := range c.items {
		if now.After(it.expireAt) {
			delete(c.items, key)
			if c.config.OnEviction != nil {
				c.config.OnEviction(key, it.value)
			}
		}
	}
}
