package cache

import (
	"sync"
	"time"
)

type item struct {
	value      int
	expiration int64
}

// Cache is an expiring counter map keyed by string.
type Cache struct {
	items map[string]item
	mu    sync.RWMutex
	now   func() time.Time
	stop  chan struct{}
	once  sync.Once
}

// New starts a cache whose expired entries are swept every cleanupEvery.
// A zero cleanupEvery disables the janitor.
func New(cleanupEvery time.Duration) *Cache {
	c := &Cache{
		items: make(map[string]item),
		now:   time.Now,
		stop:  make(chan struct{}),
	}
	if cleanupEvery > 0 {
		go c.cleanupExpired(cleanupEvery)
	}
	return c
}

// Set stores value under key for ttl.
func (c *Cache) Set(key string, value int, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = item{value: value, expiration: c.now().Add(ttl).UnixNano()}
}

// Get returns the live value under key.
func (c *Cache) Get(key string) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	it, found := c.items[key]
	if !found || c.now().UnixNano() > it.expiration {
		return 0, false
	}
	return it.value, true
}

// Incr adds one to the value under key. A missing or expired key starts at 1 with a fresh ttl;
// a live key keeps its original expiration.
func (c *Cache) Incr(key string, ttl time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now().UnixNano()
	it, found := c.items[key]
	if !found || now > it.expiration {
		it = item{expiration: now + int64(ttl)}
	}
	it.value++
	c.items[key] = it
	return it.value
}

// Delete removes key.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Size counts stored entries, expired ones included until swept.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Close stops the janitor.
func (c *Cache) Close() {
	c.once.Do(func() { close(c.stop) })
}

func (c *Cache) cleanupExpired(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.stop:
			return
		}
	}
}

func (c *Cache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now().UnixNano()
	for key, it := range c.items {
		if now > it.expiration {
			delete(c.items, key)
		}
	}
}
