package cache

import (
	"strings"
	"sync"
	"time"

	"github.com/geocoder89/yardsale/internal/clock"
)

// Cache is a small in-process TTL cache for read-heavy responses.
type Cache struct {
	mu         sync.RWMutex
	ttl        time.Duration
	maxEntries int
	clock      clock.Clock
	m          map[string]entry
}

type entry struct {
	val any
	exp time.Time
}

func New(ttl time.Duration, maxEntries int, clk clock.Clock) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	if maxEntries <= 0 {
		maxEntries = 1024
	}
	if clk == nil {
		clk = clock.System{}
	}

	return &Cache{
		ttl:        ttl,
		maxEntries: maxEntries,
		clock:      clk,
		m:          make(map[string]entry),
	}
}

func (c *Cache) Get(key string) (any, bool) {
	now := c.clock.Now()

	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if !now.Before(e.exp) {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
		return nil, false
	}

	return e.val, true
}

func (c *Cache) Set(key string, val any) {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.m[key]; !ok && len(c.m) >= c.maxEntries {
		c.evictLocked(now)
	}
	c.m[key] = entry{val: val, exp: now.Add(c.ttl)}
}

// evictLocked drops expired entries, or everything when none has expired.
func (c *Cache) evictLocked(now time.Time) {
	for k, e := range c.m {
		if !now.Before(e.exp) {
			delete(c.m, k)
		}
	}
	if len(c.m) >= c.maxEntries {
		c.m = make(map[string]entry)
	}
}

func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.m, key)
	c.mu.Unlock()
}

func (c *Cache) DeletePrefix(prefix string) {
	c.mu.Lock()
	for k := range c.m {
		if strings.HasPrefix(k, prefix) {
			delete(c.m, k)
		}
	}
	c.mu.Unlock()
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}
