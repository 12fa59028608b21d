// Package cache provides the in-memory caches backing diff and status
// lookups for worktrees.
package cache

import (
	"container/list"
	"strings"
	"sync"
	"time"
)

// lruEntry is a single cached value with its expiry metadata
type lruEntry struct {
	key       string
	value     interface{}
	createdAt time.Time
	ttl       time.Duration
}

// expired reports whether the entry's TTL has elapsed. A zero TTL never
// expires.
func (e *lruEntry) expired() bool {
	if e.ttl == 0 {
		return false
	}
	return time.Since(e.createdAt) > e.ttl
}

// LRUCache implements the Cache interface using LRU eviction
type LRUCache struct {
	config       Config
	items        map[string]*list.Element
	evictionList *list.List
	stats        Stats
	mu           sync.RWMutex
	stopCleanup  chan struct{}
	cleanupDone  chan struct{}
}

// NewLRUCache creates a new LRU cache with the given configuration
func NewLRUCache(config Config) *LRUCache {
	cache := &LRUCache{
		config:       config,
		items:        make(map[string]*list.Element),
		evictionList: list.New(),
		stats: Stats{
			MaxSize:     config.MaxSize,
			LastCleanup: time.Now(),
		},
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}

	if config.CleanupPeriod > 0 {
		go cache.backgroundCleanup()
	}

	return cache
}

// NewLRUCacheWithDefaults creates a new LRU cache with default configuration
func NewLRUCacheWithDefaults() *LRUCache {
	return NewLRUCache(DefaultConfig())
}

// Get retrieves an item from cache
func (c *LRUCache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	element, exists := c.items[key]
	if !exists {
		if c.config.EnableStats {
			c.stats.Misses++
		}
		return nil, false
	}

	entry := element.Value.(*lruEntry)

	// An expired entry reads as a miss
	if entry.expired() {
		c.removeElementLocked(element)
		if c.config.EnableStats {
			c.stats.Misses++
		}
		return nil, false
	}

	c.evictionList.MoveToFront(element)

	if c.config.EnableStats {
		c.stats.Hits++
	}

	return entry.value, true
}

// Set stores an item in cache with the default TTL
func (c *LRUCache) Set(key string, value interface{}) {
	c.SetWithTTL(key, value, c.config.DefaultTTL)
}

// SetWithTTL stores an item in cache with a custom TTL
func (c *LRUCache) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if element, exists := c.items[key]; exists {
		entry := element.Value.(*lruEntry)
		entry.value = value
		entry.createdAt = time.Now()
		entry.ttl = ttl
		c.evictionList.MoveToFront(element)
		return
	}

	entry := &lruEntry{
		key:       key,
		value:     value,
		createdAt: time.Now(),
		ttl:       ttl,
	}

	element := c.evictionList.PushFront(entry)
	c.items[key] = element

	if c.evictionList.Len() > c.config.MaxSize {
		c.evictOldestLocked()
	}
}

// Delete removes an item from cache
func (c *LRUCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if element, exists := c.items[key]; exists {
		c.removeElementLocked(element)
	}
}

// Clear removes all items whose key starts with prefix and returns how many
// were removed
func (c *LRUCache) Clear(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Collect first to avoid mutating the map mid-iteration
	keysToRemove := make([]string, 0)
	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			keysToRemove = append(keysToRemove, key)
		}
	}

	for _, key := range keysToRemove {
		if element, exists := c.items[key]; exists {
			c.removeElementLocked(element)
		}
	}

	return len(keysToRemove)
}

// Cleanup removes entries whose TTL has elapsed and returns how many were
// removed
func (c *LRUCache) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	keysToRemove := make([]string, 0)
	for key, element := range c.items {
		if element.Value.(*lruEntry).expired() {
			keysToRemove = append(keysToRemove, key)
		}
	}

	for _, key := range keysToRemove {
		if element, exists := c.items[key]; exists {
			c.removeElementLocked(element)
		}
	}

	c.stats.LastCleanup = time.Now()
	return len(keysToRemove)
}

// Size returns the current cache size
func (c *LRUCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Stats returns cache statistics
func (c *LRUCache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := c.stats
	stats.Size = len(c.items)

	total := stats.Hits + stats.Misses
	if total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total)
	}

	return stats
}

// Close shuts down the cache and its background cleanup
func (c *LRUCache) Close() error {
	if c.config.CleanupPeriod > 0 {
		close(c.stopCleanup)
		<-c.cleanupDone
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.evictionList = list.New()

	return nil
}

// removeElementLocked removes an element (caller must hold mu)
func (c *LRUCache) removeElementLocked(element *list.Element) {
	entry := element.Value.(*lruEntry)
	delete(c.items, entry.key)
	c.evictionList.Remove(element)
}

// evictOldestLocked evicts the least recently used entry (caller must hold mu)
func (c *LRUCache) evictOldestLocked() {
	oldest := c.evictionList.Back()
	if oldest != nil {
		c.removeElementLocked(oldest)
		if c.config.EnableStats {
			c.stats.Evictions++
		}
	}
}

func (c *LRUCache) backgroundCleanup() {
	defer close(c.cleanupDone)

	ticker := time.NewTicker(c.config.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Cleanup()
		case <-c.stopCleanup:
			return
		}
	}
}
