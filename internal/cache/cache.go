package cache

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// Item is a single local cache entry.
type Item struct {
	Key        string
	Value      []byte
	Expiration time.Time
}

// LRUCache is the local tier: a bounded LRU with per-entry expiration.
type LRUCache struct {
	capacity int
	lru      *simplelru.LRU[string, *Item]
	mu       sync.Mutex
	now      func() time.Time
}

var _ Store = (*LRUCache)(nil)

func New(capacity int) *LRUCache {
	if capacity <= 0 {
		capacity = 1
	}
	// simplelru only fails on a non-positive size
	l, _ := simplelru.NewLRU[string, *Item](capacity, nil)
	return &LRUCache{
		capacity: capacity,
		lru:      l,
		now:      time.Now,
	}
}

func (c *LRUCache) Name() string { return "memory" }

func (c *LRUCache) Get(_ context.Context, key string) ([]byte, time.Duration, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.lru.Get(key)
	if !ok {
		return nil, 0, false, nil
	}

	remaining := item.Expiration.Sub(c.now())
	if remaining <= 0 {
		c.lru.Remove(key)
		return nil, 0, false, nil
	}

	return item.Value, remaining, true, nil
}

func (c *LRUCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lru.Add(key, &Item{
		Key:        key,
		Value:      value,
		Expiration: c.now().Add(ttl),
	})
	return nil
}

func (c *LRUCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lru.Remove(key)
	return nil
}

// Clear drops every entry.
func (c *LRUCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lru.Purge()
}

// Len returns the number of entries, expired ones included until swept.
func (c *LRUCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.lru.Len()
}

func (c *LRUCache) Close() error {
	c.Clear()
	return nil
}

// CleanExpired removes every expired entry and returns how many were dropped.
func (c *LRUCache) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for _, key := range c.lru.Keys() {
		if item, ok := c.lru.Peek(key); ok && now.After(item.Expiration) {
			c.lru.Remove(key)
			removed++
		}
	}
	return removed
}
