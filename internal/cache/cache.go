// Package cache keeps user nicknames close to the feed renderer, which
// resolves one nickname per task card.
package cache

import (
	"context"
	"sync"
	"time"
)

// NicknameCache maps user ids to nicknames.
type NicknameCache interface {
	Get(ctx context.Context, userID string) (string, bool)
	Set(ctx context.Context, userID, nickname string)
	Delete(ctx context.Context, userID string)
}

type memoryEntry struct {
	nickname string
	expires  time.Time
}

// MemoryCache is an in-process NicknameCache used when Redis is not
// configured. Expired entries are dropped when read, and at most once per
// TTL on write.
type MemoryCache struct {
	mu        sync.RWMutex
	ttl       time.Duration
	entries   map[string]memoryEntry
	now       func() time.Time
	lastPrune time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{ttl: ttl, entries: make(map[string]memoryEntry), now: time.Now}
}

func (c *MemoryCache) expired(e memoryEntry, now time.Time) bool {
	return c.ttl > 0 && now.After(e.expires)
}

func (c *MemoryCache) Get(_ context.Context, userID string) (string, bool) {
	c.mu.RLock()
	e, ok := c.entries[userID]
	c.mu.RUnlock()
	if !ok {
		return "", false
	}
	if now := c.now(); c.expired(e, now) {
		c.mu.Lock()
		if cur, ok := c.entries[userID]; ok && c.expired(cur, now) {
			delete(c.entries, userID)
		}
		c.mu.Unlock()
		return "", false
	}
	return e.nickname, true
}

func (c *MemoryCache) Set(_ context.Context, userID, nickname string) {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[userID] = memoryEntry{nickname: nickname, expires: now.Add(c.ttl)}
	if c.ttl > 0 && now.Sub(c.lastPrune) >= c.ttl {
		c.pruneLocked(now)
	}
}

func (c *MemoryCache) Delete(_ context.Context, userID string) {
	c.mu.Lock()
	delete(c.entries, userID)
	c.mu.Unlock()
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *MemoryCache) pruneLocked(now time.Time) {
	for id, e := range c.entries {
		if c.expired(e, now) {
			delete(c.entries, id)
		}
	}
	c.lastPrune = now
}
