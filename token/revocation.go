package token

import (
	"sync"
	"time"
)

// RevokedTokenCache tracks access tokens revoked by logout until they would
// have expired anyway.
type RevokedTokenCache interface {
	Add(jti string, exp time.Time) error
	IsRevoked(jti string) bool
	Cleanup() int // Remove expired entries, returning how many were dropped
}

// InMemoryRevokedTokenCache is a simple in-memory implementation
type InMemoryRevokedTokenCache struct {
	revoked map[string]time.Time
	nowFunc func() time.Time
	mu      sync.RWMutex
}

var _ RevokedTokenCache = (*InMemoryRevokedTokenCache)(nil)

func NewInMemoryRevokedTokenCache(nowFunc func() time.Time) *InMemoryRevokedTokenCache {
	if nowFunc == nil {
		nowFunc = time.Now
	}
	return &InMemoryRevokedTokenCache{
		revoked: make(map[string]time.Time),
		nowFunc: nowFunc,
	}
}

func (c *InMemoryRevokedTokenCache) Add(jti string, exp time.Time) error {
	if jti == "" {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.revoked[jti] = exp
	return nil
}

func (c *InMemoryRevokedTokenCache) IsRevoked(jti string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, exists := c.revoked[jti]
	return exists
}

func (c *InMemoryRevokedTokenCache) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.nowFunc()
	removed := 0
	for jti, exp := range c.revoked {
		if now.After(exp) {
			delete(c.revoked, jti)
			removed++
		}
	}
	return removed
}
