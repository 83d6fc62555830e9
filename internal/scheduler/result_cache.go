/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package scheduler

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// ResultCacheConfig mirrors internal/config.ResultCacheConfig, kept
// standalone here to avoid an import cycle.
type ResultCacheConfig struct {
	Enabled    bool
	TTL        time.Duration
	MaxEntries int
}

// CacheResult is a cached task outcome, supplemental to spec.md and
// grounded on the teacher's internal/controller/result_cache.go.
type CacheResult struct {
	Output    []byte
	TokensIn  int64
	TokensOut int64
	Model     string
}

// ResultCache deduplicates identical (taskType, input) pairs within a TTL
// window, wiring github.com/patrickmn/go-cache for TTL expiry (the same
// library and janitor-based eviction internal/token.Service uses for its
// revoked-nonce set) with a thin MaxEntries cap on top, since go-cache has
// no notion of a maximum item count of its own.
type ResultCache struct {
	mu    sync.Mutex
	cache *gocache.Cache
	order []string
	cfg   ResultCacheConfig
}

// NewResultCache constructs a cache, defaulting MaxEntries=1000 and
// TTL=10m when unset, matching the teacher's NewResultCache.
func NewResultCache(cfg ResultCacheConfig) *ResultCache {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 1000
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Minute
	}
	return &ResultCache{cache: gocache.New(cfg.TTL, cfg.TTL/2), cfg: cfg}
}

// CacheKey derives a stable key from a task's type and input bytes, the
// same role the teacher's CacheKey(prompt, role) plays.
func CacheKey(taskType string, input []byte) string {
	h := sha256.New()
	h.Write([]byte(taskType))
	h.Write([]byte{0x00})
	h.Write(input)
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached result for key, or nil on a miss or expired entry.
func (c *ResultCache) Get(key string) *CacheResult {
	if !c.cfg.Enabled {
		return nil
	}
	v, ok := c.cache.Get(key)
	if !ok {
		return nil
	}
	r := v.(CacheResult)
	return &r
}

// Put stores result under key, evicting the oldest entry if over capacity.
func (c *ResultCache) Put(key string, result *CacheResult) {
	if !c.cfg.Enabled || result == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.cache.Get(key); !exists {
		c.order = append(c.order, key)
	}
	c.cache.SetDefault(key, *result)
	for len(c.order) > c.cfg.MaxEntries {
		oldest := c.order[0]
		c.order = c.order[1:]
		c.cache.Delete(oldest)
	}
}
