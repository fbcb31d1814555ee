package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// InMemoryPreviewCache is a size-bounded LRU with per-entry expiry.
// It is suitable for a single server process.
type InMemoryPreviewCache struct {
	lru *expirable.LRU[string, []byte]
}

// NewInMemoryPreviewCache creates the cache. maxEntries <= 0 means
// unbounded; ttl <= 0 means entries never expire.
func NewInMemoryPreviewCache(ttl time.Duration, maxEntries int) *InMemoryPreviewCache {
	return &InMemoryPreviewCache{
		lru: expirable.NewLRU[string, []byte](max(maxEntries, 0), nil, ttl),
	}
}

// Get returns a live entry and marks it most recently used
func (c *InMemoryPreviewCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	data, ok := c.lru.Get(key)
	return data, ok, nil
}

// Set stores data, evicting the least recently used entry when full
func (c *InMemoryPreviewCache) Set(_ context.Context, key string, data []byte) error {
	c.lru.Add(key, data)
	return nil
}

// Close drops every entry. Safe to call multiple times.
func (c *InMemoryPreviewCache) Close() error {
	c.lru.Purge()
	return nil
}

// Len returns the number of stored entries, expired ones not yet swept included
func (c *InMemoryPreviewCache) Len() int {
	return c.lru.Len()
}

var _ PreviewCache = (*InMemoryPreviewCache)(nil)
