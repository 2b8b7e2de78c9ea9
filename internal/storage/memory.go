package storage

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"ogresolver/internal/domain"
)

// MemoryCache is a bounded in-process Cache with the same TTL rules as
// BadgerCache. The least recently used entry is evicted when full.
type MemoryCache struct {
	entries *lru.Cache[string, domain.CacheEntry]
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryCache creates a cache holding at most size entries.
func NewMemoryCache(size int, ttl time.Duration) (*MemoryCache, error) {
	entries, err := lru.New[string, domain.CacheEntry](size)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}
	return &MemoryCache{entries: entries, ttl: ttl, now: time.Now}, nil
}

// Get implements Cache.
func (m *MemoryCache) Get(_ context.Context, sourceURL string) (string, error) {
	entry, ok := m.entries.Get(CacheKey(sourceURL))
	if !ok || entry.Expired(m.now(), m.ttl) {
		return "", domain.ErrCacheMiss
	}
	return entry.ImageURL, nil
}

// Put implements Cache.
func (m *MemoryCache) Put(_ context.Context, sourceURL, imageURL string) error {
	m.putEntry(domain.CacheEntry{
		SourceURL: sourceURL,
		ImageURL:  imageURL,
		CreatedAt: m.now(),
	})
	return nil
}

func (m *MemoryCache) putEntry(entry domain.CacheEntry) {
	m.entries.Add(CacheKey(entry.SourceURL), entry)
}

// Len returns the number of entries held, including expired ones not yet evicted.
func (m *MemoryCache) Len() int {
	return m.entries.Len()
}
