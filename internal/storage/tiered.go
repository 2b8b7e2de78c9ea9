package storage

import (
	"context"

	"ogresolver/internal/domain"
)

// entryReader is implemented by stores that can return the full entry,
// so promotion into the front tier keeps the original creation time.
type entryReader interface {
	getEntry(ctx context.Context, sourceURL string) (domain.CacheEntry, error)
}

// TieredCache serves from an in-memory front cache and falls back to a
// durable one.
type TieredCache struct {
	front *MemoryCache
	back  Cache
}

// NewTieredCache composes front and back. Hits on back are copied into front.
func NewTieredCache(front *MemoryCache, back Cache) *TieredCache {
	return &TieredCache{front: front, back: back}
}

// Get implements Cache.
func (t *TieredCache) Get(ctx context.Context, sourceURL string) (string, error) {
	if imageURL, err := t.front.Get(ctx, sourceURL); err == nil {
		return imageURL, nil
	}

	if r, ok := t.back.(entryReader); ok {
		entry, err := r.getEntry(ctx, sourceURL)
		if err != nil {
			return "", err
		}
		t.front.putEntry(entry)
		return entry.ImageURL, nil
	}

	imageURL, err := t.back.Get(ctx, sourceURL)
	if err != nil {
		return "", err
	}
	_ = t.front.Put(ctx, sourceURL, imageURL)
	return imageURL, nil
}

// Put implements Cache. Both tiers are written; only a back failure is
// reported since the front tier cannot fail.
func (t *TieredCache) Put(ctx context.Context, sourceURL, imageURL string) error {
	_ = t.front.Put(ctx, sourceURL, imageURL)
	return t.back.Put(ctx, sourceURL, imageURL)
}
