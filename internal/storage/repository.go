package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
)

// Cache maps a source URL to a previously resolved preview image URL.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the cached image URL for sourceURL.
	// It returns domain.ErrCacheMiss when there is no entry, or the entry
	// is expired or unreadable. Any other error is a *domain.CacheError.
	Get(ctx context.Context, sourceURL string) (string, error)

	// Put records imageURL as the resolution of sourceURL, superseding any
	// previous entry for the same key.
	Put(ctx context.Context, sourceURL, imageURL string) error
}

// CacheKey derives the content-addressed key for a source URL.
// The URL is hashed exactly as given; no normalization is applied.
func CacheKey(sourceURL string) string {
	sum := sha256.Sum256([]byte(sourceURL))
	return hex.EncodeToString(sum[:])
}
