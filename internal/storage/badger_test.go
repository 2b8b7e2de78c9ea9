package storage

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ogresolver/internal/domain"
)

// setupTestDB creates a temporary BadgerDB cache for testing.
// It returns the cache instance and a cleanup function.
func setupTestDB(t *testing.T) (*BadgerCache, func()) {
	t.Helper()

	testLogger := logrus.New()
	testLogger.SetOutput(os.Stderr)
	testLogger.SetLevel(logrus.ErrorLevel)

	cache, err := NewBadgerCache(t.TempDir(), time.Hour, testLogger)
	require.NoError(t, err, "Failed to create test BadgerDB cache")

	cleanup := func() {
		assert.NoError(t, cache.Close(), "Failed to close test BadgerDB cache")
	}
	return cache, cleanup
}

func TestBadgerCache_PutAndGet(t *testing.T) {
	cache, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	src := "https://example.test/post/1"

	_, err := cache.Get(ctx, src)
	assert.ErrorIs(t, err, domain.ErrCacheMiss, "Empty cache should miss")

	require.NoError(t, cache.Put(ctx, src, "https://example.test/img/a.png"))

	got, err := cache.Get(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, "https://example.test/img/a.png", got)

	// A fresher resolution supersedes the old one.
	require.NoError(t, cache.Put(ctx, src, "https://example.test/img/b.png"))
	got, err = cache.Get(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, "https://example.test/img/b.png", got)
}

func TestBadgerCache_KeysAreNotNormalized(t *testing.T) {
	cache, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, cache.Put(ctx, "https://example.test/post/1", "https://example.test/a.png"))

	_, err := cache.Get(ctx, "https://example.test/post/1/")
	assert.ErrorIs(t, err, domain.ErrCacheMiss, "Trailing slash is a distinct key")

	_, err = cache.Get(ctx, "HTTPS://example.test/post/1")
	assert.ErrorIs(t, err, domain.ErrCacheMiss, "Scheme case is a distinct key")
}

func TestBadgerCache_ExpiredEntryIsMiss(t *testing.T) {
	cache, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	src := "https://example.test/post/2"

	base := time.Now()
	cache.now = func() time.Time { return base }
	require.NoError(t, cache.Put(ctx, src, "https://example.test/a.png"))

	cache.now = func() time.Time { return base.Add(59 * time.Minute) }
	_, err := cache.Get(ctx, src)
	require.NoError(t, err, "Entry younger than TTL should hit")

	cache.now = func() time.Time { return base.Add(time.Hour) }
	_, err = cache.Get(ctx, src)
	assert.ErrorIs(t, err, domain.ErrCacheMiss, "Entry at TTL should miss")
}

func TestBadgerCache_CorruptEntryIsMiss(t *testing.T) {
	cache, cleanup := setupTestDB(t)
	defer cleanup()

	src := "https://example.test/post/3"
	err := cache.db.Update(func(txn *badger.Txn) error {
		return txn.Set(entryKey(src), []byte("{not json"))
	})
	require.NoError(t, err)

	_, err = cache.Get(context.Background(), src)
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
}

func TestBadgerCache_ConcurrentDistinctKeys(t *testing.T) {
	cache, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			src := fmt.Sprintf("https://example.test/post/%d", i)
			assert.NoError(t, cache.Put(ctx, src, fmt.Sprintf("https://example.test/%d.png", i)))
			got, err := cache.Get(ctx, src)
			assert.NoError(t, err)
			assert.Equal(t, fmt.Sprintf("https://example.test/%d.png", i), got)
		}(i)
	}
	wg.Wait()
}

func TestBadgerCache_RunGCStopsOnCancel(t *testing.T) {
	cache, cleanup := setupTestDB(t)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		cache.RunGC(ctx, 10*time.Millisecond)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RunGC did not stop after cancel")
	}
}

func TestCacheKey(t *testing.T) {
	k1 := CacheKey("https://example.test/a")
	k2 := CacheKey("https://example.test/a")
	k3 := CacheKey("https://example.test/b")

	assert.Len(t, k1, 64)
	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
}
