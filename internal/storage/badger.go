package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"ogresolver/internal/domain"
)

const keyPrefix = "social-image:"

// BadgerCache implements Cache on top of BadgerDB.
type BadgerCache struct {
	db  *badger.DB
	ttl time.Duration
	log logrus.FieldLogger
	now func() time.Time
}

// NewBadgerCache opens (or creates) the database at dbPath.
// Entries older than ttl are treated as absent.
func NewBadgerCache(dbPath string, ttl time.Duration, logger logrus.FieldLogger) (*BadgerCache, error) {
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = &badgerLogger{logger.WithField("component", "badgerdb")}

	db, err := badger.Open(opts)
	if err != nil {
		logger.WithError(err).Error("Failed to open BadgerDB")
		return nil, fmt.Errorf("failed to open badger db at %s: %w", dbPath, err)
	}
	logger.WithField("path", dbPath).Info("BadgerDB opened successfully")

	return &BadgerCache{
		db:  db,
		ttl: ttl,
		log: logger.WithField("component", "cache"),
		now: time.Now,
	}, nil
}

// Close closes the BadgerDB database.
func (c *BadgerCache) Close() error {
	c.log.Info("Closing BadgerDB...")
	if err := c.db.Close(); err != nil {
		c.log.WithError(err).Error("Error closing BadgerDB")
		return err
	}
	c.log.Info("BadgerDB closed.")
	return nil
}

func entryKey(sourceURL string) []byte {
	return []byte(keyPrefix + CacheKey(sourceURL))
}

// Get implements Cache.
func (c *BadgerCache) Get(ctx context.Context, sourceURL string) (string, error) {
	entry, err := c.getEntry(ctx, sourceURL)
	if err != nil {
		return "", err
	}
	return entry.ImageURL, nil
}

func (c *BadgerCache) getEntry(_ context.Context, sourceURL string) (domain.CacheEntry, error) {
	key := entryKey(sourceURL)

	var entry domain.CacheEntry
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})

	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		return domain.CacheEntry{}, domain.ErrCacheMiss
	case err != nil:
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
			c.log.WithError(err).WithField("key", string(key)).Warn("Discarding corrupt cache entry")
			return domain.CacheEntry{}, domain.ErrCacheMiss
		}
		return domain.CacheEntry{}, &domain.CacheError{Op: "get", Key: string(key), Err: err}
	}

	if entry.ImageURL == "" || entry.Expired(c.now(), c.ttl) {
		return domain.CacheEntry{}, domain.ErrCacheMiss
	}
	return entry, nil
}

// Put implements Cache. The entry also carries a native badger TTL so that
// compaction eventually drops it.
func (c *BadgerCache) Put(ctx context.Context, sourceURL, imageURL string) error {
	key := entryKey(sourceURL)

	val, err := json.Marshal(domain.CacheEntry{
		SourceURL: sourceURL,
		ImageURL:  imageURL,
		CreatedAt: c.now(),
	})
	if err != nil {
		return &domain.CacheError{Op: "put", Key: string(key), Err: err}
	}

	err = c.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(key, val).WithTTL(c.ttl))
	})
	if err != nil {
		return &domain.CacheError{Op: "put", Key: string(key), Err: err}
	}

	c.log.WithField("url", sourceURL).Debug("Cached resolved image")
	return nil
}

// RunGC periodically reclaims value log space until ctx is cancelled.
func (c *BadgerCache) RunGC(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			err := c.db.RunValueLogGC(0.7)
			switch {
			case err == nil:
				c.log.Info("BadgerDB GC completed successfully")
			case errors.Is(err, badger.ErrNoRewrite):
				c.log.Debug("BadgerDB GC: No rewrite needed")
			case errors.Is(err, badger.ErrDBClosed):
				return
			default:
				c.log.WithError(err).Error("BadgerDB GC failed")
			}
		case <-ctx.Done():
			c.log.Info("Stopping BadgerDB GC routine")
			return
		}
	}
}

// badgerLogger adapts logrus.FieldLogger to Badger's logger interface.
type badgerLogger struct {
	logger logrus.FieldLogger
}

func (l *badgerLogger) Errorf(f string, v ...interface{}) {
	l.logger.Errorf(f, v...)
}
func (l *badgerLogger) Warningf(f string, v ...interface{}) {
	l.logger.Warningf(f, v...)
}
func (l *badgerLogger) Infof(f string, v ...interface{}) {
	l.logger.Infof(f, v...)
}
func (l *badgerLogger) Debugf(f string, v ...interface{}) {
	l.logger.Debugf(f, v...)
}
