package thirteenf

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CacheTTL is how long a cached payload is considered fresh. Entries older
// than this are treated as absent; they are never proactively evicted.
const CacheTTL = 24 * time.Hour

// Cache is a keyed on-disk store for fetched EDGAR payloads. Keys are
// hashed to filesystem-safe names, one file per key. There is no locking:
// concurrent writers to the same key race and the last writer wins, which
// is acceptable because payloads are idempotent re-fetches of the same
// upstream resource.
type Cache struct {
	dir string
	ttl time.Duration
	log *zap.Logger

	// group collapses concurrent fetch-throughs for the same key.
	group singleflight.Group

	now func() time.Time
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithCacheTTL overrides the default 24h TTL.
func WithCacheTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) { c.ttl = ttl }
}

// WithCacheLogger sets the logger. The default is a no-op logger.
func WithCacheLogger(log *zap.Logger) CacheOption {
	return func(c *Cache) { c.log = log }
}

// NewCache creates a cache rooted at dir, creating the directory if needed.
func NewCache(dir string, opts ...CacheOption) (*Cache, error) {
	c := &Cache{
		dir: dir,
		ttl: CacheTTL,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return c, nil
}

// cacheEntry is the on-disk envelope: the payload plus its fetch time.
type cacheEntry struct {
	FetchedAt time.Time `json:"fetchedAt"`
	Payload   []byte    `json:"payload"`
}

func (c *Cache) path(key string) string {
	sum := md5.Sum([]byte(key))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:])+".json")
}

// Get returns the cached payload for key, or ok=false if the entry is
// absent, expired, or unreadable. Corruption is logged and treated as a
// miss, never propagated as an error.
func (c *Cache) Get(key string) ([]byte, bool) {
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		return nil, false
	}

	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		c.log.Warn("corrupt cache entry, treating as miss",
			zap.String("key", key), zap.Error(err))
		return nil, false
	}

	if c.now().Sub(entry.FetchedAt) > c.ttl {
		return nil, false
	}
	return entry.Payload, true
}

// Set stores payload under key, stamped with the current time. Write
// failures are logged and otherwise ignored; the cache is best-effort.
func (c *Cache) Set(key string, payload []byte) {
	entry := cacheEntry{FetchedAt: c.now(), Payload: payload}
	data, err := json.Marshal(entry)
	if err != nil {
		c.log.Warn("failed to encode cache entry", zap.String("key", key), zap.Error(err))
		return
	}
	if err := os.WriteFile(c.path(key), data, 0644); err != nil {
		c.log.Warn("failed to write cache entry", zap.String("key", key), zap.Error(err))
	}
}

// Clear removes the entry for key, or every entry when key is empty.
func (c *Cache) Clear(key string) error {
	if key != "" {
		err := os.Remove(c.path(key))
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to clear cache entry: %w", err)
		}
		return nil
	}

	files, err := filepath.Glob(filepath.Join(c.dir, "*.json"))
	if err != nil {
		return fmt.Errorf("failed to list cache entries: %w", err)
	}
	for _, f := range files {
		if err := os.Remove(f); err != nil {
			return fmt.Errorf("failed to remove %s: %w", f, err)
		}
	}
	return nil
}

// GetOrFetch returns the cached payload for key, fetching and populating
// the cache on a miss. Concurrent calls for the same key share a single
// fetch. Fetch errors are returned without poisoning the cache.
func (c *Cache) GetOrFetch(key string, fetch func() ([]byte, error)) ([]byte, error) {
	if payload, ok := c.Get(key); ok {
		return payload, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		// Another caller may have populated the entry while we waited.
		if payload, ok := c.Get(key); ok {
			return payload, nil
		}
		payload, err := fetch()
		if err != nil {
			return nil, err
		}
		c.Set(key, payload)
		return payload, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}
