package hyper

import (
	"crypto/sha1" //nolint:gosec // cache file naming, not security
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultCacheTTL is how long a cached schema document stays fresh.
const DefaultCacheTTL = 24 * time.Hour

// schemaCache stores the raw schema document of one (URL, access key)
// pair under <dir>/schema-<sha1>.json.
type schemaCache struct {
	dir string
	ttl time.Duration
	key string
}

func newSchemaCache(dir string, ttl time.Duration, url, accessKey string) *schemaCache {
	if dir == "" {
		dir = DefaultCacheDir()
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &schemaCache{dir: dir, ttl: ttl, key: cacheKey(url, accessKey)}
}

// DefaultCacheDir is <user cache dir>/hyperkit, or a temp directory when
// the user cache dir is unknown.
func DefaultCacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "hyperkit")
}

func cacheKey(url, accessKey string) string {
	h := sha1.New() //nolint:gosec
	h.Write([]byte(url))
	h.Write([]byte(accessKey))
	return hex.EncodeToString(h.Sum(nil))
}

func (c *schemaCache) path() string {
	return filepath.Join(c.dir, "schema-"+c.key+".json")
}

// read returns the cached document if it exists and is younger than the TTL.
func (c *schemaCache) read() (string, bool) {
	info, err := os.Stat(c.path())
	if err != nil || time.Since(info.ModTime()) >= c.ttl {
		return "", false
	}
	data, err := os.ReadFile(c.path())
	if err != nil || len(data) == 0 {
		return "", false
	}
	return string(data), true
}

// write replaces the cached document through a temp file and rename, so a
// concurrent reader never sees a partial file.
func (c *schemaCache) write(text string) error {
	if err := os.MkdirAll(c.dir, 0o700); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(c.dir, "schema-*.tmp")
	if err != nil {
		return fmt.Errorf("create cache file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.WriteString(text); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close cache file: %w", err)
	}
	return os.Rename(tmp.Name(), c.path())
}
