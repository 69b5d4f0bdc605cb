package websearch

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
)

// DiskCache persists query results as JSON files under a cache directory,
// keyed by a hash of the query. Entries expire after a TTL. A file lock
// guards writes so concurrent Scout processes (CLI and MCP server) can
// share the cache safely.
type DiskCache struct {
	dir  string
	ttl  time.Duration
	lock *flock.Flock
}

// diskEntry is the on-disk representation of a cached query.
type diskEntry struct {
	Query     string    `json:"query"`
	Limit     int       `json:"limit"`
	FetchedAt time.Time `json:"fetched_at"`
	Hits      []Hit     `json:"hits"`
}

// NewDiskCache creates (and if needed, initializes) a disk cache at dir.
func NewDiskCache(dir string, ttl time.Duration) (*DiskCache, error) {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	return &DiskCache{
		dir:  dir,
		ttl:  ttl,
		lock: flock.New(filepath.Join(dir, ".cache.lock")),
	}, nil
}

// Get returns the cached hits for a query if present and fresh.
// A stale entry is removed and reported as a miss.
func (d *DiskCache) Get(query string, limit int) ([]Hit, bool) {
	path := d.entryPath(query, limit)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var entry diskEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		// Corrupt entry: drop it.
		_ = os.Remove(path)
		return nil, false
	}

	if time.Since(entry.FetchedAt) > d.ttl {
		_ = os.Remove(path)
		return nil, false
	}

	return entry.Hits, true
}

// Put stores hits for a query. Empty result sets are not persisted so a
// transient outage doesn't poison the cache for a whole TTL.
func (d *DiskCache) Put(query string, limit int, hits []Hit) error {
	if len(hits) == 0 {
		return nil
	}

	entry := diskEntry{
		Query:     query,
		Limit:     limit,
		FetchedAt: time.Now(),
		Hits:      hits,
	}
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	if err := d.lock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire cache lock: %w", err)
	}
	defer func() { _ = d.lock.Unlock() }()

	// Write-then-rename keeps readers from seeing partial entries.
	path := d.entryPath(query, limit)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to commit cache entry: %w", err)
	}

	return nil
}

// Prune removes expired and corrupt entries. Returns the number removed.
func (d *DiskCache) Prune() (int, error) {
	if err := d.lock.Lock(); err != nil {
		return 0, fmt.Errorf("failed to acquire cache lock: %w", err)
	}
	defer func() { _ = d.lock.Unlock() }()

	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to list cache directory: %w", err)
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		path := filepath.Join(d.dir, e.Name())

		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var entry diskEntry
		if err := json.Unmarshal(data, &entry); err != nil ||
			time.Since(entry.FetchedAt) > d.ttl {
			if os.Remove(path) == nil {
				removed++
			}
		}
	}

	return removed, nil
}

// entryPath returns the cache file path for a query and limit.
func (d *DiskCache) entryPath(query string, limit int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d", strings.ToLower(strings.TrimSpace(query)), limit)))
	return filepath.Join(d.dir, hex.EncodeToString(sum[:16])+".json")
}
