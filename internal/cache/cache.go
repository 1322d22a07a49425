// Package cache persists the notebook filename to content digest mapping that
// drives incremental gallery rebuilds.
package cache

import (
	"encoding/json"
	"os"
	"sync"

	nberrors "github.com/pythonot/nbrun/internal/errors"
)

// Cache maps a notebook filename to the hex digest its source had the last
// time it executed successfully. Entries are only ever added or replaced;
// notebooks removed from the gallery keep their entry, which is harmless.
type Cache struct {
	path    string
	mu      sync.RWMutex
	entries map[string]string
}

// Load reads the cache file at path. A missing or unreadable file yields an
// empty cache so that every notebook counts as stale; a file that exists but
// cannot be decoded is a hard error, since overwriting it would silently
// discard rebuild state.
func Load(path string) (*Cache, error) {
	c := &Cache{
		path:    path,
		entries: make(map[string]string),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return c, nil
	}

	if err := json.Unmarshal(data, &c.entries); err != nil {
		return nil, nberrors.Wrap(err, nberrors.CategoryParse, "cache file is not valid JSON").
			WithContext("path", path)
	}
	if c.entries == nil {
		// JSON "null" decodes to a nil map.
		c.entries = make(map[string]string)
	}
	return c, nil
}

// Get returns the stored digest for a notebook filename.
func (c *Cache) Get(name string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	digest, ok := c.entries[name]
	return digest, ok
}

// Set records the digest for a notebook filename, replacing any previous entry.
func (c *Cache) Set(name, digest string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[name] = digest
}

// Len returns the number of tracked notebooks.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Path returns the cache file location.
func (c *Cache) Path() string {
	return c.path
}

// Snapshot returns a copy of all entries.
func (c *Cache) Snapshot() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]string, len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}
	return out
}

// Save writes the full mapping to disk. The write goes to a temporary file in
// the same directory followed by a rename, so a crash mid-write never leaves
// a truncated cache behind.
func (c *Cache) Save() error {
	c.mu.RLock()
	data, err := json.MarshalIndent(c.entries, "", "  ")
	c.mu.RUnlock()
	if err != nil {
		return nberrors.Wrap(err, nberrors.CategoryIO, "marshal cache").
			WithContext("path", c.path)
	}

	tempPath := c.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return nberrors.Wrap(err, nberrors.CategoryIO, "write temporary cache file").
			WithContext("path", tempPath)
	}
	if err := os.Rename(tempPath, c.path); err != nil {
		return nberrors.Wrap(err, nberrors.CategoryIO, "replace cache file").
			WithContext("path", c.path)
	}
	return nil
}
