// Package cache keeps compiled snapshots keyed by program text and compiler
// settings so unchanged programs are not rebuilt on every run.
package cache

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/l3aro/go-befunge-cfg/pkg/optimize"
	"github.com/l3aro/go-befunge-cfg/pkg/snapshot"
)

// version is mixed into every key; bump it when the optimizer output changes.
const version = "bfc-cache-1"

// Entry is one persisted snapshot.
type Entry struct {
	Key      string             `msgpack:"key"`
	Snapshot *snapshot.Snapshot `msgpack:"snapshot"`
}

// Options configures a Cache.
type Options struct {
	MaxEntries int // 0 means unbounded
}

// Stats counts lookups since the cache was created or last reset.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
}

// Cache is a concurrency-safe LRU of snapshots.
type Cache struct {
	mu         sync.Mutex
	maxEntries int
	items      map[string]*list.Element
	lru        *list.List
	stats      Stats
	dirty      bool
}

// New creates an empty cache.
func New(opts Options) *Cache {
	return &Cache{
		maxEntries: opts.MaxEntries,
		items:      make(map[string]*list.Element),
		lru:        list.New(),
	}
}

// Key derives the cache key of a program compiled with the given settings.
func Key(src []byte, level optimize.Level, opts optimize.Options) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%d\x00%d\x00%t\x00", version, level, opts.MaxIterations, opts.AllowSelfModification)
	h.Write(src)
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the snapshot stored under key and marks it most recently used.
func (c *Cache) Get(key string) (*snapshot.Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.stats.Misses++
		return nil, false
	}
	c.stats.Hits++
	c.lru.MoveToFront(el)
	return el.Value.(*Entry).Snapshot, true
}

// Put stores snap under key, evicting the least recently used entries.
func (c *Cache) Put(key string, snap *snapshot.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.dirty = true
	if el, ok := c.items[key]; ok {
		el.Value.(*Entry).Snapshot = snap
		c.lru.MoveToFront(el)
		return
	}
	c.items[key] = c.lru.PushFront(&Entry{Key: key, Snapshot: snap})

	for c.maxEntries > 0 && c.lru.Len() > c.maxEntries {
		oldest := c.lru.Back()
		c.lru.Remove(oldest)
		delete(c.items, oldest.Value.(*Entry).Key)
		c.stats.Evictions++
	}
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Stats returns the lookup counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Dirty reports whether Put was called since the last Save or Load.
func (c *Cache) Dirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dirty
}

// Save writes the entries with msgpack, most recently used first.
func (c *Cache) Save(w io.Writer) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := make([]Entry, 0, c.lru.Len())
	for el := c.lru.Front(); el != nil; el = el.Next() {
		entries = append(entries, *el.Value.(*Entry))
	}
	if err := msgpack.NewEncoder(w).Encode(entries); err != nil {
		return fmt.Errorf("failed to encode cache: %w", err)
	}
	c.dirty = false
	return nil
}

// Load replaces the content of the cache with entries written by Save.
func (c *Cache) Load(r io.Reader) error {
	var entries []Entry
	if err := msgpack.NewDecoder(r).Decode(&entries); err != nil {
		return fmt.Errorf("failed to decode cache: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.lru.Init()
	for i := range entries {
		if c.maxEntries > 0 && i >= c.maxEntries {
			break
		}
		e := entries[i]
		c.items[e.Key] = c.lru.PushBack(&e)
	}
	c.dirty = false
	return nil
}

// SaveFile persists the cache to path, creating parent directories.
func (c *Cache) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	if err := c.Save(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadFile loads the cache from path. A missing file leaves the cache empty.
func (c *Cache) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open cache file: %w", err)
	}
	defer f.Close()
	return c.Load(f)
}
