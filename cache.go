package treemenu

import (
	"sync"
	"time"
)

// Cache stores resolved node sequences keyed by subject. The zero Subject
// is a valid key and caches the "no subject" result.
//
// The Resolver installs an unsynchronized per-pass cache by default; it
// lives and dies with the resolver and must not be shared across
// goroutines. Install a SharedCache via WithCache to reuse results across
// rendering passes.
type Cache interface {
	// Get retrieves a cached node sequence.
	// Returns (nodes, found). If found is false, the entry doesn't exist or
	// is expired.
	Get(subject Subject) ([]Node, bool)

	// Set stores a node sequence in the cache.
	Set(subject Subject, nodes []Node)
}

// passCache is the default per-pass cache: a bare map, no locking.
// One resolver, one goroutine, one pass.
type passCache map[Subject][]Node

func (c passCache) Get(subject Subject) ([]Node, bool) {
	nodes, ok := c[subject]
	return nodes, ok
}

func (c passCache) Set(subject Subject, nodes []Node) {
	c[subject] = nodes
}

// sharedEntry stores a resolved sequence with optional expiry.
type sharedEntry struct {
	nodes     []Node
	expiresAt time.Time // zero means no expiry
}

// SharedCache is a cache safe for concurrent use, with optional TTL.
// It is meant for menus that change rarely: hand the same SharedCache to
// every per-request resolver and the tree is queried once per subject per
// TTL window.
//
// Callers must treat returned slices as read-only; entries are shared
// across passes. The cache grows unbounded within its TTL window.
type SharedCache struct {
	mu    sync.RWMutex
	items map[Subject]sharedEntry
	ttl   time.Duration // 0 means no expiry
}

// CacheOption configures a SharedCache.
type CacheOption func(*SharedCache)

// WithTTL sets the time-to-live for cache entries.
// Entries older than TTL are considered stale and will be re-resolved.
// A TTL of 0 (default) means entries never expire within the cache's
// lifetime; call Clear after loading a new menu.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *SharedCache) {
		c.ttl = ttl
	}
}

// NewSharedCache creates a cache that can be shared across rendering
// passes and goroutines.
func NewSharedCache(opts ...CacheOption) *SharedCache {
	c := &SharedCache{
		items: make(map[Subject]sharedEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get retrieves a cached node sequence.
// Returns (nodes, found). If found is false, the entry doesn't exist or is
// expired.
func (c *SharedCache) Get(subject Subject) ([]Node, bool) {
	c.mu.RLock()
	entry, ok := c.items[subject]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}

	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.items, subject)
		c.mu.Unlock()
		return nil, false
	}

	return entry.nodes, true
}

// Set stores a node sequence in the cache.
func (c *SharedCache) Set(subject Subject, nodes []Node) {
	entry := sharedEntry{nodes: nodes}
	if c.ttl > 0 {
		entry.expiresAt = time.Now().Add(c.ttl)
	}

	c.mu.Lock()
	c.items[subject] = entry
	c.mu.Unlock()
}

// Size returns the number of entries in the cache.
// Useful for monitoring cache growth and memory usage.
func (c *SharedCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Clear removes all entries from the cache.
// Call it after loading a new menu definition so stale sequences are not
// served for the remainder of the TTL window.
func (c *SharedCache) Clear() {
	c.mu.Lock()
	c.items = make(map[Subject]sharedEntry)
	c.mu.Unlock()
}

// Ensure both implementations satisfy Cache.
var (
	_ Cache = (passCache)(nil)
	_ Cache = (*SharedCache)(nil)
)
