package parser

import (
	"encoding/binary"
	"sync"

	"golang.org/x/crypto/blake2b"
)

// CacheKey is the BLAKE2b-256 digest of a template and the options that
// change how it compiles.
type CacheKey [blake2b.Size256]byte

// Cache owns compiled templates keyed by source and compile options, so an
// unchanged template is not recompiled (and its objects' update
// registrations keep running). Entries are evicted oldest first and torn
// down on eviction.
//
// A Cache assumes one constructor and a stable environment: neither is part
// of the key.
type Cache struct {
	mu       sync.Mutex
	entries  map[CacheKey]*Result
	order    []CacheKey // Insertion order, oldest first
	capacity int
	hits     int
	misses   int
}

// NewCache creates a cache holding at most capacity compiled templates.
func NewCache(capacity int) *Cache {
	if capacity < 1 {
		capacity = 1
	}
	return &Cache{
		entries:  make(map[CacheKey]*Result),
		capacity: capacity,
	}
}

// Key computes the cache key for template under opts.
func Key(template string, opts ...Opt) CacheKey {
	return newConfig(opts).key(template)
}

func (c *Config) key(template string) CacheKey {
	h, _ := blake2b.New256(nil)
	var buf [8]byte
	for _, v := range []int{c.maxNameLength, c.startLine, c.maxTemplateSize} {
		binary.BigEndian.PutUint64(buf[:], uint64(v))
		h.Write(buf[:])
	}
	h.Write([]byte(template))

	var key CacheKey
	copy(key[:], h.Sum(nil))
	return key
}

// Get returns the compiled form of template, compiling it on a miss. The
// cache keeps ownership: the result stays valid until it is evicted or the
// cache is closed, and callers must not release it. Compile errors are not
// cached.
func (c *Cache) Get(template string, opts ...Opt) (*Result, bool, error) {
	key := newConfig(opts).key(template)

	c.mu.Lock()
	defer c.mu.Unlock()

	if result, ok := c.entries[key]; ok {
		c.hits++
		return result, true, nil
	}
	c.misses++

	result, err := Parse(template, opts...)
	if err != nil {
		return nil, false, err
	}

	for len(c.order) >= c.capacity {
		c.evictOldest()
	}
	c.entries[key] = result
	c.order = append(c.order, key)
	return result, false, nil
}

// Len returns the number of cached templates.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns hit and miss counts.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Close tears down every cached template.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.order) > 0 {
		c.evictOldest()
	}
}

func (c *Cache) evictOldest() {
	key := c.order[0]
	c.order = c.order[1:]
	if result, ok := c.entries[key]; ok {
		result.Release()
		delete(c.entries, key)
	}
}
