// Package cache memoizes expensive outbound calls for a short freshness
// window, trading a small staleness risk for reduced external call volume.
//
// Entries live in process memory only. Keys are namespaced; callers are
// responsible for building stable, collision-free keys. Values are opaque.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultTTL applies when neither the namespace nor the call supplies one.
	DefaultTTL = 5 * time.Minute
	// DefaultHighWater is the entry count that triggers an eviction sweep.
	DefaultHighWater = 100
)

// ComputeFunc produces the value for a cache miss.
type ComputeFunc func(ctx context.Context) (any, error)

// Options adjusts cache construction.
type Options struct {
	// DefaultTTL applies to namespaces without an explicit TTL.
	DefaultTTL time.Duration
	// HighWater is the entry count above which a store triggers a sweep.
	HighWater int
	// Clock overrides the time source for deterministic tests.
	Clock func() time.Time
}

// Stats is a read-only snapshot of cache activity.
type Stats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

type entry struct {
	value    any
	storedAt time.Time
	ttl      time.Duration
}

// Cache is a namespaced TTL memoization layer. One instance is constructed at
// startup and shared by every outbound wrapper.
type Cache struct {
	defaultTTL time.Duration
	highWater  int
	clock      func() time.Time

	mu      sync.Mutex
	ttls    map[string]time.Duration
	entries map[string]entry
	hits    int64
	misses  int64
}

// New builds a cache with the supplied options.
func New(opts Options) *Cache {
	if opts.DefaultTTL <= 0 {
		opts.DefaultTTL = DefaultTTL
	}
	if opts.HighWater <= 0 {
		opts.HighWater = DefaultHighWater
	}

	return &Cache{
		defaultTTL: opts.DefaultTTL,
		highWater:  opts.HighWater,
		clock:      opts.Clock,
		ttls:       make(map[string]time.Duration),
		entries:    make(map[string]entry),
	}
}

// SetNamespaceTTL registers the default TTL for a namespace.
func (c *Cache) SetNamespaceTTL(namespace string, ttl time.Duration) {
	if c == nil || ttl <= 0 {
		return
	}

	c.mu.Lock()
	c.ttls[strings.TrimSpace(namespace)] = ttl
	c.mu.Unlock()
}

// GetOrCompute returns the cached value for (namespace, key) when still
// fresh; otherwise it invokes compute, stores the result, and returns it.
// A ttl of zero falls back to the namespace default. Compute errors propagate
// unchanged and are never cached.
func (c *Cache) GetOrCompute(ctx context.Context, namespace, key string, ttl time.Duration, compute ComputeFunc) (any, error) {
	if c == nil {
		return compute(ctx)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	k := cacheKey(namespace, key)

	c.mu.Lock()
	if e, ok := c.entries[k]; ok && c.now().Sub(e.storedAt) < e.ttl {
		c.hits++
		value := e.value
		c.mu.Unlock()
		return value, nil
	}
	c.misses++
	c.mu.Unlock()

	value, err := compute(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[k] = entry{
		value:    value,
		storedAt: c.now(),
		ttl:      c.resolveTTLLocked(namespace, ttl),
	}
	if len(c.entries) > c.highWater {
		c.sweepLocked()
	}
	c.mu.Unlock()

	return value, nil
}

// Lookup peeks at a fresh entry without computing on miss.
func (c *Cache) Lookup(namespace, key string) (any, bool) {
	if c == nil {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[cacheKey(namespace, key)]
	if !ok || c.now().Sub(e.storedAt) >= e.ttl {
		return nil, false
	}
	return e.value, true
}

// Invalidate drops every entry in a namespace.
func (c *Cache) Invalidate(namespace string) {
	if c == nil {
		return
	}

	prefix := strings.TrimSpace(namespace) + "::"

	c.mu.Lock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()
}

// Stats returns a snapshot of cache activity.
func (c *Cache) Stats() Stats {
	if c == nil {
		return Stats{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Entries: len(c.entries),
		Hits:    c.hits,
		Misses:  c.misses,
	}
}

// sweepLocked removes entries aged past twice their TTL. Triggered
// opportunistically on store, never on a timer.
func (c *Cache) sweepLocked() {
	now := c.now()
	for k, e := range c.entries {
		if now.Sub(e.storedAt) > 2*e.ttl {
			delete(c.entries, k)
		}
	}
}

func (c *Cache) resolveTTLLocked(namespace string, ttl time.Duration) time.Duration {
	if ttl > 0 {
		return ttl
	}
	if nsTTL, ok := c.ttls[strings.TrimSpace(namespace)]; ok {
		return nsTTL
	}
	return c.defaultTTL
}

func (c *Cache) now() time.Time {
	if c.clock != nil {
		return c.clock()
	}
	return time.Now().UTC()
}

func cacheKey(namespace, key string) string {
	return strings.TrimSpace(namespace) + "::" + key
}
