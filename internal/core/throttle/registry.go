package throttle

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// Registry owns one bucket per API name. It is constructed once at startup
// and passed by reference to everything that performs outbound calls.
type Registry struct {
	configs map[string]Config
	clock   func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
}

// Option adjusts registry construction.
type Option func(*Registry)

// WithClock overrides the time source for deterministic tests.
func WithClock(clock func() time.Time) Option {
	return func(r *Registry) {
		r.clock = clock
	}
}

// NewRegistry builds a registry from per-API configs. API names not present
// in configs get a conservative default limit on first use.
func NewRegistry(configs map[string]Config, opts ...Option) *Registry {
	normalized := make(map[string]Config, len(configs))
	for name, cfg := range configs {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		normalized[name] = cfg.normalized()
	}

	r := &Registry{
		configs: normalized,
		buckets: make(map[string]*bucket),
	}

	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Acquire blocks until the named API may be called. Callers queue in strict
// FIFO order per API name; a background context waits indefinitely, matching
// the backpressure-via-delay policy. A context with a deadline turns an
// expired wait into an error wrapping ErrQueueTimeout.
func (r *Registry) Acquire(ctx context.Context, apiName string) error {
	if r == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return r.bucketFor(apiName).acquire(ctx)
}

// Stats returns a read-only snapshot for one API name.
func (r *Registry) Stats(apiName string) Stats {
	if r == nil {
		return Stats{APIName: apiName}
	}
	return r.bucketFor(apiName).stats()
}

// StatsAll returns snapshots for every bucket that has been touched,
// ordered by API name.
func (r *Registry) StatsAll() []Stats {
	if r == nil {
		return nil
	}

	r.mu.Lock()
	buckets := make([]*bucket, 0, len(r.buckets))
	for _, b := range r.buckets {
		buckets = append(buckets, b)
	}
	r.mu.Unlock()

	stats := make([]Stats, 0, len(buckets))
	for _, b := range buckets {
		stats = append(stats, b.stats())
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].APIName < stats[j].APIName })
	return stats
}

func (r *Registry) bucketFor(apiName string) *bucket {
	apiName = strings.TrimSpace(apiName)

	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.buckets[apiName]; ok {
		return b
	}

	cfg, ok := r.configs[apiName]
	if !ok {
		cfg = defaultConfig
	}

	b := newBucket(apiName, cfg, r.clock)
	r.buckets[apiName] = b
	return b
}
