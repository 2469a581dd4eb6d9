// Package throttle bounds the rate of outbound calls to named external APIs.
//
// Each API name gets an independent bucket: a sliding window of dispatch
// timestamps plus a FIFO wait queue. Acquire blocks the caller until its turn
// arrives and the window has capacity; callers are never rejected for being
// over budget, only delayed. A per-bucket pacer enforces a minimum delay
// between consecutive dispatches regardless of window occupancy.
package throttle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// ErrQueueTimeout reports that a queued caller gave up before being dispatched.
var ErrQueueTimeout = errors.New("throttle: context ended while waiting for a dispatch slot")

// Config describes the limits for one bucket.
type Config struct {
	// MaxCallsPerWindow bounds dispatches within any trailing WindowDuration.
	MaxCallsPerWindow int `mapstructure:"max_calls_per_window"`
	// WindowDuration is the trailing interval over which calls are counted.
	WindowDuration time.Duration `mapstructure:"window_duration"`
	// MinDelay is enforced between consecutive dispatches.
	MinDelay time.Duration `mapstructure:"min_delay"`
	// RecheckInterval is how long the drain loop sleeps when the window is full.
	RecheckInterval time.Duration `mapstructure:"recheck_interval"`
}

// Conservative fallback applied to unknown API names and zeroed fields.
var defaultConfig = Config{
	MaxCallsPerWindow: 30,
	WindowDuration:    time.Minute,
	MinDelay:          0,
	RecheckInterval:   time.Second,
}

func (c Config) normalized() Config {
	if c.MaxCallsPerWindow <= 0 {
		c.MaxCallsPerWindow = defaultConfig.MaxCallsPerWindow
	}
	if c.WindowDuration <= 0 {
		c.WindowDuration = defaultConfig.WindowDuration
	}
	if c.MinDelay < 0 {
		c.MinDelay = 0
	}
	if c.RecheckInterval <= 0 {
		c.RecheckInterval = defaultConfig.RecheckInterval
	}
	return c
}

// Stats is a side-effect-free snapshot of one bucket.
type Stats struct {
	APIName            string `json:"api_name"`
	CurrentCount       int    `json:"current_count"`
	MaxCount           int    `json:"max_count"`
	QueueLength        int    `json:"queue_length"`
	UtilizationPercent int    `json:"utilization_percent"`
}

type waiter struct {
	id         string
	enqueuedAt time.Time
	ready      chan struct{}
}

type bucket struct {
	name  string
	cfg   Config
	clock func() time.Time
	pacer *rate.Limiter

	mu         sync.Mutex
	timestamps []time.Time
	queue      []*waiter
	draining   bool
}

func newBucket(name string, cfg Config, clock func() time.Time) *bucket {
	cfg = cfg.normalized()

	pacer := rate.NewLimiter(rate.Inf, 1)
	if cfg.MinDelay > 0 {
		pacer = rate.NewLimiter(rate.Every(cfg.MinDelay), 1)
	}

	return &bucket{
		name:  name,
		cfg:   cfg,
		clock: clock,
		pacer: pacer,
	}
}

func (b *bucket) now() time.Time {
	if b.clock != nil {
		return b.clock()
	}
	return time.Now().UTC()
}

// pruneLocked drops timestamps that fell out of the trailing window.
func (b *bucket) pruneLocked(now time.Time) {
	cutoff := now.Add(-b.cfg.WindowDuration)
	kept := b.timestamps[:0]
	for _, ts := range b.timestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	b.timestamps = kept
}

// acquire enqueues the caller and blocks until dispatched or ctx ends.
func (b *bucket) acquire(ctx context.Context) error {
	w := &waiter{
		id:         uuid.New().String(),
		enqueuedAt: b.now(),
		ready:      make(chan struct{}),
	}

	b.mu.Lock()
	b.queue = append(b.queue, w)
	if !b.draining {
		b.draining = true
		go b.drain()
	}
	b.mu.Unlock()

	select {
	case <-w.ready:
		return nil
	case <-ctx.Done():
		if b.removeWaiter(w) {
			return fmt.Errorf("%w: %v", ErrQueueTimeout, ctx.Err())
		}
		// Dispatch raced the cancellation; the slot was already granted.
		<-w.ready
		return nil
	}
}

// removeWaiter takes a cancelled waiter out of the FIFO. Returns false when
// the waiter was already dispatched.
func (b *bucket) removeWaiter(w *waiter) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, queued := range b.queue {
		if queued == w {
			b.queue = append(b.queue[:i], b.queue[i+1:]...)
			return true
		}
	}
	return false
}

// drain services the FIFO until the queue empties, then exits. A later
// acquire restarts it. Only one drain goroutine runs per bucket.
func (b *bucket) drain() {
	for {
		b.mu.Lock()
		if len(b.queue) == 0 {
			b.draining = false
			b.mu.Unlock()
			return
		}

		now := b.now()
		b.pruneLocked(now)
		if len(b.timestamps) >= b.cfg.MaxCallsPerWindow {
			interval := b.cfg.RecheckInterval
			b.mu.Unlock()
			time.Sleep(interval)
			continue
		}
		b.mu.Unlock()

		// Min-delay spacing between dispatches. The first reservation is
		// immediate; subsequent ones wait out MinDelay.
		_ = b.pacer.Wait(context.Background())

		b.mu.Lock()
		if len(b.queue) == 0 {
			// Every waiter cancelled while we were pacing.
			b.draining = false
			b.mu.Unlock()
			return
		}
		head := b.queue[0]
		b.queue = b.queue[1:]
		b.timestamps = append(b.timestamps, b.now())
		close(head.ready)
		b.mu.Unlock()
	}
}

func (b *bucket) stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.pruneLocked(b.now())

	current := len(b.timestamps)
	utilization := 0
	if b.cfg.MaxCallsPerWindow > 0 {
		utilization = current * 100 / b.cfg.MaxCallsPerWindow
	}

	return Stats{
		APIName:            b.name,
		CurrentCount:       current,
		MaxCount:           b.cfg.MaxCallsPerWindow,
		QueueLength:        len(b.queue),
		UtilizationPercent: utilization,
	}
}
