package throttle

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAcquireWindowInvariant(t *testing.T) {
	reg := NewRegistry(map[string]Config{
		"brave": {MaxCallsPerWindow: 2, WindowDuration: 400 * time.Millisecond, RecheckInterval: 20 * time.Millisecond},
	})

	var mu sync.Mutex
	var dispatched []time.Time

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, reg.Acquire(context.Background(), "brave"))
			mu.Lock()
			dispatched = append(dispatched, time.Now())
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, dispatched, 5)

	// 5 calls at 2 per 400ms need at least two window rollovers.
	var first, last time.Time
	for _, ts := range dispatched {
		if first.IsZero() || ts.Before(first) {
			first = ts
		}
		if ts.After(last) {
			last = ts
		}
	}
	require.GreaterOrEqual(t, last.Sub(first), 700*time.Millisecond)
}

func TestAcquireFIFOOrder(t *testing.T) {
	reg := NewRegistry(map[string]Config{
		"openrouter": {MaxCallsPerWindow: 100, WindowDuration: time.Minute, MinDelay: 40 * time.Millisecond},
	})

	order := make(chan int, 6)
	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func(seq int) {
			defer wg.Done()
			require.NoError(t, reg.Acquire(context.Background(), "openrouter"))
			order <- seq
		}(i)
		// Stagger enqueues well past scheduler jitter so arrival order is fixed.
		time.Sleep(15 * time.Millisecond)
	}
	wg.Wait()
	close(order)

	var got []int
	for seq := range order {
		got = append(got, seq)
	}
	require.Equal(t, []int{0, 1, 2, 3, 4, 5}, got)
}

func TestMinDelaySpacing(t *testing.T) {
	reg := NewRegistry(map[string]Config{
		"firecrawl": {MaxCallsPerWindow: 100, WindowDuration: time.Minute, MinDelay: 60 * time.Millisecond},
	})

	times := make(chan time.Time, 4)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, reg.Acquire(context.Background(), "firecrawl"))
			times <- time.Now()
		}()
	}
	wg.Wait()
	close(times)

	var dispatched []time.Time
	for ts := range times {
		dispatched = append(dispatched, ts)
	}
	require.Len(t, dispatched, 4)

	var first, last time.Time
	for _, ts := range dispatched {
		if first.IsZero() || ts.Before(first) {
			first = ts
		}
		if ts.After(last) {
			last = ts
		}
	}
	// 4 dispatches at >=60ms apart span at least ~180ms.
	require.GreaterOrEqual(t, last.Sub(first), 150*time.Millisecond)
}

func TestAcquireContextCancelled(t *testing.T) {
	reg := NewRegistry(map[string]Config{
		"brave": {MaxCallsPerWindow: 1, WindowDuration: time.Hour},
	})

	// Occupy the only window slot.
	require.NoError(t, reg.Acquire(context.Background(), "brave"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := reg.Acquire(ctx, "brave")
	require.Error(t, err)
	require.ErrorIs(t, err, ErrQueueTimeout)

	// The cancelled waiter must be gone from the queue.
	require.Eventually(t, func() bool {
		return reg.Stats("brave").QueueLength == 0
	}, time.Second, 10*time.Millisecond)
}

func TestIndependentBuckets(t *testing.T) {
	reg := NewRegistry(map[string]Config{
		"brave":      {MaxCallsPerWindow: 1, WindowDuration: time.Hour},
		"openrouter": {MaxCallsPerWindow: 10, WindowDuration: time.Minute},
	})

	// Saturate brave and pile up waiters behind it.
	require.NoError(t, reg.Acquire(context.Background(), "brave"))
	for i := 0; i < 5; i++ {
		go func() {
			_ = reg.Acquire(context.Background(), "brave")
		}()
	}

	start := time.Now()
	require.NoError(t, reg.Acquire(context.Background(), "openrouter"))
	require.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestStatsSnapshot(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	reg := NewRegistry(map[string]Config{
		"perplexity": {MaxCallsPerWindow: 4, WindowDuration: time.Minute},
	}, WithClock(func() time.Time { return clock }))

	require.NoError(t, reg.Acquire(context.Background(), "perplexity"))
	require.NoError(t, reg.Acquire(context.Background(), "perplexity"))

	stats := reg.Stats("perplexity")
	require.Equal(t, "perplexity", stats.APIName)
	require.Equal(t, 2, stats.CurrentCount)
	require.Equal(t, 4, stats.MaxCount)
	require.Equal(t, 0, stats.QueueLength)
	require.Equal(t, 50, stats.UtilizationPercent)

	// Advance past the window: counts reset, nothing lingers.
	clock = clock.Add(2 * time.Minute)
	stats = reg.Stats("perplexity")
	require.Equal(t, 0, stats.CurrentCount)
	require.Equal(t, 0, stats.UtilizationPercent)
}

func TestUnknownAPIFallsBackToDefaults(t *testing.T) {
	reg := NewRegistry(nil)

	require.NoError(t, reg.Acquire(context.Background(), "unconfigured"))

	stats := reg.Stats("unconfigured")
	require.Equal(t, defaultConfig.MaxCallsPerWindow, stats.MaxCount)
	require.Equal(t, 1, stats.CurrentCount)
}

func TestConfigNormalization(t *testing.T) {
	cfg := Config{MaxCallsPerWindow: -1, WindowDuration: 0, MinDelay: -time.Second}.normalized()
	require.Equal(t, defaultConfig.MaxCallsPerWindow, cfg.MaxCallsPerWindow)
	require.Equal(t, defaultConfig.WindowDuration, cfg.WindowDuration)
	require.Equal(t, time.Duration(0), cfg.MinDelay)
	require.Equal(t, defaultConfig.RecheckInterval, cfg.RecheckInterval)
}

func TestStatsAllSorted(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, reg.Acquire(context.Background(), "openrouter"))
	require.NoError(t, reg.Acquire(context.Background(), "brave"))

	stats := reg.StatsAll()
	require.Len(t, stats, 2)
	require.Equal(t, "brave", stats[0].APIName)
	require.Equal(t, "openrouter", stats[1].APIName)
}
