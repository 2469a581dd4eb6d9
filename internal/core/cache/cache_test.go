package cache

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGetOrComputeHitSuppressesCompute(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := New(Options{Clock: func() time.Time { return clock }})

	calls := 0
	compute := func(ctx context.Context) (any, error) {
		calls++
		return "dr-smith-profile", nil
	}

	first, err := c.GetOrCompute(context.Background(), "search", "q=dr smith", 5*time.Second, compute)
	require.NoError(t, err)
	require.Equal(t, "dr-smith-profile", first)

	clock = clock.Add(4 * time.Second)

	second, err := c.GetOrCompute(context.Background(), "search", "q=dr smith", 5*time.Second, compute)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, calls)

	stats := c.Stats()
	require.Equal(t, int64(1), stats.Hits)
	require.Equal(t, int64(1), stats.Misses)
}

func TestGetOrComputeMissAfterExpiry(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := New(Options{Clock: func() time.Time { return clock }})

	calls := 0
	compute := func(ctx context.Context) (any, error) {
		calls++
		return calls, nil
	}

	_, err := c.GetOrCompute(context.Background(), "search", "q=foo", 5*time.Second, compute)
	require.NoError(t, err)

	clock = clock.Add(6 * time.Second)

	value, err := c.GetOrCompute(context.Background(), "search", "q=foo", 5*time.Second, compute)
	require.NoError(t, err)
	require.Equal(t, 2, value)
	require.Equal(t, 2, calls)
}

func TestFailedComputeNotCached(t *testing.T) {
	c := New(Options{})

	calls := 0
	boom := errors.New("upstream unavailable")
	compute := func(ctx context.Context) (any, error) {
		calls++
		return nil, boom
	}

	_, err := c.GetOrCompute(context.Background(), "search", "q=bar", 5*time.Second, compute)
	require.ErrorIs(t, err, boom)

	_, err = c.GetOrCompute(context.Background(), "search", "q=bar", 5*time.Second, compute)
	require.ErrorIs(t, err, boom)
	require.Equal(t, 2, calls)

	_, ok := c.Lookup("search", "q=bar")
	require.False(t, ok)
}

func TestNamespaceTTLFallback(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := New(Options{Clock: func() time.Time { return clock }})
	c.SetNamespaceTTL("scrape", 30*time.Second)

	calls := 0
	compute := func(ctx context.Context) (any, error) {
		calls++
		return "markdown", nil
	}

	_, err := c.GetOrCompute(context.Background(), "scrape", "url=example.com", 0, compute)
	require.NoError(t, err)

	clock = clock.Add(29 * time.Second)
	_, err = c.GetOrCompute(context.Background(), "scrape", "url=example.com", 0, compute)
	require.NoError(t, err)
	require.Equal(t, 1, calls)

	clock = clock.Add(2 * time.Second)
	_, err = c.GetOrCompute(context.Background(), "scrape", "url=example.com", 0, compute)
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}

func TestSweepEvictsStaleEntries(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := New(Options{HighWater: 4, Clock: func() time.Time { return clock }})

	store := func(key string) {
		_, err := c.GetOrCompute(context.Background(), "search", key, 10*time.Second, func(ctx context.Context) (any, error) {
			return key, nil
		})
		require.NoError(t, err)
	}

	for i := 0; i < 4; i++ {
		store(fmt.Sprintf("stale-%d", i))
	}

	// Age the first batch past 2*TTL, then cross the high-water mark.
	clock = clock.Add(21 * time.Second)
	store("fresh-0")
	store("fresh-1")

	stats := c.Stats()
	require.Equal(t, 2, stats.Entries)

	_, ok := c.Lookup("search", "fresh-1")
	require.True(t, ok)
	_, ok = c.Lookup("search", "stale-0")
	require.False(t, ok)
}

func TestInvalidateNamespace(t *testing.T) {
	c := New(Options{})

	_, err := c.GetOrCompute(context.Background(), "search", "a", time.Minute, func(ctx context.Context) (any, error) {
		return 1, nil
	})
	require.NoError(t, err)
	_, err = c.GetOrCompute(context.Background(), "scrape", "b", time.Minute, func(ctx context.Context) (any, error) {
		return 2, nil
	})
	require.NoError(t, err)

	c.Invalidate("search")

	_, ok := c.Lookup("search", "a")
	require.False(t, ok)
	_, ok = c.Lookup("scrape", "b")
	require.True(t, ok)
}
