//go:build cgo

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/canvashq/canvas/internal/core"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	s, err := Open(ctx, Config{Driver: "libsql", Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, s.Migrate(ctx))
	t.Cleanup(func() {
		require.NoError(t, s.Close())
	})
	return s
}

func sampleResult() *core.ResearchResult {
	now := time.Now().UTC().Truncate(time.Second)
	return &core.ResearchResult{
		Doctor:     "Dr. Smith",
		Specialty:  "Cardiology",
		Location:   "Austin, TX",
		Status:     core.StatusComplete,
		Summary:    "Two-provider cardiology practice.",
		SalesBrief: "- High echo volume.",
		Confidence: 80,
		Provenance: core.Provenance{
			ResearchID:  "run-1",
			RequestedAt: now.Add(-2 * time.Second),
			ResolvedAt:  now,
			Provider:    "router",
			Model:       "test-model",
			ToolVersion: "test",
		},
	}
}

func TestResearchCacheRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	key := "dr. smith|cardiology|austin, tx|instant"

	missing, err := s.CachedResearch(ctx, key)
	require.NoError(t, err)
	require.Nil(t, missing)

	require.NoError(t, s.SaveResearch(ctx, key, sampleResult(), time.Hour))

	cached, err := s.CachedResearch(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, cached)
	require.Equal(t, "Dr. Smith", cached.Doctor)
	require.Equal(t, 80, cached.Confidence)
	require.True(t, cached.Provenance.FromCache)
	require.NotNil(t, cached.Provenance.CacheExpiresAt)
}

func TestSaveResearchZeroTTLIsNoop(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	key := "dr. smith|||instant"

	require.NoError(t, s.SaveResearch(ctx, key, sampleResult(), 0))

	cached, err := s.CachedResearch(ctx, key)
	require.NoError(t, err)
	require.Nil(t, cached)
}

func TestExpiredResearchNotServed(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	key := "dr. smith|||instant"

	require.NoError(t, s.SaveResearch(ctx, key, sampleResult(), -time.Hour))

	cached, err := s.CachedResearch(ctx, key)
	require.NoError(t, err)
	require.Nil(t, cached)
}

func TestListAndPruneResearchCache(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveResearch(ctx, "fresh|||instant", sampleResult(), time.Hour))
	require.NoError(t, s.SaveResearch(ctx, "stale|||instant", sampleResult(), time.Second))

	// Force the stale row past its expiry.
	_, err := s.DB.ExecContext(ctx, `UPDATE research_cache SET expires_at = ? WHERE key = 'stale|||instant'`,
		time.Now().UTC().Add(-time.Minute).Unix())
	require.NoError(t, err)

	live, err := s.ListCachedResearch(ctx, false)
	require.NoError(t, err)
	require.Len(t, live, 1)
	require.Equal(t, "fresh|||instant", live[0].Key)

	all, err := s.ListCachedResearch(ctx, true)
	require.NoError(t, err)
	require.Len(t, all, 2)

	pruned, err := s.PruneResearchCache(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), pruned)

	remaining, err := s.ListCachedResearch(ctx, true)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
}

func TestRecordRunAndRecentHistory(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := sampleResult()
	second := sampleResult()
	second.Provenance.ResearchID = "run-2"
	second.Provenance.ResolvedAt = first.Provenance.ResolvedAt.Add(time.Minute)
	second.Provenance.FromCache = true

	require.NoError(t, s.RecordRun(ctx, first))
	require.NoError(t, s.RecordRun(ctx, second))

	history, err := s.RecentHistory(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, "run-2", history[0].ResearchID)
	require.True(t, history[0].FromCache)
	require.Equal(t, "run-1", history[1].ResearchID)
}
