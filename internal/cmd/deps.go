package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/canvashq/canvas/internal/core/cache"
	"github.com/canvashq/canvas/internal/core/store"
	"github.com/canvashq/canvas/internal/core/throttle"
	"github.com/canvashq/canvas/internal/intel"
	"github.com/canvashq/canvas/internal/observability"
	"github.com/canvashq/canvas/internal/research"
	"github.com/canvashq/canvas/internal/research/provider/brave"
	"github.com/canvashq/canvas/internal/research/provider/firecrawl"
)

// openStore opens the configured libsql store and applies migrations.
func openStore(ctx context.Context) (*store.Store, error) {
	db, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close() // nolint:errcheck // best-effort cleanup
		return nil, fmt.Errorf("migrate store: %w", err)
	}
	return db, nil
}

// newResponseCache builds the shared in-memory cache with per-namespace TTLs.
func newResponseCache() *cache.Cache {
	c := cache.New(cache.Options{
		DefaultTTL: cfg.Cache.DefaultTTL,
		HighWater:  cfg.Cache.HighWater,
	})
	for namespace, ttl := range cfg.Cache.Namespaces {
		c.SetNamespaceTTL(namespace, ttl)
	}
	return c
}

// buildEngine assembles the research engine from configuration. archive may
// be nil when no store is available; research then runs without persistence.
func buildEngine(responseCache *cache.Cache, buckets *throttle.Registry, archive research.Archive) (*research.Engine, error) {
	if cfg.Research.Brave.APIKey == "" {
		observability.CLILogger.Warn("No Brave API key configured; searches will fail",
			zap.String("env", "CANVAS_RESEARCH_BRAVE_API_KEY"))
	}

	search := brave.NewClient(cfg.Research.Brave.BaseURL, cfg.Research.Brave.APIKey)
	if cfg.Research.Brave.Timeout > 0 {
		search.Timeout = cfg.Research.Brave.Timeout
	}

	scrape := firecrawl.NewClient(cfg.Research.Firecrawl.BaseURL, cfg.Research.Firecrawl.APIKey)
	if cfg.Research.Firecrawl.Timeout > 0 {
		scrape.Timeout = cfg.Research.Firecrawl.Timeout
	}

	registry, err := intel.NewRegistry(cfg.Intel)
	if err != nil {
		return nil, fmt.Errorf("intel registry: %w", err)
	}

	engine := &research.Engine{
		Search:      search,
		Intel:       registry,
		Throttle:    buckets,
		Cache:       responseCache,
		Archive:     archive,
		MaxSources:  cfg.Research.MaxSources,
		QueueWait:   cfg.Research.QueueWait,
		PersistTTL:  cfg.Cache.PersistTTL,
		ToolVersion: versionInfo.Version,
	}
	if cfg.Research.Firecrawl.APIKey != "" {
		engine.Scrape = scrape
	}
	return engine, nil
}
