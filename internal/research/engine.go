// Package research orchestrates a doctor/practice research run: web search,
// page scrape, and AI synthesis, each routed through its throttle bucket and
// memoized in the response cache.
package research

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/canvashq/canvas/internal/core"
	"github.com/canvashq/canvas/internal/core/cache"
	"github.com/canvashq/canvas/internal/core/throttle"
	"github.com/canvashq/canvas/internal/intel"
	"github.com/canvashq/canvas/internal/intel/driver"
	"github.com/canvashq/canvas/internal/intel/prompt"
	"github.com/canvashq/canvas/internal/research/provider/brave"
	"github.com/canvashq/canvas/internal/research/provider/firecrawl"
)

const (
	defaultMaxSources = 5
	// maxScrapeChars bounds how much scraped markdown feeds the synthesis
	// prompt. Anything longer adds token cost without adding facts.
	maxScrapeChars = 8000
)

// Searcher performs a web search.
type Searcher interface {
	Search(ctx context.Context, query string, count int) ([]brave.Result, error)
}

// Scraper fetches a page as markdown.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*firecrawl.Page, error)
}

// Synthesizer resolves AI providers and prompts.
type Synthesizer interface {
	Resolve(role, modelOverride string) (*intel.Resolved, error)
	Prompts() *prompt.Registry
}

// Archive persists completed research beyond process lifetime. All methods
// are best-effort from the engine's point of view.
type Archive interface {
	// CachedResearch returns a persisted, unexpired result, or nil.
	CachedResearch(ctx context.Context, key string) (*core.ResearchResult, error)
	// SaveResearch persists a completed result for ttl.
	SaveResearch(ctx context.Context, key string, result *core.ResearchResult, ttl time.Duration) error
	// RecordRun appends a row to the research history.
	RecordRun(ctx context.Context, result *core.ResearchResult) error
}

// Engine coordinates one research run across the configured providers.
type Engine struct {
	Search   Searcher
	Scrape   Scraper
	Intel    Synthesizer
	Throttle *throttle.Registry
	Cache    *cache.Cache
	Archive  Archive

	// MaxSources caps how many search hits feed the synthesis prompt.
	MaxSources int
	// QueueWait bounds time spent waiting on a throttle slot. Zero waits
	// indefinitely.
	QueueWait time.Duration
	// PersistTTL governs how long archived results stay servable.
	PersistTTL  time.Duration
	ToolVersion string
	Clock       func() time.Time
}

// Run performs research for one request. Identical requests within the cache
// TTL are served from memory with FromCache set.
func (e *Engine) Run(ctx context.Context, req core.ResearchRequest) (*core.ResearchResult, error) {
	if e == nil {
		return nil, fmt.Errorf("research engine not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	req.Doctor = strings.TrimSpace(req.Doctor)
	if req.Doctor == "" {
		return nil, fmt.Errorf("doctor is required")
	}
	if req.Depth == "" {
		req.Depth = core.DepthInstant
	}
	if req.Depth != core.DepthInstant && req.Depth != core.DepthDeep {
		return nil, fmt.Errorf("unknown research depth %q", req.Depth)
	}

	researchID := uuid.NewString()
	key := CacheKey(req)

	value, err := e.Cache.GetOrCompute(ctx, "research", key, 0, func(ctx context.Context) (any, error) {
		return e.run(ctx, researchID, key, req)
	})
	if err != nil {
		return nil, err
	}

	result, ok := value.(*core.ResearchResult)
	if !ok {
		return nil, fmt.Errorf("unexpected cached value for research key %q", key)
	}

	// A different research ID means the cache answered with an earlier run.
	if result.Provenance.ResearchID != researchID {
		served := *result
		served.Provenance.FromCache = true
		return &served, nil
	}
	return result, nil
}

func (e *Engine) run(ctx context.Context, researchID, key string, req core.ResearchRequest) (*core.ResearchResult, error) {
	if e.Archive != nil {
		if archived, err := e.Archive.CachedResearch(ctx, key); err == nil && archived != nil {
			archived.Provenance.FromCache = true
			return archived, nil
		}
	}

	requestedAt := e.now()

	hits, err := e.searchCached(ctx, req)
	if err != nil {
		return nil, err
	}

	result := &core.ResearchResult{
		Doctor:    req.Doctor,
		Specialty: req.Specialty,
		Location:  req.Location,
		Provenance: core.Provenance{
			ResearchID:  researchID,
			RequestedAt: requestedAt,
			ToolVersion: e.ToolVersion,
		},
	}

	if len(hits) == 0 {
		result.Status = core.StatusError
		result.Message = "no web results found"
		result.Provenance.ResolvedAt = e.now()
		return result, nil
	}

	maxSources := e.MaxSources
	if maxSources <= 0 {
		maxSources = defaultMaxSources
	}
	if len(hits) > maxSources {
		hits = hits[:maxSources]
	}
	for _, hit := range hits {
		result.Sources = append(result.Sources, core.Source{
			Title:   hit.Title,
			URL:     hit.URL,
			Snippet: hit.Description,
		})
	}

	var degraded []string
	result.Status = core.StatusComplete

	if req.Depth == core.DepthDeep && e.Scrape != nil {
		page, err := e.scrapeCached(ctx, hits[0].URL)
		switch {
		case err != nil:
			result.Status = core.StatusPartial
			degraded = append(degraded, fmt.Sprintf("scrape failed: %v", err))
		case page != nil:
			result.Practice = &core.PracticeProfile{
				Name:     page.Title,
				Website:  page.SourceURL,
				Markdown: truncate(page.Markdown, maxScrapeChars),
			}
		}
	}

	resolved, resp, err := e.synthesize(ctx, req, result)
	if err != nil {
		return nil, err
	}

	summary, brief, confidence := parseBrief(resp.Text)
	result.Summary = summary
	result.SalesBrief = brief
	result.Confidence = confidence
	result.Message = strings.Join(degraded, "; ")

	result.Provenance.ResolvedAt = e.now()
	result.Provenance.Provider = resolved.ProviderID
	result.Provenance.Model = resolved.Model
	if resp.Model != "" {
		result.Provenance.Model = resp.Model
	}

	if e.Archive != nil {
		if e.PersistTTL > 0 {
			expires := result.Provenance.ResolvedAt.Add(e.PersistTTL)
			result.Provenance.CacheExpiresAt = &expires
		}
		_ = e.Archive.SaveResearch(ctx, key, result, e.PersistTTL) // nolint:errcheck // best-effort persistence
		_ = e.Archive.RecordRun(ctx, result)                      // nolint:errcheck // best-effort persistence
	}

	return result, nil
}

func (e *Engine) searchCached(ctx context.Context, req core.ResearchRequest) ([]brave.Result, error) {
	query := buildQuery(req)

	value, err := e.Cache.GetOrCompute(ctx, "search", query, 0, func(ctx context.Context) (any, error) {
		if err := e.acquire(ctx, "brave"); err != nil {
			return nil, err
		}
		count := e.MaxSources
		if count <= 0 {
			count = defaultMaxSources
		}
		return e.Search.Search(ctx, query, count)
	})
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	hits, ok := value.([]brave.Result)
	if !ok {
		return nil, fmt.Errorf("unexpected cached value for search %q", query)
	}
	return hits, nil
}

func (e *Engine) scrapeCached(ctx context.Context, url string) (*firecrawl.Page, error) {
	value, err := e.Cache.GetOrCompute(ctx, "scrape", url, 0, func(ctx context.Context) (any, error) {
		if err := e.acquire(ctx, "firecrawl"); err != nil {
			return nil, err
		}
		return e.Scrape.Scrape(ctx, url)
	})
	if err != nil {
		return nil, err
	}

	page, ok := value.(*firecrawl.Page)
	if !ok {
		return nil, fmt.Errorf("unexpected cached value for scrape %q", url)
	}
	return page, nil
}

func (e *Engine) synthesize(ctx context.Context, req core.ResearchRequest, result *core.ResearchResult) (*intel.Resolved, *driver.Response, error) {
	if e.Intel == nil {
		return nil, nil, fmt.Errorf("no intel provider configured")
	}

	p, err := e.Intel.Prompts().Get("sales-brief")
	if err != nil {
		return nil, nil, err
	}

	resolved, err := e.Intel.Resolve("synthesis", p.Config.Model)
	if err != nil {
		return nil, nil, err
	}

	if err := e.acquire(ctx, resolved.Driver.Name()); err != nil {
		return nil, nil, err
	}

	resp, err := resolved.Driver.Complete(ctx, &driver.Request{
		Model:       resolved.Model,
		System:      p.Config.SystemTemplate,
		Prompt:      buildUserPrompt(req, result),
		Temperature: p.Config.Temperature,
		MaxTokens:   p.Config.MaxTokens,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("synthesis via %s: %w", resolved.ProviderID, err)
	}
	return resolved, resp, nil
}

func (e *Engine) acquire(ctx context.Context, apiName string) error {
	if e.Throttle == nil {
		return nil
	}
	if e.QueueWait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.QueueWait)
		defer cancel()
	}
	if err := e.Throttle.Acquire(ctx, apiName); err != nil {
		return fmt.Errorf("throttle %s: %w", apiName, err)
	}
	return nil
}

func (e *Engine) now() time.Time {
	if e != nil && e.Clock != nil {
		return e.Clock()
	}
	return time.Now().UTC()
}

// CacheKey builds the canonical cache key for a request. Case and surrounding
// whitespace do not affect identity.
func CacheKey(req core.ResearchRequest) string {
	depth := req.Depth
	if depth == "" {
		depth = core.DepthInstant
	}
	parts := []string{req.Doctor, req.Specialty, req.Location, string(depth)}
	for i, part := range parts {
		parts[i] = strings.ToLower(strings.TrimSpace(part))
	}
	return strings.Join(parts, "|")
}

func buildQuery(req core.ResearchRequest) string {
	parts := make([]string, 0, 4)
	for _, part := range []string{req.Doctor, req.Specialty, req.Location} {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	parts = append(parts, "practice")
	return strings.Join(parts, " ")
}

func buildUserPrompt(req core.ResearchRequest, result *core.ResearchResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Research target: %s", req.Doctor)
	if req.Specialty != "" {
		fmt.Fprintf(&b, " (%s)", req.Specialty)
	}
	if req.Location != "" {
		fmt.Fprintf(&b, ", %s", req.Location)
	}
	b.WriteString("\n")
	if req.Product != "" {
		fmt.Fprintf(&b, "Product being sold: %s\n", req.Product)
	}

	b.WriteString("\nWeb search results:\n")
	for i, src := range result.Sources {
		fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, src.Title, src.URL)
		if src.Snippet != "" {
			fmt.Fprintf(&b, "   %s\n", src.Snippet)
		}
	}

	if result.Practice != nil && result.Practice.Markdown != "" {
		b.WriteString("\nScraped practice page:\n")
		b.WriteString(result.Practice.Markdown)
		b.WriteString("\n")
	}

	return b.String()
}

// parseBrief splits a synthesis response into its SUMMARY and SALES BRIEF
// sections and extracts the trailing confidence score. Responses without the
// expected headers land entirely in summary with confidence zero.
func parseBrief(text string) (summary, brief string, confidence int) {
	var summaryLines, briefLines, plainLines []string
	section := 0

	for _, line := range strings.Split(text, "\n") {
		header := strings.ToUpper(strings.TrimSuffix(strings.TrimSpace(strings.TrimLeft(line, "#* ")), ":"))
		switch {
		case header == "SUMMARY":
			section = 1
			continue
		case header == "SALES BRIEF":
			section = 2
			continue
		case strings.HasPrefix(header, "CONFIDENCE"):
			if _, value, ok := strings.Cut(line, ":"); ok {
				if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && n >= 0 && n <= 100 {
					confidence = n
				}
			}
			continue
		}

		switch section {
		case 1:
			summaryLines = append(summaryLines, line)
		case 2:
			briefLines = append(briefLines, line)
		default:
			plainLines = append(plainLines, line)
		}
	}

	summary = strings.TrimSpace(strings.Join(summaryLines, "\n"))
	brief = strings.TrimSpace(strings.Join(briefLines, "\n"))
	if summary == "" && brief == "" {
		summary = strings.TrimSpace(strings.Join(plainLines, "\n"))
	}
	return summary, brief, confidence
}

func truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	return s[:limit]
}
