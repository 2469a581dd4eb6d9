package research

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/canvashq/canvas/internal/core"
	"github.com/canvashq/canvas/internal/core/cache"
	"github.com/canvashq/canvas/internal/core/throttle"
	"github.com/canvashq/canvas/internal/intel"
	"github.com/canvashq/canvas/internal/intel/driver"
	"github.com/canvashq/canvas/internal/intel/prompt"
	"github.com/canvashq/canvas/internal/research/provider/brave"
	"github.com/canvashq/canvas/internal/research/provider/firecrawl"
)

const briefResponse = `SUMMARY
Dr. Smith runs a two-provider cardiology practice in Austin.

SALES BRIEF
- High echo volume suggests imaging consumable needs.
- Practice recently expanded; likely open to new vendors.

CONFIDENCE: 80`

type stubSearcher struct {
	results []brave.Result
	err     error
	calls   int
}

func (s *stubSearcher) Search(_ context.Context, _ string, _ int) ([]brave.Result, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

type stubScraper struct {
	page  *firecrawl.Page
	err   error
	calls int
}

func (s *stubScraper) Scrape(_ context.Context, _ string) (*firecrawl.Page, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.page, nil
}

type stubDriver struct {
	resp    *driver.Response
	err     error
	lastReq *driver.Request
}

func (d *stubDriver) Complete(_ context.Context, req *driver.Request) (*driver.Response, error) {
	d.lastReq = req
	if d.err != nil {
		return nil, d.err
	}
	return d.resp, nil
}

func (d *stubDriver) Name() string { return "stub" }

type stubIntel struct {
	driver  *stubDriver
	prompts *prompt.Registry
}

func newStubIntel(t *testing.T, text string, err error) *stubIntel {
	t.Helper()
	prompts, perr := prompt.NewRegistry("")
	require.NoError(t, perr)
	return &stubIntel{
		driver:  &stubDriver{resp: &driver.Response{Text: text, Model: "stub-model"}, err: err},
		prompts: prompts,
	}
}

func (s *stubIntel) Resolve(_, modelOverride string) (*intel.Resolved, error) {
	model := modelOverride
	if model == "" {
		model = "stub-model"
	}
	return &intel.Resolved{ProviderID: "stub", Driver: s.driver, Model: model}, nil
}

func (s *stubIntel) Prompts() *prompt.Registry { return s.prompts }

func testHits() []brave.Result {
	return []brave.Result{
		{Title: "Smith Cardiology", URL: "https://example.com/smith", Description: "Austin cardiology practice"},
		{Title: "Dr. Smith profile", URL: "https://example.com/profile"},
	}
}

func newTestEngine(t *testing.T) (*Engine, *stubSearcher, *stubScraper, *stubIntel) {
	t.Helper()
	search := &stubSearcher{results: testHits()}
	scrape := &stubScraper{page: &firecrawl.Page{
		Markdown:  "# Smith Cardiology\n\nBoard certified, two locations.",
		Title:     "Smith Cardiology",
		SourceURL: "https://example.com/smith",
	}}
	synth := newStubIntel(t, briefResponse, nil)

	return &Engine{
		Search:      search,
		Scrape:      scrape,
		Intel:       synth,
		Throttle:    throttle.NewRegistry(nil),
		Cache:       cache.New(cache.Options{}),
		ToolVersion: "test",
	}, search, scrape, synth
}

func TestRunAssemblesResult(t *testing.T) {
	engine, _, scrape, synth := newTestEngine(t)

	result, err := engine.Run(context.Background(), core.ResearchRequest{
		Doctor:    "Dr. Smith",
		Specialty: "Cardiology",
		Location:  "Austin, TX",
	})
	require.NoError(t, err)

	require.Equal(t, core.StatusComplete, result.Status)
	require.Contains(t, result.Summary, "two-provider cardiology practice")
	require.Contains(t, result.SalesBrief, "imaging consumable")
	require.Equal(t, 80, result.Confidence)
	require.Len(t, result.Sources, 2)

	require.NotEmpty(t, result.Provenance.ResearchID)
	require.False(t, result.Provenance.FromCache)
	require.Equal(t, "stub", result.Provenance.Provider)
	require.Equal(t, "test", result.Provenance.ToolVersion)
	require.False(t, result.Provenance.ResolvedAt.Before(result.Provenance.RequestedAt))

	// Instant depth never scrapes.
	require.Zero(t, scrape.calls)
	require.NotNil(t, synth.driver.lastReq)
	require.Contains(t, synth.driver.lastReq.Prompt, "Smith Cardiology")
}

func TestRunCacheHit(t *testing.T) {
	engine, search, _, _ := newTestEngine(t)
	req := core.ResearchRequest{Doctor: "Dr. Smith", Location: "Austin, TX"}

	first, err := engine.Run(context.Background(), req)
	require.NoError(t, err)
	require.False(t, first.Provenance.FromCache)

	second, err := engine.Run(context.Background(), req)
	require.NoError(t, err)
	require.True(t, second.Provenance.FromCache)
	require.Equal(t, first.Provenance.ResearchID, second.Provenance.ResearchID)
	require.Equal(t, 1, search.calls)
}

func TestRunFailedSearchNotCached(t *testing.T) {
	engine, search, _, _ := newTestEngine(t)
	search.err = fmt.Errorf("upstream down")
	req := core.ResearchRequest{Doctor: "Dr. Smith"}

	_, err := engine.Run(context.Background(), req)
	require.Error(t, err)
	require.Contains(t, err.Error(), "upstream down")

	search.err = nil
	result, err := engine.Run(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, core.StatusComplete, result.Status)
	require.Equal(t, 2, search.calls)
}

func TestRunDeepIncludesPractice(t *testing.T) {
	engine, _, scrape, _ := newTestEngine(t)

	result, err := engine.Run(context.Background(), core.ResearchRequest{
		Doctor: "Dr. Smith",
		Depth:  core.DepthDeep,
	})
	require.NoError(t, err)

	require.Equal(t, 1, scrape.calls)
	require.NotNil(t, result.Practice)
	require.Equal(t, "Smith Cardiology", result.Practice.Name)
	require.Equal(t, "https://example.com/smith", result.Practice.Website)
	require.Contains(t, result.Practice.Markdown, "Board certified")
}

func TestRunDeepScrapeFailureDegrades(t *testing.T) {
	engine, _, scrape, _ := newTestEngine(t)
	scrape.err = fmt.Errorf("blocked by robots")

	result, err := engine.Run(context.Background(), core.ResearchRequest{
		Doctor: "Dr. Smith",
		Depth:  core.DepthDeep,
	})
	require.NoError(t, err)

	require.Equal(t, core.StatusPartial, result.Status)
	require.Nil(t, result.Practice)
	require.Contains(t, result.Message, "scrape failed")
	require.NotEmpty(t, result.SalesBrief)
}

func TestRunNoResults(t *testing.T) {
	engine, search, _, synth := newTestEngine(t)
	search.results = nil

	result, err := engine.Run(context.Background(), core.ResearchRequest{Doctor: "Dr. Nobody"})
	require.NoError(t, err)
	require.Equal(t, core.StatusError, result.Status)
	require.Contains(t, result.Message, "no web results")
	require.Nil(t, synth.driver.lastReq)
	require.NotZero(t, result.Provenance.ResolvedAt)
}

func TestRunRequiresDoctor(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)
	_, err := engine.Run(context.Background(), core.ResearchRequest{Doctor: "  "})
	require.Error(t, err)
	require.Contains(t, err.Error(), "doctor is required")
}

func TestRunRejectsUnknownDepth(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)
	_, err := engine.Run(context.Background(), core.ResearchRequest{Doctor: "Dr. Smith", Depth: "exhaustive"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown research depth")
}

func TestRunSynthesisFailurePropagates(t *testing.T) {
	engine, _, _, synth := newTestEngine(t)
	synth.driver.err = fmt.Errorf("model overloaded")

	_, err := engine.Run(context.Background(), core.ResearchRequest{Doctor: "Dr. Smith"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "model overloaded")
}

func TestCacheKeyNormalization(t *testing.T) {
	a := CacheKey(core.ResearchRequest{Doctor: " Dr. Smith ", Location: "Austin, TX"})
	b := CacheKey(core.ResearchRequest{Doctor: "dr. smith", Location: "austin, tx", Depth: core.DepthInstant})
	require.Equal(t, a, b)

	deep := CacheKey(core.ResearchRequest{Doctor: "dr. smith", Location: "austin, tx", Depth: core.DepthDeep})
	require.NotEqual(t, a, deep)
}

func TestParseBriefWithoutHeaders(t *testing.T) {
	summary, brief, confidence := parseBrief("Just one paragraph of prose.")
	require.Equal(t, "Just one paragraph of prose.", summary)
	require.Empty(t, brief)
	require.Zero(t, confidence)
}

func TestParseBriefMarkdownHeaders(t *testing.T) {
	summary, brief, confidence := parseBrief("## Summary\nThe practice.\n\n## Sales Brief\n- Angle one.\n\nConfidence: 55")
	require.Equal(t, "The practice.", summary)
	require.Equal(t, "- Angle one.", brief)
	require.Equal(t, 55, confidence)
}
