package core

import "time"

// ResearchDepth selects how much outbound work a research run performs.
type ResearchDepth string

const (
	DepthInstant ResearchDepth = "instant"
	DepthDeep    ResearchDepth = "deep"
)

// ResearchStatus represents the outcome state of a research run.
type ResearchStatus int

const (
	StatusUnknown  ResearchStatus = 0
	StatusComplete ResearchStatus = 1
	StatusPartial  ResearchStatus = 2
	StatusError    ResearchStatus = 3
)

// ResearchRequest describes the target of a research run.
type ResearchRequest struct {
	Doctor    string        `json:"doctor"`
	Specialty string        `json:"specialty,omitempty"`
	Location  string        `json:"location,omitempty"`
	Product   string        `json:"product,omitempty"`
	Depth     ResearchDepth `json:"depth,omitempty"`
}

// Source is a web source that contributed to a research result.
type Source struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

// PracticeProfile captures what was learned about the doctor's practice.
type PracticeProfile struct {
	Name     string `json:"name,omitempty"`
	Website  string `json:"website,omitempty"`
	Address  string `json:"address,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Markdown string `json:"markdown,omitempty"`
}

// Provenance captures metadata about how a research result was produced.
type Provenance struct {
	ResearchID     string     `json:"research_id"`
	RequestedAt    time.Time  `json:"requested_at"`
	ResolvedAt     time.Time  `json:"resolved_at"`
	Provider       string     `json:"provider,omitempty"`
	Model          string     `json:"model,omitempty"`
	FromCache      bool       `json:"from_cache"`
	CacheExpiresAt *time.Time `json:"cache_expires_at,omitempty"`
	ToolVersion    string     `json:"tool_version"`
}

// ResearchResult is the assembled output of a research run.
type ResearchResult struct {
	Doctor     string           `json:"doctor"`
	Specialty  string           `json:"specialty,omitempty"`
	Location   string           `json:"location,omitempty"`
	Status     ResearchStatus   `json:"status"`
	Summary    string           `json:"summary,omitempty"`
	SalesBrief string           `json:"sales_brief,omitempty"`
	Confidence int              `json:"confidence"`
	Sources    []Source         `json:"sources,omitempty"`
	Practice   *PracticeProfile `json:"practice,omitempty"`
	Message    string           `json:"message,omitempty"`
	Provenance Provenance       `json:"provenance"`
}
