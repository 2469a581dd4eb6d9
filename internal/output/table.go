package output

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/canvashq/canvas/internal/core"
	"github.com/canvashq/canvas/internal/core/store"
	"github.com/canvashq/canvas/internal/core/throttle"
)

// TableFormatter renders results as an ASCII table plus prose sections.
type TableFormatter struct{}

// FormatResult renders a research result as a table with the summary and
// sales brief appended below.
func (f *TableFormatter) FormatResult(result *core.ResearchResult) (string, error) {
	if result == nil {
		return "", nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Field", "Value"})
	t.AppendRow(table.Row{"Doctor", result.Doctor})
	if result.Specialty != "" {
		t.AppendRow(table.Row{"Specialty", result.Specialty})
	}
	if result.Location != "" {
		t.AppendRow(table.Row{"Location", result.Location})
	}
	t.AppendRow(table.Row{"Status", statusLabel(result.Status)})
	t.AppendRow(table.Row{"Confidence", fmt.Sprintf("%d/100", result.Confidence)})
	if result.Provenance.Provider != "" {
		t.AppendRow(table.Row{"Provider", result.Provenance.Provider + " (" + result.Provenance.Model + ")"})
	}
	t.AppendRow(table.Row{"From cache", fmt.Sprintf("%v", result.Provenance.FromCache)})
	if result.Message != "" {
		t.AppendRow(table.Row{"Notes", result.Message})
	}

	var b strings.Builder
	b.WriteString(t.Render())

	if result.Summary != "" {
		b.WriteString("\n\nSummary:\n")
		b.WriteString(result.Summary)
	}
	if result.SalesBrief != "" {
		b.WriteString("\n\nSales brief:\n")
		b.WriteString(result.SalesBrief)
	}
	if len(result.Sources) > 0 {
		b.WriteString("\n\nSources:\n")
		for i, src := range result.Sources {
			fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, src.Title, src.URL)
		}
	}

	return b.String(), nil
}

// FormatThrottleStats renders throttle bucket snapshots as a table.
func FormatThrottleStats(stats []throttle.Stats) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"API", "In Window", "Max", "Queue", "Utilization"})

	for _, s := range stats {
		t.AppendRow(table.Row{
			s.APIName,
			s.CurrentCount,
			s.MaxCount,
			s.QueueLength,
			fmt.Sprintf("%d%%", s.UtilizationPercent),
		})
	}

	return t.Render()
}

// FormatHistoryEntries renders research run log rows as a table.
func FormatHistoryEntries(entries []store.HistoryEntry) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Doctor", "Status", "Confidence", "Provider", "Cached", "Resolved"})

	for _, e := range entries {
		t.AppendRow(table.Row{
			e.Doctor,
			statusLabel(core.ResearchStatus(e.Status)),
			fmt.Sprintf("%d/100", e.Confidence),
			e.Provider,
			e.FromCache,
			e.ResolvedAt.Format("2006-01-02 15:04"),
		})
	}

	return t.Render()
}

// FormatCachedEntries renders persisted research cache rows as a table.
func FormatCachedEntries(entries []store.CachedEntry) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Doctor", "Location", "Depth", "Created", "Expires", "Expired"})

	for _, e := range entries {
		t.AppendRow(table.Row{
			e.Doctor,
			e.Location,
			e.Depth,
			e.CreatedAt.Format("2006-01-02 15:04"),
			e.ExpiresAt.Format("2006-01-02 15:04"),
			e.Expired,
		})
	}

	return t.Render()
}
