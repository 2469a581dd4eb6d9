package output

import (
	"fmt"
	"strings"

	"github.com/canvashq/canvas/internal/core"
)

// MarkdownFormatter renders results as markdown.
type MarkdownFormatter struct{}

// FormatResult renders a research result as a markdown document.
func (f *MarkdownFormatter) FormatResult(result *core.ResearchResult) (string, error) {
	if result == nil {
		return "", nil
	}

	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", result.Doctor)
	if result.Specialty != "" || result.Location != "" {
		parts := make([]string, 0, 2)
		if result.Specialty != "" {
			parts = append(parts, result.Specialty)
		}
		if result.Location != "" {
			parts = append(parts, result.Location)
		}
		fmt.Fprintf(&b, "_%s_\n\n", strings.Join(parts, ", "))
	}

	fmt.Fprintf(&b, "**Status:** %s | **Confidence:** %d/100", statusLabel(result.Status), result.Confidence)
	if result.Provenance.FromCache {
		b.WriteString(" | cached")
	}
	b.WriteString("\n\n")

	if result.Summary != "" {
		b.WriteString("## Summary\n\n")
		b.WriteString(result.Summary)
		b.WriteString("\n\n")
	}
	if result.SalesBrief != "" {
		b.WriteString("## Sales brief\n\n")
		b.WriteString(result.SalesBrief)
		b.WriteString("\n\n")
	}
	if result.Practice != nil && result.Practice.Name != "" {
		b.WriteString("## Practice\n\n")
		fmt.Fprintf(&b, "- Name: %s\n", result.Practice.Name)
		if result.Practice.Website != "" {
			fmt.Fprintf(&b, "- Website: %s\n", result.Practice.Website)
		}
		b.WriteString("\n")
	}
	if len(result.Sources) > 0 {
		b.WriteString("## Sources\n\n")
		for _, src := range result.Sources {
			fmt.Fprintf(&b, "- [%s](%s)\n", src.Title, src.URL)
		}
	}

	return strings.TrimRight(b.String(), "\n"), nil
}
