package output

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/canvashq/canvas/internal/core"
	"github.com/canvashq/canvas/internal/core/throttle"
)

func sampleResult() *core.ResearchResult {
	return &core.ResearchResult{
		Doctor:     "Dr. Smith",
		Specialty:  "Cardiology",
		Location:   "Austin, TX",
		Status:     core.StatusComplete,
		Summary:    "A two-provider cardiology practice.",
		SalesBrief: "- High echo volume.",
		Confidence: 80,
		Sources: []core.Source{
			{Title: "Smith Cardiology", URL: "https://example.com/smith"},
		},
		Provenance: core.Provenance{
			Provider: "router",
			Model:    "test-model",
		},
	}
}

func TestParseFormat(t *testing.T) {
	format, err := ParseFormat("")
	require.NoError(t, err)
	require.Equal(t, FormatTable, format)

	format, err = ParseFormat(" JSON ")
	require.NoError(t, err)
	require.Equal(t, FormatJSON, format)

	_, err = ParseFormat("yaml")
	require.Error(t, err)
}

func TestJSONFormatterRoundTrips(t *testing.T) {
	out, err := (&JSONFormatter{Indent: true}).FormatResult(sampleResult())
	require.NoError(t, err)

	var decoded core.ResearchResult
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	require.Equal(t, "Dr. Smith", decoded.Doctor)
	require.Equal(t, 80, decoded.Confidence)
}

func TestTableFormatterIncludesSections(t *testing.T) {
	out, err := (&TableFormatter{}).FormatResult(sampleResult())
	require.NoError(t, err)

	require.Contains(t, out, "Dr. Smith")
	require.Contains(t, out, "80/100")
	require.Contains(t, out, "Sales brief:")
	require.Contains(t, out, "https://example.com/smith")
}

func TestMarkdownFormatterStructure(t *testing.T) {
	out, err := (&MarkdownFormatter{}).FormatResult(sampleResult())
	require.NoError(t, err)

	require.Contains(t, out, "# Dr. Smith")
	require.Contains(t, out, "## Summary")
	require.Contains(t, out, "- [Smith Cardiology](https://example.com/smith)")
}

func TestFormatThrottleStats(t *testing.T) {
	out := FormatThrottleStats([]throttle.Stats{
		{APIName: "brave", CurrentCount: 3, MaxCount: 15, QueueLength: 1, UtilizationPercent: 20},
	})
	require.Contains(t, out, "brave")
	require.Contains(t, out, "20%")
}

func TestNilResultRenders(t *testing.T) {
	for _, f := range []Formatter{&TableFormatter{}, &JSONFormatter{}, &MarkdownFormatter{}} {
		out, err := f.FormatResult(nil)
		require.NoError(t, err)
		require.Empty(t, out)
	}
}
