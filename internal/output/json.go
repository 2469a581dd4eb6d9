package output

import (
	"encoding/json"

	"github.com/canvashq/canvas/internal/core"
)

// JSONFormatter renders results as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatResult renders a research result as JSON.
func (f *JSONFormatter) FormatResult(result *core.ResearchResult) (string, error) {
	if result == nil {
		return "", nil
	}

	if f.Indent {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	data, err := json.Marshal(result)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
