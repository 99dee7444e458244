package summarizer

import (
	"encoding/json"
	"path/filepath"
	"strings"
)

// Formatter defines the interface for formatting a Summary.
type Formatter interface {
	// Format converts a Summary to a formatted string.
	Format(summary *Summary) string
}

// FormatFunc is a function adapter for the Formatter interface.
type FormatFunc func(summary *Summary) string

// Format implements the Formatter interface.
func (f FormatFunc) Format(summary *Summary) string {
	return f(summary)
}

// JSONFormatter renders the summary as indented JSON for scripts that
// collect run statistics.
var JSONFormatter = FormatFunc(func(summary *Summary) string {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "{}\n"
	}
	return string(data) + "\n"
})

// ForPath picks the formatter by the extension of path: ".json" selects
// JSONFormatter, anything else Markdown built with opts.
func ForPath(path string, opts ...MarkdownOption) Formatter {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return JSONFormatter
	}
	return NewMarkdownFormatter(opts...)
}
