package output

import (
	"fmt"
	"io"
)

// Format represents the preview output format
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// Formats lists the accepted preview formats.
func Formats() []Format {
	return []Format{FormatTable, FormatJSON, FormatMarkdown}
}

// ParseFormat validates a --format flag value.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats() {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("invalid format %q (must be table, json or markdown)", s)
}

// Formatter renders an evidence table for preview
type Formatter interface {
	Format(t Table, w io.Writer) error
}

// NewFormatter creates a formatter for the specified format
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Pretty: true}
	case FormatMarkdown:
		return &MarkdownFormatter{}
	default:
		return &TableFormatter{}
	}
}
