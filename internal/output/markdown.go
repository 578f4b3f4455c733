package output

import (
	"fmt"
	"io"
	"strings"
)

// MarkdownFormatter formats output as Markdown
type MarkdownFormatter struct{}

// Format outputs each section as a Markdown heading and table
func (f *MarkdownFormatter) Format(t Table, w io.Writer) error {
	for i, s := range t.Sections {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "## %s\n\n", s.Title)

		header := s.Header
		if header == nil {
			header = []string{"Field", "Value"}
		}
		writeMarkdownRow(w, header)
		fmt.Fprintln(w, "|"+strings.Repeat(" --- |", len(header)))

		for _, row := range s.Rows {
			writeMarkdownRow(w, row)
		}
		if len(s.Rows) == 0 {
			fmt.Fprintln(w, "\n*None*")
		}
	}
	return nil
}

func writeMarkdownRow(w io.Writer, cells []string) {
	escaped := make([]string, len(cells))
	for i, c := range cells {
		c = strings.ReplaceAll(c, "|", `\|`)
		escaped[i] = strings.Join(strings.Fields(c), " ")
	}
	fmt.Fprintf(w, "| %s |\n", strings.Join(escaped, " | "))
}
