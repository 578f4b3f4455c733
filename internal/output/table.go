package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/spiffcs/evidence-collector/internal/constants"
	"github.com/spiffcs/evidence-collector/internal/format"
)

// TableFormatter formats output as a terminal table
type TableFormatter struct{}

// hyperlink creates a clickable terminal hyperlink using OSC 8
// Format: \033]8;;URL\033\\TEXT\033]8;;\033\\
func hyperlink(text, url string) string {
	// Only use hyperlinks if stdout is a terminal
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return text
	}
	return fmt.Sprintf("\033]8;;%s\033\\%s\033]8;;\033\\", url, text)
}

// Format outputs each section as an aligned table
func (f *TableFormatter) Format(t Table, w io.Writer) error {
	for i, s := range t.Sections {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, color.New(color.Bold).Sprint(s.Title))

		if s.Header == nil {
			formatKeyValues(s.Rows, w)
			continue
		}
		if len(s.Rows) == 0 {
			fmt.Fprintln(w, color.HiBlackString("  (none)"))
			continue
		}
		formatGrid(s.Header, s.Rows, w)
	}
	return nil
}

// formatKeyValues prints "key  value" rows with the keys aligned.
func formatKeyValues(rows [][]string, w io.Writer) {
	keyWidth := 0
	for _, row := range rows {
		if len(row) > 0 {
			keyWidth = max(keyWidth, format.Width(row[0]))
		}
	}

	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		value := format.Flatten(row[1])
		if strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
			value = hyperlink(value, value)
		}
		fmt.Fprintf(w, "  %s%s%s\n", color.CyanString(format.Cell(row[0], keyWidth)), format.Gap, value)
	}
}

// formatGrid prints a header row, a rule and the data rows. Cells wider
// than the preview column width are truncated.
func formatGrid(header []string, rows [][]string, w io.Writer) {
	widths := format.Columns(header, rows, constants.PreviewColumnWidth)
	fmt.Fprintln(w, "  "+color.New(color.Bold).Sprint(format.Row(header, widths)))
	fmt.Fprintln(w, "  "+format.Rule(widths))
	for _, row := range rows {
		fmt.Fprintln(w, "  "+format.Row(row, widths))
	}
}
