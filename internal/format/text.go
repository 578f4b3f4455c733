// Package format lays evidence out in aligned terminal columns.
package format

import (
	"regexp"
	"strings"

	"github.com/mattn/go-runewidth"
)

var ansi = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// Ellipsis marks a cell cut to fit its column.
const Ellipsis = "..."

// Gap separates adjacent columns.
const Gap = "  "

// Width returns the visible width of s in terminal columns. Color escapes
// take no space and wide runes take two.
func Width(s string) int {
	return runewidth.StringWidth(ansi.ReplaceAllString(s, ""))
}

// Flatten collapses line breaks and whitespace runs so a review body or
// PR description fits on one row.
func Flatten(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Cell fits s into exactly width columns. Text that is too wide loses its
// color and ends in Ellipsis. Narrower text is padded with spaces.
func Cell(s string, width int) string {
	w := Width(s)
	if w > width {
		s = runewidth.Truncate(ansi.ReplaceAllString(s, ""), width, Ellipsis)
		w = runewidth.StringWidth(s)
	}
	return s + strings.Repeat(" ", max(0, width-w))
}

// Columns measures each column as the widest of its header and its
// flattened cells. A positive limit caps cell widths but never the header.
func Columns(header []string, rows [][]string, limit int) []int {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = Width(h)
	}
	for _, row := range rows {
		for i := range min(len(row), len(widths)) {
			w := Width(Flatten(row[i]))
			if limit > 0 {
				w = min(w, limit)
			}
			widths[i] = max(widths[i], w)
		}
	}
	return widths
}

// Row renders cells into the given column widths. Missing cells are blank
// and trailing padding is dropped.
func Row(cells []string, widths []int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		cell := ""
		if i < len(cells) {
			cell = Flatten(cells[i])
		}
		parts[i] = Cell(cell, w)
	}
	return strings.TrimRight(strings.Join(parts, Gap), " ")
}

// Rule returns a dash line spanning the given columns and the gaps between them.
func Rule(widths []int) string {
	total := len(Gap) * max(0, len(widths)-1)
	for _, w := range widths {
		total += w
	}
	return strings.Repeat("-", total)
}
