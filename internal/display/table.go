package display

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// ruleTail is how far the header rule runs past the last column's start.
const ruleTail = 50

// Table prints rows as left-aligned columns separated by two spaces. Column
// widths come from the rows only unless FitHeaders is set, so by default a
// header longer than every cell in its column pushes the following headers
// right.
type Table struct {
	Headers    []string
	FitHeaders bool
	// MaxWidth cuts last-column cells longer than this to MaxWidth-3 runes
	// plus "...". Zero disables truncation.
	MaxWidth int
	rows     [][]string
}

// AddRow appends a row. Missing cells print as empty.
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Len returns the number of rows added.
func (t *Table) Len() int {
	return len(t.rows)
}

// Render writes the header, a dashed rule and every row.
func (t *Table) Render(w io.Writer) {
	cols := len(t.Headers)
	widths := make([]int, cols)
	if t.FitHeaders {
		for i := 0; i < cols-1; i++ {
			widths[i] = utf8.RuneCountInString(t.Headers[i])
		}
	}
	for _, row := range t.rows {
		for i := 0; i < cols-1 && i < len(row); i++ {
			if n := utf8.RuneCountInString(row[i]); n > widths[i] {
				widths[i] = n
			}
		}
	}

	fmt.Fprintln(w, t.line(t.Headers, widths))

	rule := ruleTail
	for i := 0; i < cols-1; i++ {
		rule += widths[i] + 2
	}
	fmt.Fprintln(w, strings.Repeat("-", rule))

	for _, row := range t.rows {
		cells := make([]string, cols)
		copy(cells, row)
		if t.MaxWidth > 3 && cols > 0 {
			cells[cols-1] = Truncate(cells[cols-1], t.MaxWidth)
		}
		fmt.Fprintln(w, t.line(cells, widths))
	}
}

func (t *Table) line(cells []string, widths []int) string {
	var b strings.Builder
	for i, cell := range cells {
		if i == len(cells)-1 {
			b.WriteString(cell)
			break
		}
		b.WriteString(pad(cell, widths[i]))
		b.WriteString("  ")
	}
	return b.String()
}

// Truncate shortens s to at most max runes, ending in "..." when cut.
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max-3]) + "..."
}

func pad(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}
