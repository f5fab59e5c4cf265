// Package print renders result sets as plain ASCII tables.
package print

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"

	"github.com/tkopets/asyncdb/internal/db"
)

type Options struct {
	MaxWidth int // max display width of a column, 0 = 40
	MaxRows  int // rows to print before summarising, 0 = all
}

// RenderTable writes rows as a boxed table. Widths are measured in terminal
// cells, so wide runes stay aligned.
func RenderTable(w io.Writer, rows *db.Rows, opts Options) {
	if opts.MaxWidth <= 0 {
		opts.MaxWidth = 40
	}
	if rows == nil || len(rows.Columns) == 0 {
		fmt.Fprintln(w, "(no columns)")
		return
	}

	data := rows.Data
	hidden := 0
	if opts.MaxRows > 0 && len(data) > opts.MaxRows {
		hidden = len(data) - opts.MaxRows
		data = data[:opts.MaxRows]
	}

	header := make([]string, len(rows.Columns))
	for i, col := range rows.Columns {
		header[i] = col.Name
	}
	cells := make([][]string, len(data))
	for r, row := range data {
		cells[r] = make([]string, len(header))
		for i := range header {
			if i < len(row) {
				cells[r][i] = FormatCell(row[i])
			}
		}
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = min(runewidth.StringWidth(h), opts.MaxWidth)
	}
	for _, row := range cells {
		for i, c := range row {
			widths[i] = max(widths[i], min(runewidth.StringWidth(c), opts.MaxWidth))
		}
	}

	rule := func(ch string) string {
		var b strings.Builder
		b.WriteString("+")
		for _, wd := range widths {
			b.WriteString(strings.Repeat(ch, wd+2))
			b.WriteString("+")
		}
		return b.String()
	}
	line := func(row []string) string {
		var b strings.Builder
		b.WriteString("|")
		for i, c := range row {
			b.WriteString(" ")
			b.WriteString(runewidth.FillRight(runewidth.Truncate(c, widths[i], "..."), widths[i]))
			b.WriteString(" |")
		}
		return b.String()
	}

	fmt.Fprintln(w, rule("-"))
	fmt.Fprintln(w, line(header))
	fmt.Fprintln(w, rule("="))
	for _, row := range cells {
		fmt.Fprintln(w, line(row))
	}
	fmt.Fprintln(w, rule("-"))
	if hidden > 0 {
		fmt.Fprintf(w, "(%d more rows)\n", hidden)
	}
}

// FormatCell renders a scanned value the way the table shows it.
func FormatCell(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case string:
		return t
	case []byte:
		if printable(string(t)) {
			return string(t)
		}
		return fmt.Sprintf("<blob %d bytes>", len(t))
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

func printable(s string) bool {
	for _, r := range s {
		if !unicode.IsPrint(r) && r != '\n' && r != '\t' {
			return false
		}
	}
	return true
}
