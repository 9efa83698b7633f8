package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/torosent/calltrack/internal/metrics"
)

const (
	functionWidth = 40
	columnWidth   = 20

	// eraseBelow clears from the cursor to the end of the screen.
	eraseBelow = "\x1b[J"
)

var columnTitles = [...]string{"FUNCTION", "CALLS", "AVG LAT", "MAX LAT", "MIN LAT", "TOT LAT"}

// StatsOptions controls PrintStats.
type StatsOptions struct {
	SortKey metrics.SortKey
	Compact bool
	Reverse bool
	// Clear resets the registry after reading it and leaves the cursor at the
	// top of the printed block, so the next call redraws in place.
	Clear bool
}

// PrintStats renders a sorted snapshot of reg as a fixed-width table and
// returns the number of lines written. An unknown sort key prints nothing.
func PrintStats(w io.Writer, reg *metrics.Registry, opts StatsOptions) (int, error) {
	rows, err := metrics.FormatSnapshot(reg, opts.SortKey, opts.Reverse, opts.Clear)
	if err != nil {
		return 0, err
	}
	if opts.Clear {
		fmt.Fprint(w, eraseBelow)
	}
	lines := PrintTable(w, rows, opts.Compact)
	if opts.Clear && lines > 0 {
		fmt.Fprintf(w, "\x1b[%dA", lines)
	}
	return lines, nil
}

// PrintTable writes rows in the order given and returns the line count.
// Bordered mode frames the header with rules; compact mode drops every
// border character.
func PrintTable(w io.Writer, rows []metrics.Row, compact bool) int {
	lines := 0
	if !compact {
		fmt.Fprintln(w, rule())
		lines++
	}
	fmt.Fprintln(w, formatLine(compact, columnTitles[:]...))
	lines++
	if !compact {
		fmt.Fprintln(w, rule())
		lines++
	}
	for _, r := range rows {
		fmt.Fprintln(w, formatLine(compact,
			fitFunction(r.Function),
			fmt.Sprintf("%d", r.Calls),
			formatLatency(r.Avg, r.Unit),
			formatLatency(r.Max, r.Unit),
			formatLatency(r.Min, r.Unit),
			formatLatency(r.Total, r.Unit),
		))
		lines++
	}
	return lines
}

func formatLine(compact bool, cells ...string) string {
	sep := "|"
	if compact {
		sep = " "
	}
	var b strings.Builder
	b.WriteString(sep)
	for i, cell := range cells {
		switch i {
		case 0:
			fmt.Fprintf(&b, " %*s ", functionWidth, cell)
		case 1:
			fmt.Fprintf(&b, " %s ", center(cell, columnWidth))
		default:
			fmt.Fprintf(&b, " %-*s ", columnWidth, cell)
		}
		b.WriteString(sep)
	}
	if compact {
		return strings.TrimRight(b.String(), " ")
	}
	return b.String()
}

func rule() string {
	var b strings.Builder
	b.WriteString("_")
	for i := range columnTitles {
		width := columnWidth
		if i == 0 {
			width = functionWidth
		}
		b.WriteString(" ")
		b.WriteString(strings.Repeat("_", width))
		b.WriteString(" _")
	}
	return b.String()
}

// fitFunction keeps the tail of long identities, which carries the method name.
func fitFunction(name string) string {
	r := []rune(name)
	if len(r) <= functionWidth {
		return name
	}
	return "..." + string(r[len(r)-functionWidth+3:])
}

func center(s string, width int) string {
	n := len([]rune(s))
	if n >= width {
		return s
	}
	left := (width - n) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", width-n-left)
}

func formatLatency(v float64, unit string) string {
	return fmt.Sprintf("%.4f %s", v, unit)
}
