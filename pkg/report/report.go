// Package report renders collections of runs as aligned text tables.
package report

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/buildbench/buildbench/pkg/store"
)

// noData is rendered for aggregate cells of a run with zero samples.
const noData = "---"

// Reporter writes run tables to an output stream.
type Reporter struct {
	w io.Writer
}

// New creates a Reporter writing to w.
func New(w io.Writer) *Reporter {
	return &Reporter{w: w}
}

// CeilMillis converts a nanosecond duration to whole milliseconds,
// rounding up so a duration is never under-reported. Any positive
// duration yields at least 1.
func CeilMillis(ns int64) int64 {
	return int64(math.Ceil(float64(ns) / 1e6))
}

// ceilMillisFloat is CeilMillis for fractional nanosecond values, used
// for the arithmetic mean.
func ceilMillisFloat(ns float64) int64 {
	return int64(math.Ceil(ns / 1e6))
}

// DumpRuns renders the given runs as an aligned table. Rows appear in
// the iteration order of the input. Runs with fewer samples than
// requested are valid partial data; runs with no samples render their
// aggregates as a placeholder.
func (r *Reporter) DumpRuns(runs []store.Run) error {
	header := []string{
		"hostname", "lang", "toolchain", "benchmark",
		"min(ms)", "avg(ms)", "max(ms)",
	}

	// The first four columns are text, the rest numeric.
	const numericFrom = 4

	rows := make([][]string, 0, len(runs))
	for i := range runs {
		rows = append(rows, runRow(&runs[i]))
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}

	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	printRow := func(row []string) error {
		cells := make([]string, len(row))
		for i, cell := range row {
			if i >= numericFrom {
				cells[i] = pad(cell, widths[i], true)
			} else {
				cells[i] = pad(cell, widths[i], false)
			}
		}

		_, err := fmt.Fprintln(r.w, strings.Join(cells, " | "))

		return err
	}

	if err := printRow(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, row := range rows {
		if err := printRow(row); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}

	return nil
}

// runRow formats one run as table cells.
func runRow(run *store.Run) []string {
	minCell, avgCell, maxCell := noData, noData, noData

	if len(run.Samples) > 0 {
		var (
			minNs = run.Samples[0].DurationNs
			maxNs = run.Samples[0].DurationNs
			sum   int64
		)

		for _, s := range run.Samples {
			if s.DurationNs < minNs {
				minNs = s.DurationNs
			}

			if s.DurationNs > maxNs {
				maxNs = s.DurationNs
			}

			sum += s.DurationNs
		}

		mean := float64(sum) / float64(len(run.Samples))

		minCell = strconv.FormatInt(CeilMillis(minNs), 10)
		avgCell = strconv.FormatInt(ceilMillisFloat(mean), 10)
		maxCell = strconv.FormatInt(CeilMillis(maxNs), 10)
	}

	return []string{
		run.Hostname,
		run.Language,
		run.ToolchainLabel,
		run.BenchmarkName,
		minCell,
		avgCell,
		maxCell,
	}
}

// pad aligns a cell to the column width.
func pad(s string, width int, rightAlign bool) string {
	if rightAlign {
		return strings.Repeat(" ", width-len(s)) + s
	}

	return s + strings.Repeat(" ", width-len(s))
}
