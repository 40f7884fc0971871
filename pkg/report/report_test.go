package report_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildbench/buildbench/pkg/report"
	"github.com/buildbench/buildbench/pkg/store"
)

func TestCeilMillis(t *testing.T) {
	tests := []struct {
		name string
		ns   int64
		want int64
	}{
		{"zero", 0, 0},
		{"one nanosecond rounds up to one", 1, 1},
		{"just under a millisecond", 999_999, 1},
		{"exactly one millisecond", 1_000_000, 1},
		{"just over a millisecond", 1_000_001, 2},
		{"exactly two milliseconds", 2_000_000, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, report.CeilMillis(tt.ns))
		})
	}
}

func sampleRun(id store.RunID, hostname, language, toolchain, name string, durations ...int64) store.Run {
	run := store.Run{
		ID:             id,
		Hostname:       hostname,
		Language:       language,
		ToolchainLabel: toolchain,
		BenchmarkName:  name,
	}

	for _, d := range durations {
		run.Samples = append(run.Samples, store.Sample{RunID: id, DurationNs: d})
	}

	return run
}

func TestReporter_Aggregates(t *testing.T) {
	var out bytes.Buffer

	runs := []store.Run{
		sampleRun(1, "myhost", "Rust", "Stable", "full build and test",
			2_000_000, 5_000_000, 3_000_000),
	}

	require.NoError(t, report.New(&out).DumpRuns(runs))

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 2)

	row := lines[1]
	assert.Contains(t, row, "myhost")

	// min 2ms, avg ceil(10/3)=4ms, max 5ms.
	cells := splitCells(row)
	require.Len(t, cells, 7)
	assert.Equal(t, "2", cells[4])
	assert.Equal(t, "4", cells[5])
	assert.Equal(t, "5", cells[6])
}

func TestReporter_NoSamplesPlaceholder(t *testing.T) {
	var out bytes.Buffer

	runs := []store.Run{
		sampleRun(1, "myhost", "C++", "Clang", "test only"),
	}

	require.NoError(t, report.New(&out).DumpRuns(runs))

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 2)

	cells := splitCells(lines[1])
	require.Len(t, cells, 7)
	assert.Equal(t, "---", cells[4])
	assert.Equal(t, "---", cells[5])
	assert.Equal(t, "---", cells[6])
}

func TestReporter_ColumnAlignment(t *testing.T) {
	var out bytes.Buffer

	runs := []store.Run{
		sampleRun(1, "a", "Rust", "Stable", "x", 1),
		sampleRun(2, "longer-hostname", "C++", "Clang libc++ PCH Mold",
			"full build and test", 123_000_000_000),
	}

	require.NoError(t, report.New(&out).DumpRuns(runs))

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 3)

	// Every row has the same rendered width.
	assert.Equal(t, len(lines[0]), len(lines[1]))
	assert.Equal(t, len(lines[0]), len(lines[2]))

	// Text cells are left-aligned, numeric cells right-aligned.
	shortRow := splitCells(lines[1])
	assert.True(t, strings.HasPrefix(shortRow[0], "a "))
	assert.True(t, strings.HasSuffix(shortRow[4], " 1"))

	// Header is present with every column.
	for _, col := range []string{
		"hostname", "lang", "toolchain", "benchmark",
		"min(ms)", "avg(ms)", "max(ms)",
	} {
		assert.Contains(t, lines[0], col)
	}
}

func TestReporter_RowsFollowInputOrder(t *testing.T) {
	var out bytes.Buffer

	runs := []store.Run{
		sampleRun(2, "h", "l", "t", "second", 1),
		sampleRun(1, "h", "l", "t", "first", 1),
	}

	require.NoError(t, report.New(&out).DumpRuns(runs))

	text := out.String()
	assert.Less(t, strings.Index(text, "second"), strings.Index(text, "first"))
}

// splitCells splits a rendered row on the column separator without
// trimming alignment padding inside cells.
func splitCells(row string) []string {
	return strings.Split(row, " | ")
}
