package profiler

import (
	"context"
	"fmt"
	"io"

	"github.com/buildbench/buildbench/pkg/benchmark"
)

// Lister satisfies the Profiler capability without executing anything.
// It records which benchmarks would run, for dry-run discovery.
type Lister struct {
	w         io.Writer
	fullNames []string
}

// Compile-time interface check.
var _ Profiler = (*Lister)(nil)

// NewLister creates a Lister writing to w.
func NewLister(w io.Writer) *Lister {
	return &Lister{w: w}
}

// Profile records the benchmark's full name. No lifecycle hook is ever
// invoked.
func (l *Lister) Profile(_ context.Context, b benchmark.Benchmark) error {
	l.fullNames = append(l.fullNames, benchmark.FullName(b))

	return nil
}

// DumpResults prints every recorded full name, one per line, in the
// order the benchmarks were offered.
func (l *Lister) DumpResults(_ context.Context) error {
	for _, name := range l.fullNames {
		if _, err := fmt.Fprintln(l.w, name); err != nil {
			return fmt.Errorf("writing benchmark name: %w", err)
		}
	}

	return nil
}
