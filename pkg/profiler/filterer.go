package profiler

import (
	"context"
	"fmt"
	"regexp"

	"github.com/buildbench/buildbench/pkg/benchmark"
)

// Filterer is a transparent decorator admitting a benchmark only if
// its full name matches a pattern. It wraps any Profiler, so the
// measuring executor and the dry-run lister filter identically.
type Filterer struct {
	inner   Profiler
	pattern *regexp.Regexp
}

// Compile-time interface check.
var _ Profiler = (*Filterer)(nil)

// NewFilterer creates a Filterer around inner. The pattern is a
// regular expression searched anywhere in the full name; an empty
// pattern admits every benchmark.
func NewFilterer(inner Profiler, pattern string) (*Filterer, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compiling filter pattern %q: %w", pattern, err)
	}

	return &Filterer{
		inner:   inner,
		pattern: re,
	}, nil
}

// Profile delegates to the inner profiler if the benchmark's full name
// matches; otherwise the benchmark is silently skipped.
func (f *Filterer) Profile(ctx context.Context, b benchmark.Benchmark) error {
	if !f.pattern.MatchString(benchmark.FullName(b)) {
		return nil
	}

	return f.inner.Profile(ctx, b)
}

// DumpResults delegates unchanged to the inner profiler.
func (f *Filterer) DumpResults(ctx context.Context) error {
	return f.inner.DumpResults(ctx)
}
