// Package selftest exercises the harness's own invariants against an
// in-memory database, runnable from the CLI without touching real
// benchmark state.
package selftest

import (
	"context"
	"fmt"
	"io"
	"reflect"

	"github.com/buildbench/buildbench/pkg/benchmark"
	"github.com/buildbench/buildbench/pkg/config"
	"github.com/buildbench/buildbench/pkg/profiler"
	"github.com/buildbench/buildbench/pkg/report"
	"github.com/buildbench/buildbench/pkg/store"
	"github.com/sirupsen/logrus"
)

// check is one named invariant verification.
type check struct {
	name string
	fn   func(ctx context.Context, log logrus.FieldLogger) error
}

var checks = []check{
	{"store round-trip", checkStoreRoundTrip},
	{"empty run", checkEmptyRun},
	{"latest-run dedup", checkLatestRunDedup},
	{"latest-run independence", checkLatestRunIndependence},
	{"all-runs completeness", checkAllRunsCompleteness},
	{"unknown run rejected", checkUnknownRun},
	{"filter admission", checkFilterAdmission},
	{"millisecond ceiling", checkMillisecondCeiling},
	{"lifecycle order", checkLifecycleOrder},
}

// Run executes every check and reports the first failure. All checks
// passing returns nil.
func Run(ctx context.Context, log logrus.FieldLogger) error {
	log = log.WithField("component", "selftest")

	for _, c := range checks {
		if err := c.fn(ctx, log); err != nil {
			log.WithField("check", c.name).WithError(err).Error("Check failed")

			return fmt.Errorf("check %q: %w", c.name, err)
		}

		log.WithField("check", c.name).Info("Check passed")
	}

	return nil
}

// memoryStore opens a fresh in-memory sqlite store.
func memoryStore(ctx context.Context, log logrus.FieldLogger) (store.Store, error) {
	s := store.New(log, &config.DatabaseConfig{
		Driver: "sqlite",
		SQLite: config.SQLiteDatabaseConfig{Path: ":memory:"},
	})

	if err := s.Start(ctx); err != nil {
		return nil, fmt.Errorf("starting store: %w", err)
	}

	return s, nil
}

func checkStoreRoundTrip(ctx context.Context, log logrus.FieldLogger) error {
	s, err := memoryStore(ctx, log)
	if err != nil {
		return err
	}
	defer func() { _ = s.Stop() }()

	id, err := s.CreateRun(ctx, "myhost", "mylang", "mytoolchain", "mybench")
	if err != nil {
		return err
	}

	for _, d := range []int64{100, 200, 300} {
		if err := s.AddSample(ctx, id, d); err != nil {
			return err
		}
	}

	runs, err := s.LoadRunsByIDs(ctx, []store.RunID{id})
	if err != nil {
		return err
	}

	if len(runs) != 1 {
		return fmt.Errorf("expected 1 run, got %d", len(runs))
	}

	if got := runs[0].Durations(); !reflect.DeepEqual(got, []int64{100, 200, 300}) {
		return fmt.Errorf("samples out of order: %v", got)
	}

	return nil
}

func checkEmptyRun(ctx context.Context, log logrus.FieldLogger) error {
	s, err := memoryStore(ctx, log)
	if err != nil {
		return err
	}
	defer func() { _ = s.Stop() }()

	id, err := s.CreateRun(ctx, "myhost", "mylang", "mytoolchain", "mybench")
	if err != nil {
		return err
	}

	runs, err := s.LoadRunsByIDs(ctx, []store.RunID{id})
	if err != nil {
		return err
	}

	if len(runs) != 1 || len(runs[0].Samples) != 0 {
		return fmt.Errorf("expected 1 run with no samples")
	}

	// The reporter must render the empty run, not fail.
	return report.New(io.Discard).DumpRuns(runs)
}

func checkLatestRunDedup(ctx context.Context, log logrus.FieldLogger) error {
	s, err := memoryStore(ctx, log)
	if err != nil {
		return err
	}
	defer func() { _ = s.Stop() }()

	if _, err := s.CreateRun(ctx, "h", "l", "t", "b"); err != nil {
		return err
	}

	second, err := s.CreateRun(ctx, "h", "l", "t", "b")
	if err != nil {
		return err
	}

	runs, err := s.LoadLatestRuns(ctx)
	if err != nil {
		return err
	}

	if len(runs) != 1 || runs[0].ID != second {
		return fmt.Errorf("expected only run %d, got %d runs", second, len(runs))
	}

	return nil
}

func checkLatestRunIndependence(ctx context.Context, log logrus.FieldLogger) error {
	s, err := memoryStore(ctx, log)
	if err != nil {
		return err
	}
	defer func() { _ = s.Stop() }()

	identities := [][4]string{
		{"h", "l", "t", "b"},
		{"h2", "l", "t", "b"},
		{"h", "l2", "t", "b"},
		{"h", "l", "t2", "b"},
		{"h", "l", "t", "b2"},
	}

	for _, id := range identities {
		if _, err := s.CreateRun(ctx, id[0], id[1], id[2], id[3]); err != nil {
			return err
		}
	}

	runs, err := s.LoadLatestRuns(ctx)
	if err != nil {
		return err
	}

	if len(runs) != len(identities) {
		return fmt.Errorf("expected %d runs, got %d", len(identities), len(runs))
	}

	return nil
}

func checkAllRunsCompleteness(ctx context.Context, log logrus.FieldLogger) error {
	s, err := memoryStore(ctx, log)
	if err != nil {
		return err
	}
	defer func() { _ = s.Stop() }()

	for i := 0; i < 3; i++ {
		if _, err := s.CreateRun(ctx, "h", "l", "t", "b"); err != nil {
			return err
		}
	}

	runs, err := s.LoadAllRuns(ctx)
	if err != nil {
		return err
	}

	if len(runs) != 3 {
		return fmt.Errorf("expected 3 runs, got %d", len(runs))
	}

	return nil
}

func checkUnknownRun(ctx context.Context, log logrus.FieldLogger) error {
	s, err := memoryStore(ctx, log)
	if err != nil {
		return err
	}
	defer func() { _ = s.Stop() }()

	err = s.AddSample(ctx, 12345, 1)
	if err == nil {
		return fmt.Errorf("expected an error for a dangling run id")
	}

	return nil
}

func checkFilterAdmission(ctx context.Context, log logrus.FieldLogger) error {
	admitted := &countingProfiler{}

	f, err := profiler.NewFilterer(admitted, "Rust")
	if err != nil {
		return err
	}

	rust := newFakeBenchmark("Rust", "Stable", "full build and test")
	cpp := newFakeBenchmark("C++", "Clang", "test only")

	if err := f.Profile(ctx, rust); err != nil {
		return err
	}

	if err := f.Profile(ctx, cpp); err != nil {
		return err
	}

	if admitted.count != 1 {
		return fmt.Errorf("expected 1 admission, got %d", admitted.count)
	}

	all, err := profiler.NewFilterer(admitted, "")
	if err != nil {
		return err
	}

	if err := all.Profile(ctx, rust); err != nil {
		return err
	}

	if err := all.Profile(ctx, cpp); err != nil {
		return err
	}

	if admitted.count != 3 {
		return fmt.Errorf("empty pattern must admit everything, got %d", admitted.count)
	}

	return nil
}

func checkMillisecondCeiling(_ context.Context, _ logrus.FieldLogger) error {
	cases := map[int64]int64{
		0:         0,
		1:         1,
		999_999:   1,
		1_000_000: 1,
		1_000_001: 2,
		2_000_000: 2,
	}

	for ns, want := range cases {
		if got := report.CeilMillis(ns); got != want {
			return fmt.Errorf("CeilMillis(%d) = %d, want %d", ns, got, want)
		}
	}

	return nil
}

func checkLifecycleOrder(ctx context.Context, log logrus.FieldLogger) error {
	s, err := memoryStore(ctx, log)
	if err != nil {
		return err
	}
	defer func() { _ = s.Stop() }()

	p := profiler.New(log, &profiler.Config{
		Hostname:         "selftest",
		WarmupIterations: 1,
		Iterations:       2,
	}, s, report.New(io.Discard))

	b := newFakeBenchmark("lang", "toolchain", "bench")

	if err := p.Profile(ctx, b); err != nil {
		return err
	}

	want := []string{
		"beforeAll",
		"beforeEach", "run", "afterEach",
		"beforeEach", "run", "afterEach",
		"beforeEach", "run", "afterEach",
		"afterAll",
	}

	if !reflect.DeepEqual(b.calls, want) {
		return fmt.Errorf("hook order %v, want %v", b.calls, want)
	}

	runs, err := s.LoadAllRuns(ctx)
	if err != nil {
		return err
	}

	if len(runs) != 1 || len(runs[0].Samples) != 2 {
		return fmt.Errorf("expected 1 run with 2 samples (warmup discarded)")
	}

	return nil
}

// countingProfiler counts admissions for the filter check.
type countingProfiler struct {
	count int
}

func (c *countingProfiler) Profile(context.Context, benchmark.Benchmark) error {
	c.count++

	return nil
}

func (c *countingProfiler) DumpResults(context.Context) error {
	return nil
}

// fakeBenchmark records the order its hooks were called in.
type fakeBenchmark struct {
	language       string
	toolchainLabel string
	name           string
	calls          []string
}

func newFakeBenchmark(language, toolchainLabel, name string) *fakeBenchmark {
	return &fakeBenchmark{
		language:       language,
		toolchainLabel: toolchainLabel,
		name:           name,
	}
}

func (b *fakeBenchmark) Language() string       { return b.language }
func (b *fakeBenchmark) ToolchainLabel() string { return b.toolchainLabel }
func (b *fakeBenchmark) Name() string           { return b.name }

func (b *fakeBenchmark) BeforeAllUntimed(context.Context) error {
	b.calls = append(b.calls, "beforeAll")

	return nil
}

func (b *fakeBenchmark) BeforeEachUntimed(context.Context) error {
	b.calls = append(b.calls, "beforeEach")

	return nil
}

func (b *fakeBenchmark) RunTimed(context.Context) error {
	b.calls = append(b.calls, "run")

	return nil
}

func (b *fakeBenchmark) AfterEachUntimed(context.Context) error {
	b.calls = append(b.calls, "afterEach")

	return nil
}

func (b *fakeBenchmark) AfterAllUntimed(context.Context) error {
	b.calls = append(b.calls, "afterAll")

	return nil
}
