// Package profiler drives benchmarks through their lifecycle and
// records measurements.
package profiler

import (
	"context"
	"fmt"
	"time"

	"github.com/buildbench/buildbench/pkg/benchmark"
	"github.com/buildbench/buildbench/pkg/report"
	"github.com/buildbench/buildbench/pkg/store"
	"github.com/sirupsen/logrus"
)

// Profiler is the capability shared by the measuring executor, the
// dry-run lister, and the filter decorator wrapping either.
type Profiler interface {
	// Profile offers one benchmark for execution.
	Profile(ctx context.Context, b benchmark.Benchmark) error

	// DumpResults reports the outcome of every profiled benchmark.
	DumpResults(ctx context.Context) error
}

// Config for the measuring profiler.
type Config struct {
	Hostname         string
	WarmupIterations int
	Iterations       int
}

// New creates a Profiler that actually runs timed code and persists
// one sample per measured iteration.
func New(
	log logrus.FieldLogger,
	cfg *Config,
	st store.Store,
	reporter *report.Reporter,
) Profiler {
	return &profiler{
		log:      log.WithField("component", "profiler"),
		cfg:      cfg,
		store:    st,
		reporter: reporter,
	}
}

type profiler struct {
	log      logrus.FieldLogger
	cfg      *Config
	store    store.Store
	reporter *report.Reporter
	runIDs   []store.RunID
}

// Compile-time interface check.
var _ Profiler = (*profiler)(nil)

// Profile creates a run record, then drives the benchmark through
// warmup and measured iterations. The run is created before warmup so
// its timestamp reflects when the benchmark as a whole began.
func (p *profiler) Profile(ctx context.Context, b benchmark.Benchmark) error {
	log := p.log.WithField("benchmark", benchmark.FullName(b))

	runID, err := p.store.CreateRun(
		ctx,
		p.cfg.Hostname,
		b.Language(),
		b.ToolchainLabel(),
		b.Name(),
	)
	if err != nil {
		return fmt.Errorf("creating run: %w", err)
	}

	p.runIDs = append(p.runIDs, runID)

	log.WithFields(logrus.Fields{
		"run_id":            runID,
		"warmup_iterations": p.cfg.WarmupIterations,
		"iterations":        p.cfg.Iterations,
	}).Info("Profiling benchmark")

	return p.runLifecycle(ctx, b, runID)
}

// runLifecycle runs the full hook sequence. AfterAllUntimed runs on
// every exit path once BeforeAllUntimed has been attempted, so source
// mutations never leak into later runs.
func (p *profiler) runLifecycle(
	ctx context.Context, b benchmark.Benchmark, runID store.RunID,
) (err error) {
	defer func() {
		if cleanupErr := b.AfterAllUntimed(ctx); cleanupErr != nil {
			if err == nil {
				err = fmt.Errorf("after-all hook: %w", cleanupErr)
			} else {
				p.log.WithError(cleanupErr).
					Error("After-all hook failed during error cleanup")
			}
		}
	}()

	if err = b.BeforeAllUntimed(ctx); err != nil {
		return fmt.Errorf("before-all hook: %w", err)
	}

	for i := 0; i < p.cfg.WarmupIterations; i++ {
		p.log.WithField("iteration", i).Debug("Warmup iteration")

		if _, err = p.runOne(ctx, b); err != nil {
			return fmt.Errorf("warmup iteration %d: %w", i, err)
		}
	}

	for i := 0; i < p.cfg.Iterations; i++ {
		var durationNs int64

		if durationNs, err = p.runOne(ctx, b); err != nil {
			return fmt.Errorf("iteration %d: %w", i, err)
		}

		p.log.WithFields(logrus.Fields{
			"iteration":   i,
			"duration_ms": report.CeilMillis(durationNs),
		}).Debug("Measured iteration")

		if err = p.store.AddSample(ctx, runID, durationNs); err != nil {
			return fmt.Errorf("recording sample: %w", err)
		}
	}

	return nil
}

// runOne runs one full iteration and returns the timed phase's
// duration in nanoseconds. time.Since uses the monotonic clock, so the
// result is immune to wall-clock adjustments and never negative.
func (p *profiler) runOne(
	ctx context.Context, b benchmark.Benchmark,
) (int64, error) {
	if err := b.BeforeEachUntimed(ctx); err != nil {
		return 0, fmt.Errorf("before-each hook: %w", err)
	}

	start := time.Now()

	if err := b.RunTimed(ctx); err != nil {
		return 0, fmt.Errorf("timed phase: %w", err)
	}

	durationNs := time.Since(start).Nanoseconds()

	if err := b.AfterEachUntimed(ctx); err != nil {
		return 0, fmt.Errorf("after-each hook: %w", err)
	}

	return durationNs, nil
}

// DumpResults renders the runs created by this profiler instance.
func (p *profiler) DumpResults(ctx context.Context) error {
	runs, err := p.store.LoadRunsByIDs(ctx, p.runIDs)
	if err != nil {
		return fmt.Errorf("loading runs: %w", err)
	}

	return p.reporter.DumpRuns(runs)
}
