// Package bench provides the concrete benchmark variants: full build,
// test-only, and incremental rebuild. Each variant is generic over the
// toolchain's Buildable capability, so one implementation serves every
// toolchain family.
package bench

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/buildbench/buildbench/pkg/benchmark"
	"github.com/buildbench/buildbench/pkg/mutate"
	"github.com/buildbench/buildbench/pkg/toolchain"
)

// identity carries the three naming fields shared by all variants.
type identity struct {
	language       string
	toolchainLabel string
	name           string
}

func (id identity) Language() string       { return id.language }
func (id identity) ToolchainLabel() string { return id.toolchainLabel }
func (id identity) Name() string           { return id.name }

// noop hooks shared by variants that do not need them.
type noopHooks struct{}

func (noopHooks) BeforeAllUntimed(context.Context) error  { return nil }
func (noopHooks) BeforeEachUntimed(context.Context) error { return nil }
func (noopHooks) AfterEachUntimed(context.Context) error  { return nil }
func (noopHooks) AfterAllUntimed(context.Context) error   { return nil }

// Full measures a from-scratch build plus test run. The tree is
// cleaned before every iteration so each measurement starts cold.
type Full struct {
	identity
	noopHooks

	project toolchain.Buildable
}

// Compile-time interface check.
var _ benchmark.Benchmark = (*Full)(nil)

// NewFull creates a full-build-and-test benchmark.
func NewFull(language, toolchainLabel string, project toolchain.Buildable) *Full {
	return &Full{
		identity: identity{
			language:       language,
			toolchainLabel: toolchainLabel,
			name:           "full build and test",
		},
		project: project,
	}
}

func (b *Full) BeforeEachUntimed(ctx context.Context) error {
	return b.project.Clean(ctx)
}

func (b *Full) RunTimed(ctx context.Context) error {
	if err := b.project.Configure(ctx); err != nil {
		return err
	}

	if err := b.project.Build(ctx); err != nil {
		return err
	}

	return b.project.Test(ctx)
}

// TestOnly measures the test run against an already-built tree.
type TestOnly struct {
	identity
	noopHooks

	project toolchain.Buildable
}

// Compile-time interface check.
var _ benchmark.Benchmark = (*TestOnly)(nil)

// NewTestOnly creates a test-only benchmark.
func NewTestOnly(language, toolchainLabel string, project toolchain.Buildable) *TestOnly {
	return &TestOnly{
		identity: identity{
			language:       language,
			toolchainLabel: toolchainLabel,
			name:           "test only",
		},
		project: project,
	}
}

func (b *TestOnly) BeforeAllUntimed(ctx context.Context) error {
	return buildFromScratch(ctx, b.project)
}

func (b *TestOnly) RunTimed(ctx context.Context) error {
	return b.project.Test(ctx)
}

// Incremental measures a rebuild after mutating a fixed set of source
// files. The mutator is owned by this instance; its cache-bust counter
// is never shared with other benchmarks.
type Incremental struct {
	identity
	noopHooks

	project       toolchain.Buildable
	mutator       *mutate.Mutator
	filesToMutate []string
}

// Compile-time interface check.
var _ benchmark.Benchmark = (*Incremental)(nil)

// NewIncremental creates an incremental-rebuild benchmark mutating the
// given files before each iteration.
func NewIncremental(
	language, toolchainLabel string,
	project toolchain.Buildable,
	filesToMutate []string,
) *Incremental {
	return &Incremental{
		identity: identity{
			language:       language,
			toolchainLabel: toolchainLabel,
			name: fmt.Sprintf("incremental build and test (%s)",
				baseNames(filesToMutate)),
		},
		project:       project,
		mutator:       mutate.NewMutator(),
		filesToMutate: filesToMutate,
	}
}

func (b *Incremental) BeforeAllUntimed(ctx context.Context) error {
	return buildFromScratch(ctx, b.project)
}

func (b *Incremental) BeforeEachUntimed(_ context.Context) error {
	for _, f := range b.filesToMutate {
		if err := b.mutator.Mutate(f); err != nil {
			return err
		}
	}

	return nil
}

func (b *Incremental) RunTimed(ctx context.Context) error {
	if err := b.project.Build(ctx); err != nil {
		return err
	}

	return b.project.Test(ctx)
}

// AfterAllUntimed reverts every mutated file. It is invoked by the
// profiler on every exit path, so mutations do not leak into later
// runs even when an iteration fails.
func (b *Incremental) AfterAllUntimed(_ context.Context) error {
	for _, f := range b.filesToMutate {
		if err := b.mutator.Revert(f); err != nil {
			return err
		}
	}

	return nil
}

// buildFromScratch establishes a fully built tree as a precondition.
func buildFromScratch(ctx context.Context, project toolchain.Buildable) error {
	if err := project.Clean(ctx); err != nil {
		return err
	}

	if err := project.Configure(ctx); err != nil {
		return err
	}

	return project.Build(ctx)
}

// baseNames renders the mutated files as a sorted, comma-separated
// list of base names.
func baseNames(paths []string) string {
	names := make([]string, 0, len(paths))
	for _, p := range paths {
		names = append(names, filepath.Base(p))
	}

	sort.Strings(names)

	return strings.Join(names, ", ")
}
