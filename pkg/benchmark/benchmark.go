// Package benchmark defines the lifecycle contract every measurable
// workload must satisfy. A Benchmark knows nothing about timing or
// persistence; it only describes its identity and the work to perform.
package benchmark

import (
	"context"
	"fmt"
)

// Benchmark describes one measurable workload.
//
// The lifecycle hooks are invoked in a fixed order for every iteration,
// warmup or measured:
//
//	BeforeAllUntimed (once)
//	  BeforeEachUntimed -> RunTimed -> AfterEachUntimed (per iteration)
//	AfterAllUntimed (once)
//
// Only RunTimed is measured. RunTimed must perform the entire unit of
// work to be measured and nothing else.
type Benchmark interface {
	// Language is the toolchain family, e.g. "C++" or "Rust".
	Language() string

	// ToolchainLabel identifies the specific compiler/configuration
	// variant, e.g. "Clang libc++ PCH Mold".
	ToolchainLabel() string

	// Name describes what varies within a toolchain, e.g.
	// "full build and test".
	Name() string

	// BeforeAllUntimed establishes shared preconditions before the
	// first iteration.
	BeforeAllUntimed(ctx context.Context) error

	// BeforeEachUntimed runs before every iteration's timed phase.
	BeforeEachUntimed(ctx context.Context) error

	// RunTimed is the only phase whose duration is measured.
	RunTimed(ctx context.Context) error

	// AfterEachUntimed runs after every iteration's timed phase.
	AfterEachUntimed(ctx context.Context) error

	// AfterAllUntimed cleans up after the final iteration.
	AfterAllUntimed(ctx context.Context) error
}

// FullName returns the identity used for filtering and display:
// "language, toolchain label, name".
func FullName(b Benchmark) string {
	return fmt.Sprintf("%s, %s, %s", b.Language(), b.ToolchainLabel(), b.Name())
}
