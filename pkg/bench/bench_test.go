package bench_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildbench/buildbench/pkg/bench"
	"github.com/buildbench/buildbench/pkg/benchmark"
)

// fakeProject records Buildable operations in call order.
type fakeProject struct {
	calls []string
}

func (p *fakeProject) Clean(context.Context) error {
	p.calls = append(p.calls, "clean")

	return nil
}

func (p *fakeProject) Configure(context.Context) error {
	p.calls = append(p.calls, "configure")

	return nil
}

func (p *fakeProject) Build(context.Context) error {
	p.calls = append(p.calls, "build")

	return nil
}

func (p *fakeProject) Test(context.Context) error {
	p.calls = append(p.calls, "test")

	return nil
}

func runIteration(t *testing.T, b benchmark.Benchmark) {
	t.Helper()

	ctx := context.Background()

	require.NoError(t, b.BeforeAllUntimed(ctx))
	require.NoError(t, b.BeforeEachUntimed(ctx))
	require.NoError(t, b.RunTimed(ctx))
	require.NoError(t, b.AfterEachUntimed(ctx))
	require.NoError(t, b.AfterAllUntimed(ctx))
}

func TestFull(t *testing.T) {
	project := &fakeProject{}
	b := bench.NewFull("C++", "Clang", project)

	assert.Equal(t, "C++, Clang, full build and test", benchmark.FullName(b))

	runIteration(t, b)

	// Each iteration starts from a clean tree; the timed phase does
	// the whole configure/build/test pipeline.
	assert.Equal(t, []string{"clean", "configure", "build", "test"}, project.calls)
}

func TestTestOnly(t *testing.T) {
	project := &fakeProject{}
	b := bench.NewTestOnly("Rust", "Rust Stable", project)

	assert.Equal(t, "Rust, Rust Stable, test only", benchmark.FullName(b))

	runIteration(t, b)

	// The tree is built once up front; only the test run is timed.
	assert.Equal(t, []string{"clean", "configure", "build", "test"}, project.calls)
}

func TestIncremental(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "lex.cpp")
	original := "int lex();\n"
	require.NoError(t, os.WriteFile(file, []byte(original), 0o644))

	project := &fakeProject{}
	b := bench.NewIncremental("C++", "Clang", project, []string{file})

	assert.Equal(t,
		"C++, Clang, incremental build and test (lex.cpp)",
		benchmark.FullName(b))

	ctx := context.Background()

	require.NoError(t, b.BeforeAllUntimed(ctx))
	assert.Equal(t, []string{"clean", "configure", "build"}, project.calls)

	require.NoError(t, b.BeforeEachUntimed(ctx))

	mutated, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(mutated), "CACHE-BUST")

	require.NoError(t, b.RunTimed(ctx))
	assert.Equal(t,
		[]string{"clean", "configure", "build", "build", "test"},
		project.calls)

	require.NoError(t, b.AfterEachUntimed(ctx))
	require.NoError(t, b.AfterAllUntimed(ctx))

	restored, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, original, string(restored))
}

func TestIncremental_NameSortsFiles(t *testing.T) {
	project := &fakeProject{}
	b := bench.NewIncremental("C++", "Clang", project,
		[]string{"src/zebra.cpp", "src/alpha.cpp"})

	assert.Equal(t, "incremental build and test (alpha.cpp, zebra.cpp)", b.Name())
}
