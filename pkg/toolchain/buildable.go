// Package toolchain wraps the external build tools driven by
// benchmarks: cmake/ninja projects and cargo projects, plus the probes
// that discover which toolchain configurations are usable on this host.
package toolchain

import (
	"context"
	"fmt"
	"os"
	"os/exec"
)

// Buildable is the capability a benchmark needs from a toolchain
// family. Every operation runs an external process; a non-zero exit is
// a fatal error for the harness run.
type Buildable interface {
	Clean(ctx context.Context) error
	Configure(ctx context.Context) error
	Build(ctx context.Context) error
	Test(ctx context.Context) error
}

// runCommand runs an external tool in dir with output passed through.
// extraEnv entries are appended to the inherited environment.
func runCommand(
	ctx context.Context, dir string, extraEnv []string,
	name string, args ...string,
) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if len(extraEnv) > 0 {
		cmd.Env = append(os.Environ(), extraEnv...)
	}

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("running %s: %w", name, err)
	}

	return nil
}
