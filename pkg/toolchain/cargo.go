package toolchain

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// RustBuildConfig is one discovered cargo toolchain configuration.
type RustBuildConfig struct {
	Label     string
	Cargo     string // resolved cargo executable
	Profile   string // empty means cargo's default profile
	RustFlags string
	Nextest   bool
}

// CargoProject drives a cargo build tree.
type CargoProject struct {
	root string
	cfg  RustBuildConfig
}

// Compile-time interface check.
var _ Buildable = (*CargoProject)(nil)

// NewCargoProject creates a Buildable for the Rust tree at root.
func NewCargoProject(root string, cfg RustBuildConfig) *CargoProject {
	return &CargoProject{
		root: root,
		cfg:  cfg,
	}
}

// Clean deletes the target directory.
func (p *CargoProject) Clean(_ context.Context) error {
	if err := os.RemoveAll(filepath.Join(p.root, "target")); err != nil {
		return fmt.Errorf("deleting target dir: %w", err)
	}

	return nil
}

// Configure is a no-op; cargo has no separate configure step.
func (p *CargoProject) Configure(_ context.Context) error {
	return nil
}

// Build compiles the crate and its test binaries.
func (p *CargoProject) Build(ctx context.Context) error {
	args := []string{"build", "--tests"}
	if p.cfg.Profile != "" {
		args = append(args, "--profile="+p.cfg.Profile)
	}

	return runCommand(ctx, p.root, p.env(), p.cfg.Cargo, args...)
}

// Test runs the crate's tests, via cargo-nextest when configured.
func (p *CargoProject) Test(ctx context.Context) error {
	var args []string

	if p.cfg.Nextest {
		args = []string{"nextest", "run"}
		if p.cfg.Profile != "" {
			args = append(args, "--cargo-profile="+p.cfg.Profile)
		}
	} else {
		args = []string{"test"}
		if p.cfg.Profile != "" {
			args = append(args, "--profile="+p.cfg.Profile)
		}
	}

	return runCommand(ctx, p.root, p.env(), p.cfg.Cargo, args...)
}

func (p *CargoProject) env() []string {
	if p.cfg.RustFlags == "" {
		return nil
	}

	return []string{"RUSTFLAGS=" + p.cfg.RustFlags}
}
