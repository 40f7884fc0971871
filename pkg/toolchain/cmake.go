package toolchain

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CPPBuildConfig is one discovered C++ toolchain configuration.
type CPPBuildConfig struct {
	Label     string
	Compiler  string
	CXXFlags  string
	LinkFlags string
	PCH       bool
}

// CMakeProject drives a cmake + ninja build tree.
type CMakeProject struct {
	root       string
	buildDir   string // relative to root
	testBinary string // relative to the build dir
	pchDefine  string
	cfg        CPPBuildConfig
}

// Compile-time interface check.
var _ Buildable = (*CMakeProject)(nil)

// NewCMakeProject creates a Buildable for the C++ tree at root.
func NewCMakeProject(
	root, buildDir, testBinary, pchDefine string, cfg CPPBuildConfig,
) *CMakeProject {
	return &CMakeProject{
		root:       root,
		buildDir:   buildDir,
		testBinary: testBinary,
		pchDefine:  pchDefine,
		cfg:        cfg,
	}
}

// Clean deletes the build directory. A missing directory is not an
// error.
func (p *CMakeProject) Clean(_ context.Context) error {
	if err := os.RemoveAll(filepath.Join(p.root, p.buildDir)); err != nil {
		return fmt.Errorf("deleting build dir: %w", err)
	}

	return nil
}

// Configure generates the ninja build files with the configuration's
// compiler and flags.
func (p *CMakeProject) Configure(ctx context.Context) error {
	pch := "NO"
	if p.cfg.PCH {
		pch = "YES"
	}

	return runCommand(ctx, p.root, nil, "cmake",
		"-S", ".",
		"-B", p.buildDir,
		"-G", "Ninja",
		"-DCMAKE_CXX_COMPILER="+p.cfg.Compiler,
		"-DCMAKE_CXX_FLAGS="+p.cfg.CXXFlags,
		"-DCMAKE_EXE_LINKER_FLAGS="+p.cfg.LinkFlags,
		"-DCMAKE_SHARED_LINKER_FLAGS="+p.cfg.LinkFlags,
		"-D"+p.pchDefine+"="+pch,
	)
}

// Build runs ninja in the build directory.
func (p *CMakeProject) Build(ctx context.Context) error {
	return runCommand(ctx, p.root, nil,
		"ninja", "-C", p.buildDir)
}

// Test runs the project's test binary.
func (p *CMakeProject) Test(ctx context.Context) error {
	bin := filepath.Join(p.root, p.buildDir, p.testBinary)

	return runCommand(ctx, p.root, nil, bin)
}

// CombinedFlags returns the compile and link flags as one probe flag
// string.
func (c *CPPBuildConfig) CombinedFlags() []string {
	return strings.Fields(c.CXXFlags + " " + c.LinkFlags)
}
