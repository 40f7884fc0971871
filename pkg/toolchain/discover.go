package toolchain

import (
	"context"
	"os/exec"
	"strings"

	"github.com/buildbench/buildbench/pkg/config"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// FindCPPConfigs expands the configured compiler candidates into a
// matrix of (stdlib, PCH, linker) variants and probes each with a
// minimal program. Candidates whose compiler is missing or rejects the
// flags are omitted; that is not an error.
func FindCPPConfigs(
	ctx context.Context, log logrus.FieldLogger, cfg *config.CPPConfig,
) []CPPBuildConfig {
	mold := resolveMold(log, cfg.MoldLinker)

	var candidates []CPPBuildConfig

	addMatrix := func(label string, comp config.CPPCompiler, cxxFlags string) {
		for _, pch := range []bool{false, true} {
			suffix := ""
			if pch {
				suffix = " PCH"
			}

			candidates = append(candidates, CPPBuildConfig{
				Label:    label + suffix,
				Compiler: comp.Path,
				CXXFlags: cxxFlags,
				PCH:      pch,
			})

			if mold != "" {
				candidates = append(candidates, CPPBuildConfig{
					Label:     label + suffix + " Mold",
					Compiler:  comp.Path,
					CXXFlags:  cxxFlags,
					LinkFlags: "-Wl,-fuse-ld=" + mold,
					PCH:       pch,
				})
			}
		}
	}

	for _, comp := range cfg.Compilers {
		if comp.Clang {
			addMatrix(comp.Label+" libstdc++", comp,
				joinFlags(comp.CXXFlags, "-stdlib=libstdc++"))
			addMatrix(comp.Label+" libc++", comp,
				joinFlags(comp.CXXFlags, "-stdlib=libc++"))
		} else {
			addMatrix(comp.Label, comp, comp.CXXFlags)
		}
	}

	// Probe candidates concurrently; candidate order is preserved so
	// benchmark listings stay deterministic.
	usable := make([]bool, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	for i := range candidates {
		i := i

		g.Go(func() error {
			c := candidates[i]
			usable[i] = CompilerBuilds(gctx, c.Compiler, c.CombinedFlags())

			return nil
		})
	}

	// Probe goroutines never return errors.
	_ = g.Wait()

	configs := make([]CPPBuildConfig, 0, len(candidates))

	for i, c := range candidates {
		if !usable[i] {
			log.WithField("toolchain", c.Label).
				Debug("Skipping unusable C++ configuration")

			continue
		}

		configs = append(configs, c)
	}

	return configs
}

// FindRustConfigs resolves the configured rustup toolchains and
// expands them into a matrix of (profile, linker, test runner)
// variants. Toolchains that rustup cannot resolve are omitted.
func FindRustConfigs(
	ctx context.Context, log logrus.FieldLogger, cfg *config.RustConfig,
) []RustBuildConfig {
	mold := resolveMold(log, cfg.MoldLinker)

	type resolvedToolchain struct {
		title string
		cargo string
	}

	var toolchains []resolvedToolchain

	for _, tc := range cfg.Toolchains {
		cargo, err := RustupWhich(ctx, "cargo", tc)
		if err != nil {
			log.WithField("toolchain", tc).
				Debug("Skipping unresolvable Rust toolchain")

			continue
		}

		toolchains = append(toolchains, resolvedToolchain{
			title: titleWord(tc),
			cargo: cargo,
		})
	}

	var configs []RustBuildConfig

	addVariants := func(extraLabel, rustFlags string) {
		for _, tc := range toolchains {
			base := strings.TrimSpace("Rust " + tc.title + " " + extraLabel)

			configs = append(configs, RustBuildConfig{
				Label:     base,
				Cargo:     tc.cargo,
				Profile:   profileFromLabel(extraLabel),
				RustFlags: rustFlags,
			})

			if cfg.Nextest {
				configs = append(configs, RustBuildConfig{
					Label:     base + " cargo-nextest",
					Cargo:     tc.cargo,
					Profile:   profileFromLabel(extraLabel),
					RustFlags: rustFlags,
					Nextest:   true,
				})
			}
		}
	}

	for _, profile := range cfg.CargoProfiles {
		addVariants(profile, "")

		if mold != "" {
			addVariants(strings.TrimSpace("Mold "+profile),
				"-Clinker=clang -Clink-arg=-fuse-ld="+mold)
		}
	}

	return configs
}

// profileFromLabel strips the Mold prefix an addVariants label may
// carry, leaving the cargo profile name.
func profileFromLabel(extraLabel string) string {
	return strings.TrimSpace(strings.TrimPrefix(extraLabel, "Mold"))
}

// resolveMold returns the mold linker path, or "" when disabled or not
// installed.
func resolveMold(log logrus.FieldLogger, probe config.MoldLinkerProbe) string {
	if !probe.Enabled {
		return ""
	}

	if probe.Path != "" {
		return probe.Path
	}

	path, err := exec.LookPath("mold")
	if err != nil {
		log.Debug("Mold linker enabled but not found in PATH")

		return ""
	}

	return path
}

func joinFlags(flags ...string) string {
	return strings.TrimSpace(strings.Join(flags, " "))
}

// titleWord uppercases the first letter: "stable" -> "Stable".
func titleWord(s string) string {
	if s == "" {
		return s
	}

	return strings.ToUpper(s[:1]) + s[1:]
}
