package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/buildbench/buildbench/pkg/bench"
	"github.com/buildbench/buildbench/pkg/config"
	"github.com/buildbench/buildbench/pkg/profiler"
	"github.com/buildbench/buildbench/pkg/report"
	"github.com/buildbench/buildbench/pkg/store"
	"github.com/buildbench/buildbench/pkg/sysinfo"
	"github.com/buildbench/buildbench/pkg/toolchain"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	listOnly         bool
	iterations       int
	warmupIterations int
)

var runCmd = &cobra.Command{
	Use:   "run [filter]",
	Short: "Run the benchmarks",
	Long: `Discover usable toolchain configurations and run every benchmark
whose full name matches the optional filter pattern. With --list, print
the matching benchmarks without executing anything.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBenchmarks,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&listOnly, "list", false,
		"List matching benchmarks without running them")
	runCmd.Flags().IntVar(&iterations, "iterations",
		config.DefaultIterations, "Measured iterations per benchmark")
	runCmd.Flags().IntVar(&warmupIterations, "warmup-iterations",
		config.DefaultWarmupIterations, "Warmup iterations per benchmark")
}

func runBenchmarks(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	// Config supplies iteration counts unless the flags were set
	// explicitly.
	if !cmd.Flags().Changed("iterations") {
		iterations = cfg.Benchmark.Iterations
	}

	if !cmd.Flags().Changed("warmup-iterations") {
		warmupIterations = cfg.Benchmark.WarmupIterations
	}

	var filter string
	if len(args) > 0 {
		filter = args[0]
	}

	// Setup context with signal handling.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.WithField("signal", sig).Info("Received shutdown signal")
		cancel()
	}()

	info, err := sysinfo.Collect(ctx, log)
	if err != nil {
		return fmt.Errorf("collecting host info: %w", err)
	}

	log.WithFields(info.LogFields()).Info("Collected host information")

	var prof profiler.Profiler

	if listOnly {
		prof = profiler.NewLister(os.Stdout)
	} else {
		st := store.New(log, &cfg.Database)
		if err := st.Start(ctx); err != nil {
			return fmt.Errorf("starting store: %w", err)
		}

		defer func() {
			if err := st.Stop(); err != nil {
				log.WithError(err).Warn("Failed to close store")
			}
		}()

		prof = profiler.New(log, &profiler.Config{
			Hostname:         info.Hostname,
			WarmupIterations: warmupIterations,
			Iterations:       iterations,
		}, st, report.New(os.Stdout))
	}

	prof, err = profiler.NewFilterer(prof, filter)
	if err != nil {
		return err
	}

	cppConfigs := toolchain.FindCPPConfigs(ctx, log, &cfg.CPP)
	rustConfigs := toolchain.FindRustConfigs(ctx, log, &cfg.Rust)

	log.WithFields(logrus.Fields{
		"cpp":  len(cppConfigs),
		"rust": len(rustConfigs),
	}).Info("Discovered toolchain configurations")

	for _, cc := range cppConfigs {
		project := toolchain.NewCMakeProject(
			cfg.CPP.Root, cfg.CPP.BuildDir, cfg.CPP.TestBinary,
			cfg.CPP.PCHDefine, cc,
		)

		if err := profileVariants(
			ctx, prof, "C++", cc.Label, project,
			cfg.CPP.Root, cfg.CPP.MutateFiles,
		); err != nil {
			return err
		}
	}

	for _, rc := range rustConfigs {
		project := toolchain.NewCargoProject(cfg.Rust.Root, rc)

		if err := profileVariants(
			ctx, prof, "Rust", rc.Label, project,
			cfg.Rust.Root, cfg.Rust.MutateFiles,
		); err != nil {
			return err
		}
	}

	return prof.DumpResults(ctx)
}

// profileVariants offers the full, test-only, and per-file incremental
// benchmarks of one toolchain configuration to the profiler.
func profileVariants(
	ctx context.Context,
	prof profiler.Profiler,
	language, label string,
	project toolchain.Buildable,
	root string,
	mutateFiles []string,
) error {
	if err := prof.Profile(ctx, bench.NewFull(language, label, project)); err != nil {
		return err
	}

	if err := prof.Profile(ctx, bench.NewTestOnly(language, label, project)); err != nil {
		return err
	}

	for _, f := range mutateFiles {
		b := bench.NewIncremental(language, label, project,
			[]string{filepath.Join(root, f)})

		if err := prof.Profile(ctx, b); err != nil {
			return err
		}
	}

	return nil
}
