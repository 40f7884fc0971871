package main

import (
	"context"
	"fmt"
	"os"

	"github.com/buildbench/buildbench/pkg/config"
	"github.com/buildbench/buildbench/pkg/report"
	"github.com/buildbench/buildbench/pkg/store"
	"github.com/spf13/cobra"
)

var dumpAll bool

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Dump persisted benchmark runs",
	Long: `Render persisted runs as a table. By default only the latest run per
(hostname, language, toolchain, benchmark) identity is shown; --all
includes every historical run.`,
	RunE: dumpRuns,
}

func init() {
	rootCmd.AddCommand(dumpCmd)
	dumpCmd.Flags().BoolVar(&dumpAll, "all", false,
		"Include every historical run, not just the latest per identity")
}

func dumpRuns(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	ctx := context.Background()

	st := store.New(log, &cfg.Database)
	if err := st.Start(ctx); err != nil {
		return fmt.Errorf("starting store: %w", err)
	}

	defer func() { _ = st.Stop() }()

	var runs []store.Run

	if dumpAll {
		runs, err = st.LoadAllRuns(ctx)
	} else {
		runs, err = st.LoadLatestRuns(ctx)
	}

	if err != nil {
		return fmt.Errorf("loading runs: %w", err)
	}

	return report.New(os.Stdout).DumpRuns(runs)
}
