package main

import (
	"context"

	"github.com/buildbench/buildbench/pkg/selftest"
	"github.com/spf13/cobra"
)

var selftestCmd = &cobra.Command{
	Use:   "selftest",
	Short: "Run the harness's own invariant checks",
	Long: `Exercise the store, profiler, filter, and reporter invariants
against an in-memory database. No configured benchmark state is touched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return selftest.Run(context.Background(), log)
	},
}

func init() {
	rootCmd.AddCommand(selftestCmd)
}
