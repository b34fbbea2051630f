package cmd

import (
	"github.com/dynbike/dynbike/core"
	"github.com/dynbike/dynbike/internal/contract"
	"github.com/spf13/cobra"
)

// checkCmd focused on CI/CD data gating.
var checkCmd = &cobra.Command{
	Use:   "check <input>",
	Short: "Verify every session has gap-free elapsed seconds (fails on gaps)",
	Long: `Filter extreme cadence and verify that each session's elapsed seconds increase by one.

Designed for pipelines that must not feed gapped series into later analysis - exits with
a non-zero code when any session is not sequential.

Examples:
  # Gate a combined export
  dynbike check combined.csv

  # Machine-readable verdicts
  dynbike check combined.csv --output csv --output-file checks.csv`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteCheck(rootCtx, cfg); err != nil {
			contract.LogFatal("Sequence check failed", err)
		}
	},
}
