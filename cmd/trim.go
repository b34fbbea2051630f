package cmd

import (
	"github.com/dynbike/dynbike/core"
	"github.com/dynbike/dynbike/internal/contract"
	"github.com/spf13/cobra"
)

// trimCmd focused on batch preprocessing.
var trimCmd = &cobra.Command{
	Use:   "trim <input>",
	Short: "Filter extreme cadence and trim trailing flatlines for every session",
	Long: `Preprocess every participant-session in a raw export, a pre-cleaned CSV or a FIT file.

For each session:
- Rows with cadence outside [--cadence-min, --cadence-max] are dropped
- The longest run where the rounded rolling mean of --column equals --flat-value is found
- The series is cut at that run when it starts after --min-flat-start rows and lasts
  longer than --min-flat-length rows
- The elapsed seconds are checked for gaps and the effort share (power > 0) is reported

Sessions are processed in parallel. When --run-backend is set, every run and its
per-session reports are recorded for later export.

Examples:
  # Trim a combined export and keep the cleaned rows
  dynbike trim combined.csv --series-file cleaned.csv

  # Report as JSON and record the run in SQLite
  dynbike trim combined.csv --output json --run-backend sqlite

  # Detect flat power instead of cadence
  dynbike trim combined.csv --column power`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteTrim(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Trim failed", err)
		}
	},
}
