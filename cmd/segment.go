package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dynbike/dynbike/core"
	"github.com/dynbike/dynbike/internal/contract"
	"github.com/dynbike/dynbike/internal/prompt"
	"github.com/spf13/cobra"
)

// ErrSessionAbandoned is returned when an interactive session is interrupted.
// The caller exits with ExitAbandoned once stores are closed.
var ErrSessionAbandoned = errors.New("session abandoned")

// ExitAbandoned is the exit code for an interrupted session, as for SIGINT.
const ExitAbandoned = 130

// segmentCmd focused on interactive piecewise segmentation.
var segmentCmd = &cobra.Command{
	Use:   "segment [input]",
	Short: "Interactively cut one session into piecewise-linear segments",
	Long: `Fit a piecewise-linear model to one session's cadence and let an operator refine it.

At each prompt the numbered segments are shown. Respond with:
- a segment number to cut there, keeping the --side of the series, and refit
- 'all' to split the series into one part per segment
- a list such as '1,3' to split out only those segments
- 'stop' to keep the current series and model as the result
- an empty line to suspend; the session is stored and can be resumed with --resume

The state is checkpointed to the session store after every step.

Examples:
  # Segment one participant-day from a combined export
  dynbike segment combined.csv --session-key SMB024_day1

  # Keep the right-hand side of each cut and write the result as Parquet
  dynbike segment combined.csv --session-key SMB024_day1 --side right --output parquet --output-file result.parquet

  # Resume a suspended session
  dynbike segment --resume 0b8f2e9a-...`,
	Args:          cobra.MaximumNArgs(1),
	PreRunE:       sharedSetupWrapper,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(_ *cobra.Command, _ []string) error {
		if cfg.InputPath == "" && cfg.ResumeID == "" {
			contract.LogFatal("Segmentation failed", errors.New("an input file or --resume is required"))
		}
		ch := prompt.NewStdioTerminal(cfg)
		if err := core.ExecuteSegment(rootCtx, cfg, storeManager, ch); err != nil {
			if errors.Is(err, context.Canceled) {
				_, _ = fmt.Fprintln(os.Stderr, "Session abandoned. The last checkpoint is kept in the session store.")
				return ErrSessionAbandoned
			}
			contract.LogFatal("Segmentation failed", err)
		}
		return nil
	},
}
