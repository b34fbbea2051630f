// Package outwriter has output and writer logic.
package outwriter

import (
	"os"
	"time"

	"github.com/dynbike/dynbike/internal/contract"
	"github.com/dynbike/dynbike/schema"
	"golang.org/x/term"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteTrim prints batch trim reports using the configured output format.
func (ow *OutWriter) WriteTrim(results []schema.TrimResult, cfg *contract.Config, duration time.Duration) error {
	return PrintTrimResults(results, cfg, duration)
}

// WriteChecks prints sequence checks using the configured output format.
func (ow *OutWriter) WriteChecks(checks []schema.SequenceCheck, cfg *contract.Config, duration time.Duration) error {
	return PrintSequenceChecks(checks, cfg, duration)
}

// WriteSession prints a terminal session using the configured output format.
func (ow *OutWriter) WriteSession(state *schema.SessionState, cfg *contract.Config) error {
	return PrintSessionResult(state, cfg)
}

// WriteSessionList prints stored session summaries using the configured output format.
func (ow *OutWriter) WriteSessionList(summaries []schema.SessionSummary, cfg *contract.Config) error {
	return PrintSessionList(summaries, cfg)
}

// GetMaxTableKeyWidth calculates the maximum width for session keys in table output
// based on terminal width and the width already taken by the other columns.
func GetMaxTableKeyWidth(cfg *contract.Config, reserved int) int {
	var termWidth int

	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		termWidth = cfg.Width
	}

	if termWidth == 0 { // Not set by override
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			// Fallback to conservative default if terminal size can't be detected
			termWidth = 80
		} else {
			termWidth = detectedWidth
		}
	}

	// Reserve space for table borders, separators, and padding
	available := termWidth - reserved - 10
	if available < 12 {
		return 12
	}
	if available > 40 {
		return 40
	}
	return available
}
