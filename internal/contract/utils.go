package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dynbike/dynbike/schema"
	"github.com/fatih/color"
)

// Color variables for console output.
var (
	PendingColor   = color.New(color.FgYellow)              // PendingColor marks sessions waiting on a fit or a choice.
	FinalizedColor = color.New(color.FgGreen, color.Bold)   // FinalizedColor marks sessions closed by "stop".
	SplitColor     = color.New(color.FgCyan, color.Bold)    // SplitColor marks sessions closed by "all".
	AbandonedColor = color.New(color.FgRed)                 // AbandonedColor marks sessions that were cancelled.
	WarnColor      = color.New(color.FgMagenta, color.Bold) // WarnColor flags rows that failed a check.
)

// GetPlainPhaseLabel returns a plain text label for a session phase.
// This is the core logic used for CSV, JSON, and table printing.
func GetPlainPhaseLabel(phase schema.SessionPhase) string {
	switch phase {
	case schema.PhaseAwaitingFit:
		return "Awaiting fit"
	case schema.PhaseAwaitingChoice:
		return "Awaiting choice"
	case schema.PhaseFinalized:
		return "Finalized"
	case schema.PhaseSplit:
		return "Split"
	case schema.PhaseAbandoned:
		return "Abandoned"
	default:
		return string(phase)
	}
}

// GetColorPhaseLabel returns a colored phase label for console output (table).
func GetColorPhaseLabel(phase schema.SessionPhase) string {
	text := GetPlainPhaseLabel(phase)

	switch phase {
	case schema.PhaseFinalized:
		return FinalizedColor.Sprint(text)
	case schema.PhaseSplit:
		return SplitColor.Sprint(text)
	case schema.PhaseAbandoned:
		return AbandonedColor.Sprint(text)
	default:
		return PendingColor.Sprint(text)
	}
}

// GetCheckLabel returns "yes" or "NO" for a boolean check, colored when requested.
func GetCheckLabel(ok bool, useColors bool) string {
	if ok {
		return "yes"
	}
	if useColors {
		return WarnColor.Sprint("NO")
	}
	return "NO"
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. It returns os.Stdout when no path is given.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetSessionDBFilePath returns the path to the SQLite DB file for session storage.
func GetSessionDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".dynbike_sessions.db"
	}
	return filepath.Join(homeDir, ".dynbike_sessions.db")
}

// GetRunDBFilePath returns the path to the SQLite DB file for trim run storage.
func GetRunDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".dynbike_runs.db"
	}
	return filepath.Join(homeDir, ".dynbike_runs.db")
}

// TruncateKey truncates a session key to a maximum width with ellipsis suffix.
// Requires maxWidth > 3 to leave room for the "..." suffix.
func TruncateKey(key string, maxWidth int) string {
	runes := []rune(key)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return key
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
