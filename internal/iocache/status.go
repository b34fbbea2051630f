package iocache

import (
	"fmt"
	"io"
	"slices"

	"github.com/dynbike/dynbike/schema"
)

// PrintSessionStoreStatus prints session store status information.
func PrintSessionStoreStatus(w io.Writer, status schema.SessionStoreStatus) {
	_, _ = fmt.Fprintf(w, "Session Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	_, _ = fmt.Fprintf(w, "Total Sessions: %d\n", status.TotalSessions)
	if status.TotalSessions > 0 {
		phases := make([]schema.SessionPhase, 0, len(status.ByPhase))
		for phase := range status.ByPhase {
			phases = append(phases, phase)
		}
		slices.Sort(phases)
		for _, phase := range phases {
			_, _ = fmt.Fprintf(w, "  %s: %d\n", phase, status.ByPhase[phase])
		}
		_, _ = fmt.Fprintf(w, "Last Update: %s\n", status.LastUpdateTime.Format("2006-01-02 15:04:05"))
		_, _ = fmt.Fprintf(w, "Oldest Session: %s\n", status.OldestStartTime.Format("2006-01-02 15:04:05"))
	}
	_, _ = fmt.Fprintf(w, "Table Size: %d bytes\n", status.TableSizeBytes)
}

// PrintRunStatus prints run-tracking status information.
func PrintRunStatus(w io.Writer, status schema.RunStatus) {
	_, _ = fmt.Fprintf(w, "Run Backend: %s\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Connected: %t\n", status.Connected)
	if !status.Connected {
		return
	}
	_, _ = fmt.Fprintf(w, "Total Runs: %d\n", status.TotalRuns)
	if status.TotalRuns > 0 {
		_, _ = fmt.Fprintf(w, "Last Run ID: %d\n", status.LastRunID)
		_, _ = fmt.Fprintf(w, "Last Run: %s\n", status.LastRunTime.Format("2006-01-02 15:04:05"))
		_, _ = fmt.Fprintf(w, "Oldest Run: %s\n", status.OldestRunTime.Format("2006-01-02 15:04:05"))
		_, _ = fmt.Fprintf(w, "Total Sessions Trimmed: %d\n", status.TotalSessionsTrimmed)
	}
	_, _ = fmt.Fprintln(w, "Table Sizes:")
	tables := make([]string, 0, len(status.TableSizes))
	for table := range status.TableSizes {
		tables = append(tables, table)
	}
	slices.Sort(tables)
	for _, table := range tables {
		_, _ = fmt.Fprintf(w, "  %s: %d rows\n", table, status.TableSizes[table])
	}
}
