package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/dynbike/dynbike/internal/contract"
	"github.com/dynbike/dynbike/internal/parquet"
)

// ExecuteRunExport exports trim-run tracking data from store to Parquet files
// named after outputFile.
func ExecuteRunExport(w io.Writer, store contract.RunStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("run tracking is not enabled. Set --run-backend to export runs")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get run status: %w", err)
	}

	if status.TotalRuns == 0 {
		return errors.New("no trim runs found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total trim runs: %d\n", status.TotalRuns)
	_, _ = fmt.Fprintf(w, "Total trim records: %d\n", status.TableSizes[trimRecordsTable])

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve trim runs: %w", err)
	}

	records, err := store.GetAllTrimRecords()
	if err != nil {
		return fmt.Errorf("failed to retrieve trim records: %w", err)
	}

	parquetRuns := parquet.ConvertTrimRunRecords(runs)
	parquetRecords := parquet.ConvertTrimRecords(records)

	runsFile := outputFile + ".trim_runs.parquet"
	if err := parquet.WriteTrimRunsParquet(parquetRuns, runsFile); err != nil {
		return fmt.Errorf("failed to write trim runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d trim runs to: %s\n", len(parquetRuns), runsFile)

	recordsFile := outputFile + ".trim_records.parquet"
	if err := parquet.WriteTrimRecordsParquet(parquetRecords, recordsFile); err != nil {
		return fmt.Errorf("failed to write trim records: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d trim records to: %s\n", len(parquetRecords), recordsFile)

	return nil
}
