package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dynbike/dynbike/internal/contract"
	"github.com/dynbike/dynbike/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// PrintSequenceChecks outputs sequence-integrity verdicts in the configured format.
// Parquet output falls back to CSV since a check has no columnar consumer.
func PrintSequenceChecks(checks []schema.SequenceCheck, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, checks)
		}, "Wrote JSON")
	case schema.CSVOut, schema.ParquetOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVChecks(w, checks)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCheckTable(w, checks, cfg, duration)
		}, "Wrote table")
	}
}

func writeCheckTable(w io.Writer, checks []schema.SequenceCheck, cfg *contract.Config, duration time.Duration) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Session", "Rows", "First Sec", "Last Sec", "Sequential"})
	table.Configure(func(tc *tablewriter.Config) {
		tc.Row.Alignment.Global = tw.AlignRight
	})

	keyWidth := GetMaxTableKeyWidth(cfg, 50)
	passed := 0
	var data [][]string
	for _, c := range checks {
		if c.Sequential {
			passed++
		}
		data = append(data, []string{
			contract.TruncateKey(c.Key, keyWidth),
			strconv.Itoa(c.Rows),
			strconv.Itoa(c.FirstSec),
			strconv.Itoa(c.LastSec),
			contract.GetCheckLabel(c.Sequential, cfg.UseColors),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d of %d series are sequential. Checked in %v\n", passed, len(checks), duration)
	return err
}

func writeCSVChecks(w io.Writer, checks []schema.SequenceCheck) error {
	header := []string{"session", "rows", "first_sec", "last_sec", "sequential"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, c := range checks {
			rec := []string{
				c.Key,
				strconv.Itoa(c.Rows),
				strconv.Itoa(c.FirstSec),
				strconv.Itoa(c.LastSec),
				strconv.FormatBool(c.Sequential),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}
