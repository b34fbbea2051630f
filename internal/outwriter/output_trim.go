package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/dynbike/dynbike/internal/contract"
	"github.com/dynbike/dynbike/internal/parquet"
	"github.com/dynbike/dynbike/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// PrintTrimResults outputs the trim reports, dispatching based on the output format configured.
// The trimmed series are also written when a series file is configured.
func PrintTrimResults(results []schema.TrimResult, cfg *contract.Config, duration time.Duration) error {
	reports := make([]schema.TrimReport, len(results))
	for i, r := range results {
		reports[i] = r.Report
	}

	if err := writeTrimReports(reports, cfg, duration); err != nil {
		return err
	}

	if cfg.SeriesFile == "" {
		return nil
	}
	parts := make([]SeriesPart, len(results))
	for i, r := range results {
		parts[i] = SeriesPart{Series: r.Series}
	}
	if err := WriteSeriesFile(cfg.SeriesFile, parts); err != nil {
		return fmt.Errorf("error writing series file: %w", err)
	}
	return nil
}

func writeTrimReports(reports []schema.TrimReport, cfg *contract.Config, duration time.Duration) error {
	fmtFloat := createFormatter(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, reports)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVTrimReports(w, reports, fmtFloat)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		rows := parquet.ConvertTrimReports(reports, time.Now())
		if err := parquet.WriteTrimRecordsParquet(rows, cfg.OutputFile); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
		_, _ = fmt.Fprintf(os.Stderr, "💾 Wrote Parquet to %s\n", cfg.OutputFile)
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeTrimTable(w, reports, cfg, fmtFloat, duration)
		}, "Wrote table")
	}
	return nil
}

// writeTrimTable generates and writes the human-readable table.
func writeTrimTable(w io.Writer, reports []schema.TrimReport, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"#", "Session", "Input", "Dropped", "Flat Start", "Flat Len", "Trimmed", "Output", "Sequential", "Effort %"})
	table.Configure(func(tc *tablewriter.Config) {
		tc.Row.Alignment.Global = tw.AlignRight
	})

	keyWidth := GetMaxTableKeyWidth(cfg, 95)
	trimmed := 0
	var data [][]string
	for i, r := range reports {
		flatStart, flatLen := "-", "-"
		if r.Flatline.Found {
			flatStart = strconv.Itoa(r.Flatline.Start)
			flatLen = strconv.Itoa(r.Flatline.Length)
		}
		if r.Trimmed {
			trimmed++
		}
		data = append(data, []string{
			strconv.Itoa(i + 1),
			contract.TruncateKey(r.Key, keyWidth),
			strconv.Itoa(r.InputRows),
			strconv.Itoa(r.DroppedExtreme),
			flatStart,
			flatLen,
			yesNo(r.Trimmed),
			strconv.Itoa(r.OutputRows),
			contract.GetCheckLabel(r.Sequential, cfg.UseColors),
			fmtFloat(r.EffortPercent),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Trimmed %d of %d sessions\n", trimmed, len(reports)); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Completed in %v with %d workers. Run backend: %s\n", duration, cfg.Workers, cfg.RunBackend)
	return err
}

// writeCSVTrimReports writes the trim reports in CSV format.
func writeCSVTrimReports(w io.Writer, reports []schema.TrimReport, fmtFloat func(float64) string) error {
	header := []string{
		"session", "input_rows", "dropped_extreme", "flat_found", "flat_start", "flat_length",
		"trimmed", "output_rows", "sequential", "effort_percent",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range reports {
			rec := []string{
				r.Key,
				strconv.Itoa(r.InputRows),
				strconv.Itoa(r.DroppedExtreme),
				strconv.FormatBool(r.Flatline.Found),
				strconv.Itoa(r.Flatline.Start),
				strconv.Itoa(r.Flatline.Length),
				strconv.FormatBool(r.Trimmed),
				strconv.Itoa(r.OutputRows),
				strconv.FormatBool(r.Sequential),
				fmtFloat(r.EffortPercent),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
