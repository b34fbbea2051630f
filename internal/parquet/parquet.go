// Package parquet exports trim runs, trim records and session series to Parquet
// files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/dynbike/dynbike/schema"
	"github.com/parquet-go/parquet-go"
)

// TrimRun represents a single batch trim run with metadata.
// This struct maps to the dynbike_trim_runs database table.
type TrimRun struct {
	// RunID is the unique identifier for this trim run
	RunID int64 `parquet:"run_id,snappy"`

	// StartTime is when the run began
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the run in milliseconds (nullable)
	RunDurationMs *int32 `parquet:"run_duration_ms,optional,snappy"`

	// TotalSessions is the number of sessions trimmed in this run
	TotalSessions int32 `parquet:"total_sessions,snappy"`

	// ConfigParams contains the JSON-encoded configuration parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// TrimRecord is the trim report of one session within a run.
// This struct maps to the dynbike_trim_records database table.
type TrimRecord struct {
	RunID          int64     `parquet:"run_id,snappy"`
	SessionKey     string    `parquet:"session_key,snappy,dict"`
	RecordTime     time.Time `parquet:"record_time,snappy"`
	InputRows      int32     `parquet:"input_rows,snappy"`
	DroppedExtreme int32     `parquet:"dropped_extreme,snappy"`
	FlatStart      int32     `parquet:"flat_start,snappy"`
	FlatLength     int32     `parquet:"flat_length,snappy"`
	Trimmed        bool      `parquet:"trimmed,snappy"`
	OutputRows     int32     `parquet:"output_rows,snappy"`
	Sequential     bool      `parquet:"sequential,snappy"`
	EffortPercent  float64   `parquet:"effort_percent,snappy"`
}

// ObservationRow is one per-second row of a trimmed or segmented series.
// Part is the 1-based segment index for split sessions and 0 otherwise.
type ObservationRow struct {
	SessionKey    string  `parquet:"id_sess,snappy,dict"`
	Part          int32   `parquet:"part,snappy"`
	ElapsedSecond int32   `parquet:"elapsed_sec,snappy,delta"`
	Cadence       float64 `parquet:"cadence,snappy"`
	Power         float64 `parquet:"power,snappy"`
	HeartRate     int32   `parquet:"hr,snappy"`
}

// writeParquet writes rows of T to outputPath with a schema inferred from T's struct tags.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// WriteTrimRunsParquet writes a slice of TrimRun structs to a Parquet file.
func WriteTrimRunsParquet(data []TrimRun, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteTrimRecordsParquet writes a slice of TrimRecord structs to a Parquet file.
func WriteTrimRecordsParquet(data []TrimRecord, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteObservationsParquet writes a slice of ObservationRow structs to a Parquet file.
func WriteObservationsParquet(data []ObservationRow, outputPath string) error {
	return writeParquet(data, outputPath)
}

// ConvertTrimRunRecords converts schema.TrimRunRecord to TrimRun for Parquet export.
func ConvertTrimRunRecords(records []schema.TrimRunRecord) []TrimRun {
	result := make([]TrimRun, len(records))
	for i, record := range records {
		result[i] = TrimRun{
			RunID:         record.RunID,
			StartTime:     record.StartTime,
			EndTime:       record.EndTime,
			RunDurationMs: record.RunDurationMs,
			TotalSessions: record.TotalSessions,
			ConfigParams:  record.ConfigParams,
		}
	}
	return result
}

// ConvertTrimRecords converts schema.TrimRecord to TrimRecord for Parquet export.
func ConvertTrimRecords(records []schema.TrimRecord) []TrimRecord {
	result := make([]TrimRecord, len(records))
	for i, record := range records {
		result[i] = TrimRecord(record)
	}
	return result
}

// ConvertTrimReports converts the reports of a finished batch into TrimRecord rows
// that have not been assigned a run.
func ConvertTrimReports(reports []schema.TrimReport, recordTime time.Time) []TrimRecord {
	result := make([]TrimRecord, len(reports))
	for i, r := range reports {
		result[i] = TrimRecord{
			SessionKey:     r.Key,
			RecordTime:     recordTime,
			InputRows:      int32(r.InputRows),
			DroppedExtreme: int32(r.DroppedExtreme),
			FlatStart:      int32(r.Flatline.Start),
			FlatLength:     int32(r.Flatline.Length),
			Trimmed:        r.Trimmed,
			OutputRows:     int32(r.OutputRows),
			Sequential:     r.Sequential,
			EffortPercent:  r.EffortPercent,
		}
	}
	return result
}

// ConvertSeries flattens a series into observation rows tagged with part.
func ConvertSeries(s schema.Series, part int) []ObservationRow {
	key := s.Key.String()
	result := make([]ObservationRow, len(s.Rows))
	for i, o := range s.Rows {
		result[i] = ObservationRow{
			SessionKey:    key,
			Part:          int32(part),
			ElapsedSecond: int32(o.ElapsedSecond),
			Cadence:       o.Cadence,
			Power:         o.Power,
			HeartRate:     int32(o.HeartRate),
		}
	}
	return result
}

// MockFetchTrimRuns generates sample TrimRun data for demonstration.
func MockFetchTrimRuns() []TrimRun {
	now := time.Now()
	startTime1 := now.Add(-2 * time.Hour)
	endTime1 := startTime1.Add(4 * time.Second)
	durationMs1 := int32(endTime1.Sub(startTime1).Milliseconds())
	configParams1 := `{"column":"cadence","roll_window":60,"min_flat_start":2000}`

	startTime2 := now.Add(-10 * time.Minute)

	return []TrimRun{
		{
			RunID:         1,
			StartTime:     startTime1,
			EndTime:       &endTime1,
			RunDurationMs: &durationMs1,
			TotalSessions: 24,
			ConfigParams:  &configParams1,
		},
		{
			RunID:         2,
			StartTime:     startTime2,
			EndTime:       nil, // Interrupted run
			RunDurationMs: nil,
			TotalSessions: 0,
			ConfigParams:  nil,
		},
	}
}

// MockFetchTrimRecords generates sample TrimRecord data for demonstration.
func MockFetchTrimRecords() []TrimRecord {
	recorded := time.Now().Add(-2 * time.Hour)
	return []TrimRecord{
		{
			RunID: 1, SessionKey: "SMB024_day1", RecordTime: recorded,
			InputRows: 3000, DroppedExtreme: 3, FlatStart: 2700, FlatLength: 297,
			Trimmed: true, OutputRows: 2700, Sequential: true, EffortPercent: 88.4,
		},
		{
			RunID: 1, SessionKey: "SMB024_day2", RecordTime: recorded,
			InputRows: 3000, DroppedExtreme: 0, FlatStart: 1500, FlatLength: 1500,
			Trimmed: false, OutputRows: 3000, Sequential: true, EffortPercent: 51.0,
		},
	}
}
