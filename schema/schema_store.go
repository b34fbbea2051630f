package schema

import "time"

// TrimRunRecord represents a row from the dynbike_trim_runs table.
type TrimRunRecord struct {
	RunID         int64
	StartTime     time.Time
	EndTime       *time.Time
	RunDurationMs *int32
	TotalSessions int32
	ConfigParams  *string
}

// TrimRecord represents a row from the dynbike_trim_records table.
type TrimRecord struct {
	RunID          int64
	SessionKey     string
	RecordTime     time.Time
	InputRows      int32
	DroppedExtreme int32
	FlatStart      int32
	FlatLength     int32
	Trimmed        bool
	OutputRows     int32
	Sequential     bool
	EffortPercent  float64
}
