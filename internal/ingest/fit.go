package ingest

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/dynbike/dynbike/schema"
	"github.com/tormoder/fit"
)

// ReadFIT decodes a FIT activity into a single series under key.
// Elapsed seconds count from the first record with a valid timestamp, so dropouts
// in the recording show up as gaps. Invalid cadence reads as NaN and is removed by
// the extreme-value filter; invalid power and heart rate read as zero.
func ReadFIT(r io.Reader, key schema.SessionKey) (schema.Series, error) {
	decoded, err := fit.Decode(r)
	if err != nil {
		return schema.Series{}, fmt.Errorf("decode fit: %w", err)
	}
	activity, err := decoded.Activity()
	if err != nil {
		return schema.Series{}, fmt.Errorf("fit activity: %w", err)
	}

	series := schema.Series{Key: key, Rows: make([]schema.Observation, 0, len(activity.Records))}
	var start time.Time
	for _, rec := range activity.Records {
		if rec == nil {
			continue
		}
		ts := validTime(rec.Timestamp)
		if ts.IsZero() {
			continue
		}
		if start.IsZero() {
			start = ts
		}
		series.Rows = append(series.Rows, schema.Observation{
			ElapsedSecond: int(ts.Sub(start) / time.Second),
			Cadence:       fitCadence(rec),
			Power:         fitPower(rec),
			HeartRate:     fitHeartRate(rec),
			Timestamp:     ts,
		})
	}
	return series, nil
}

func validTime(t time.Time) time.Time {
	if t.IsZero() || fit.IsBaseTime(t) {
		return time.Time{}
	}
	return t
}

func fitCadence(rec *fit.RecordMsg) float64 {
	if rec.Cadence == math.MaxUint8 {
		return math.NaN()
	}
	return float64(rec.Cadence)
}

func fitPower(rec *fit.RecordMsg) float64 {
	if rec.Power == math.MaxUint16 {
		return 0
	}
	return float64(rec.Power)
}

func fitHeartRate(rec *fit.RecordMsg) int {
	if rec.HeartRate == math.MaxUint8 {
		return 0
	}
	return int(rec.HeartRate)
}
