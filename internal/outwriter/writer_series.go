package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dynbike/dynbike/internal/parquet"
	"github.com/dynbike/dynbike/schema"
)

// SeriesPart is a series tagged with the segment it came from. Part is 0 for whole sessions.
type SeriesPart struct {
	Part   int
	Series schema.Series
}

// seriesHeader matches the pre-cleaned input layout so written series can be read back.
var seriesHeader = []string{"id_sess", "part", "elapsed_sec", "cadence", "power", "hr"}

// jsonObservation is an Observation with missing cadence encoded as null.
type jsonObservation struct {
	ElapsedSecond int      `json:"elapsed_sec"`
	Cadence       *float64 `json:"cadence"`
	Power         float64  `json:"power"`
	HeartRate     int      `json:"hr"`
}

type jsonSeries struct {
	Key  string            `json:"id_sess"`
	Part int               `json:"part,omitempty"`
	Rows []jsonObservation `json:"rows"`
}

func toJSONSeries(p SeriesPart) jsonSeries {
	rows := make([]jsonObservation, len(p.Series.Rows))
	for i, o := range p.Series.Rows {
		rows[i] = jsonObservation{
			ElapsedSecond: o.ElapsedSecond,
			Cadence:       nullableFloat(o.Cadence),
			Power:         o.Power,
			HeartRate:     o.HeartRate,
		}
	}
	return jsonSeries{Key: p.Series.Key.String(), Part: p.Part, Rows: rows}
}

// WriteSeriesFile writes series rows to path. The format follows the file extension:
// .parquet and .json are honored, anything else is written as CSV.
func WriteSeriesFile(path string, parts []SeriesPart) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		var rows []parquet.ObservationRow
		for _, p := range parts {
			rows = append(rows, parquet.ConvertSeries(p.Series, p.Part)...)
		}
		if err := parquet.WriteObservationsParquet(rows, path); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(os.Stderr, "💾 Wrote %d series rows to %s\n", len(rows), path)
		return nil
	case ".json":
		return writeWithFile(path, func(w io.Writer) error {
			return writeJSONSeries(w, parts)
		}, "Wrote series JSON")
	default:
		return writeWithFile(path, func(w io.Writer) error {
			return writeCSVSeries(w, parts)
		}, "Wrote series CSV")
	}
}

func writeJSONSeries(w io.Writer, parts []SeriesPart) error {
	out := make([]jsonSeries, len(parts))
	for i, p := range parts {
		out[i] = toJSONSeries(p)
	}
	return writeJSON(w, out)
}

func writeCSVSeries(w io.Writer, parts []SeriesPart) error {
	return writeCSVWithHeader(w, seriesHeader, func(cw *csv.Writer) error {
		for _, p := range parts {
			key := p.Series.Key.String()
			part := strconv.Itoa(p.Part)
			for _, o := range p.Series.Rows {
				rec := []string{
					key,
					part,
					strconv.Itoa(o.ElapsedSecond),
					formatReading(o.Cadence),
					formatReading(o.Power),
					strconv.Itoa(o.HeartRate),
				}
				if err := cw.Write(rec); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
