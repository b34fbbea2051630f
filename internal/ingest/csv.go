package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dynbike/dynbike/schema"
)

// ErrMissingColumn is returned when a CSV header lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// Raw combined-file columns. Millitm is present in the raw export but unused.
var rawColumns = []string{"date", "time", "hr", "cadence", "power", "id"}

// Pre-cleaned columns, one row per elapsed second.
var cleanColumns = []string{"id_sess", "elapsed_sec", "cadence", "power", "hr"}

// timestampLayouts are tried in order when joining the raw Date and Time columns.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.000",
	"1/2/2006 15:04:05",
	"1/2/2006 3:04:05 PM",
	"01/02/2006 15:04:05",
}

// ReadCSV parses a combined raw export or a pre-cleaned table into per-session series.
// Header names are matched case-insensitively. Sessions keep the order of first appearance.
func ReadCSV(r io.Reader) ([]schema.Series, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	cols := indexColumns(header)

	var parse rowParser
	switch {
	case hasColumns(cols, cleanColumns):
		parse = parseCleanRow
	case hasColumns(cols, rawColumns):
		parse = parseRawRow
	default:
		return nil, fmt.Errorf("expected columns %v or %v: %w", rawColumns, cleanColumns, ErrMissingColumn)
	}

	g := newGrouper()
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, err
		}
		if isBlank(record) {
			continue
		}
		key, obs, explicit, err := parse(cols, record)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		g.add(key, obs, explicit)
	}
	return g.series(), nil
}

type rowParser func(cols map[string]int, record []string) (schema.SessionKey, schema.Observation, bool, error)

// parseRawRow reads Date, Time, HR, Cadence, Power and ID. Elapsed seconds are assigned per
// session by row position.
func parseRawRow(cols map[string]int, record []string) (schema.SessionKey, schema.Observation, bool, error) {
	key, _, err := schema.ParseRawID(field(cols, record, "id"))
	if err != nil {
		return schema.SessionKey{}, schema.Observation{}, false, err
	}
	obs, err := parseMeasures(cols, record)
	if err != nil {
		return key, obs, false, err
	}
	obs.Timestamp = parseTimestamp(field(cols, record, "date"), field(cols, record, "time"))
	return key, obs, false, nil
}

// parseCleanRow reads id_sess, elapsed_sec, cadence, power and hr.
func parseCleanRow(cols map[string]int, record []string) (schema.SessionKey, schema.Observation, bool, error) {
	key := schema.ParseSessionKey(field(cols, record, "id_sess"))
	obs, err := parseMeasures(cols, record)
	if err != nil {
		return key, obs, true, err
	}
	sec, err := strconv.ParseFloat(field(cols, record, "elapsed_sec"), 64)
	if err != nil {
		return key, obs, true, fmt.Errorf("elapsed_sec: %w", err)
	}
	obs.ElapsedSecond = int(math.Round(sec))
	return key, obs, true, nil
}

// parseMeasures reads the numeric columns. A blank cadence becomes NaN so the extreme-value
// filter drops it; blank power and heart rate read as zero.
func parseMeasures(cols map[string]int, record []string) (schema.Observation, error) {
	var obs schema.Observation
	var err error
	if obs.Cadence, err = parseNumber(field(cols, record, "cadence"), math.NaN()); err != nil {
		return obs, fmt.Errorf("cadence: %w", err)
	}
	if obs.Power, err = parseNumber(field(cols, record, "power"), 0); err != nil {
		return obs, fmt.Errorf("power: %w", err)
	}
	hr, err := parseNumber(field(cols, record, "hr"), 0)
	if err != nil {
		return obs, fmt.Errorf("hr: %w", err)
	}
	obs.HeartRate = int(math.Round(hr))
	return obs, nil
}

func parseNumber(s string, blank float64) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return blank, nil
	}
	return strconv.ParseFloat(s, 64)
}

func parseTimestamp(date, clock string) time.Time {
	date, clock = strings.TrimSpace(date), strings.TrimSpace(clock)
	if date == "" {
		return time.Time{}
	}
	// Spreadsheet exports sometimes carry a midnight time on the date column.
	if i := strings.IndexByte(date, ' '); i > 0 && clock != "" {
		date = date[:i]
	}
	value := strings.TrimSpace(date + " " + clock)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}

func indexColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}
	return cols
}

func hasColumns(cols map[string]int, want []string) bool {
	for _, w := range want {
		if _, ok := cols[w]; !ok {
			return false
		}
	}
	return true
}

func field(cols map[string]int, record []string, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(record) {
		return ""
	}
	return record[i]
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// grouper collects observations per session key in order of first appearance.
type grouper struct {
	order []string
	byKey map[string]*schema.Series
}

func newGrouper() *grouper {
	return &grouper{byKey: make(map[string]*schema.Series)}
}

func (g *grouper) add(key schema.SessionKey, obs schema.Observation, explicitSecond bool) {
	k := key.String()
	s, ok := g.byKey[k]
	if !ok {
		s = &schema.Series{Key: key}
		g.byKey[k] = s
		g.order = append(g.order, k)
	}
	if !explicitSecond {
		obs.ElapsedSecond = len(s.Rows)
	}
	s.Rows = append(s.Rows, obs)
}

func (g *grouper) series() []schema.Series {
	out := make([]schema.Series, 0, len(g.order))
	for _, k := range g.order {
		out = append(out, *g.byKey[k])
	}
	return out
}
