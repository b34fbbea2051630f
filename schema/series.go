// Package schema has the models, constants and store records shared by all parts of dynbike.
package schema

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Observation is one per-second row of a cycling session.
type Observation struct {
	ElapsedSecond int       `json:"elapsed_sec" msgpack:"elapsed_sec"`
	Cadence       float64   `json:"cadence" msgpack:"cadence"`
	Power         float64   `json:"power" msgpack:"power"`
	HeartRate     int       `json:"hr" msgpack:"hr"`
	Timestamp     time.Time `json:"timestamp,omitzero" msgpack:"timestamp,omitempty"`
}

// Value returns the observation's reading for the given column.
func (o Observation) Value(col Column) float64 {
	switch col {
	case PowerColumn:
		return o.Power
	case HeartRateColumn:
		return float64(o.HeartRate)
	default:
		return o.Cadence
	}
}

// SessionKey identifies one participant-day recording.
type SessionKey struct {
	Participant string `json:"participant" msgpack:"participant"`
	Day         string `json:"day" msgpack:"day"`
}

// String renders the key as "<participant>_<day>", e.g. "SMB024_day1".
func (k SessionKey) String() string {
	if k.Day == "" {
		return k.Participant
	}
	return k.Participant + "_" + k.Day
}

// rawIDPattern matches study IDs like "SMB_024_day1_02".
var rawIDPattern = regexp.MustCompile(`^([A-Za-z]+)_?(\d+)_((?i:day)\d+)(?:_(\d+))?$`)

// ParseRawID parses a raw device ID such as "SMB_024_day1_02" into its session key
// and the trailing recording number (0 when absent).
func ParseRawID(raw string) (SessionKey, int, error) {
	m := rawIDPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return SessionKey{}, 0, fmt.Errorf("unrecognized session id %q", raw)
	}
	key := SessionKey{Participant: strings.ToUpper(m[1]) + m[2], Day: strings.ToLower(m[3])}
	recording := 0
	if m[4] != "" {
		n, err := strconv.Atoi(m[4])
		if err != nil {
			return SessionKey{}, 0, fmt.Errorf("invalid recording number in %q: %w", raw, err)
		}
		recording = n
	}
	return key, recording, nil
}

// ParseSessionKey parses "SMB024_day1" (or a raw ID) into a SessionKey.
// Keys without a day component are kept whole as the participant.
func ParseSessionKey(s string) SessionKey {
	s = strings.TrimSpace(s)
	if key, _, err := ParseRawID(s); err == nil {
		return key
	}
	if i := strings.LastIndex(s, "_day"); i > 0 {
		return SessionKey{Participant: s[:i], Day: s[i+1:]}
	}
	return SessionKey{Participant: s}
}

// Series is the ordered per-second recording of one participant-session.
type Series struct {
	Key  SessionKey    `json:"key" msgpack:"key"`
	Rows []Observation `json:"rows" msgpack:"rows"`
}

// Len returns the number of rows.
func (s Series) Len() int {
	return len(s.Rows)
}

// ElapsedSeconds returns the elapsed_second column.
func (s Series) ElapsedSeconds() []int {
	out := make([]int, len(s.Rows))
	for i, r := range s.Rows {
		out[i] = r.ElapsedSecond
	}
	return out
}

// Values returns the given column as float64.
func (s Series) Values(col Column) []float64 {
	out := make([]float64, len(s.Rows))
	for i, r := range s.Rows {
		out[i] = r.Value(col)
	}
	return out
}

// IndexOfSecond returns the position of the first row whose elapsed_second equals sec.
func (s Series) IndexOfSecond(sec int) (int, bool) {
	for i, r := range s.Rows {
		if r.ElapsedSecond == sec {
			return i, true
		}
	}
	return -1, false
}

// Slice returns a copy holding rows [from, to) under the same key.
func (s Series) Slice(from, to int) Series {
	rows := make([]Observation, to-from)
	copy(rows, s.Rows[from:to])
	return Series{Key: s.Key, Rows: rows}
}

// Clone returns a deep copy of the series.
func (s Series) Clone() Series {
	return s.Slice(0, len(s.Rows))
}
