package core

import (
	"github.com/dynbike/dynbike/schema"
)

// CadenceBounds is an inclusive cadence range.
type CadenceBounds struct {
	Min float64
	Max float64
}

// DefaultCadenceBounds returns the [-150, 150] range used by the study.
func DefaultCadenceBounds() CadenceBounds {
	return CadenceBounds{Min: schema.DefaultCadenceMin, Max: schema.DefaultCadenceMax}
}

// Contains reports whether v lies within the bounds.
func (b CadenceBounds) Contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

// FilterExtremeCadence returns a copy of s without rows whose cadence lies outside the bounds,
// preserving row order, along with the number of rows removed.
func FilterExtremeCadence(s schema.Series, bounds CadenceBounds) (schema.Series, int) {
	rows := make([]schema.Observation, 0, len(s.Rows))
	for _, r := range s.Rows {
		if bounds.Contains(r.Cadence) {
			rows = append(rows, r)
		}
	}
	return schema.Series{Key: s.Key, Rows: rows}, len(s.Rows) - len(rows)
}
