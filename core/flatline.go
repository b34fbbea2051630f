package core

import (
	"fmt"

	"github.com/dynbike/dynbike/core/algo"
	"github.com/dynbike/dynbike/schema"
)

// FlatlineOptions configures trailing-flatline detection.
type FlatlineOptions struct {
	Column    schema.Column
	FlatValue int
	Window    int
	MinStart  int // the run must start strictly after this row
	MinLength int // the run must be strictly longer than this
}

// DefaultFlatlineOptions returns the detector settings used by the study.
func DefaultFlatlineOptions() FlatlineOptions {
	return FlatlineOptions{
		Column:    schema.CadenceColumn,
		FlatValue: schema.DefaultFlatValue,
		Window:    schema.DefaultRollWindow,
		MinStart:  schema.DefaultMinFlatStart,
		MinLength: schema.DefaultMinFlatLength,
	}
}

// FindFlatline locates the first longest run where the rounded rolling difference of the
// chosen column equals the flat value. It returns ErrDegenerateInput for an empty series
// or when no row matches.
func FindFlatline(s schema.Series, opts FlatlineOptions) (schema.FlatlineRun, error) {
	if s.Len() == 0 {
		return schema.FlatlineRun{}, fmt.Errorf("%s: empty series: %w", s.Key, ErrDegenerateInput)
	}
	diff := algo.RollingDiff(s.Values(opts.Column), opts.Window)
	mask := algo.EqualMask(algo.RoundAll(diff), opts.FlatValue)
	run, ok := algo.LongestRun(mask)
	if !ok {
		return schema.FlatlineRun{}, fmt.Errorf("%s: no flat rows in %s: %w", s.Key, opts.Column, ErrDegenerateInput)
	}
	return schema.FlatlineRun{Start: run.Start, Length: run.Length, Found: true}, nil
}

// DetectTrailingFlatline reports the longest flat run and whether it qualifies for trimming.
// It never fails: degenerate input yields a zero run that does not qualify.
func DetectTrailingFlatline(s schema.Series, opts FlatlineOptions) (schema.FlatlineRun, bool) {
	run, err := FindFlatline(s, opts)
	if err != nil {
		return schema.FlatlineRun{}, false
	}
	return run, run.Start > opts.MinStart && run.Length > opts.MinLength
}

// TrimTrailingFlatline truncates s to the rows before a qualifying flat run.
// The input is returned unchanged when no run qualifies.
func TrimTrailingFlatline(s schema.Series, opts FlatlineOptions) (schema.Series, schema.FlatlineRun, bool) {
	run, ok := DetectTrailingFlatline(s, opts)
	if !ok {
		return s, run, false
	}
	return s.Slice(0, run.Start), run, true
}
