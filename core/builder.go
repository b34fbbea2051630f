package core

import (
	"github.com/dynbike/dynbike/core/algo"
	"github.com/dynbike/dynbike/internal/contract"
	"github.com/dynbike/dynbike/schema"
	"go.uber.org/zap"
)

// TrimOptions configures batch preprocessing of sessions.
type TrimOptions struct {
	Bounds   CadenceBounds
	Flatline FlatlineOptions
}

// DefaultTrimOptions returns the study's filter and detector settings.
func DefaultTrimOptions() TrimOptions {
	return TrimOptions{Bounds: DefaultCadenceBounds(), Flatline: DefaultFlatlineOptions()}
}

// TrimOptionsFromConfig derives trim options from the validated config.
func TrimOptionsFromConfig(cfg *contract.Config) TrimOptions {
	return TrimOptions{
		Bounds: CadenceBounds{Min: cfg.CadenceMin, Max: cfg.CadenceMax},
		Flatline: FlatlineOptions{
			Column:    cfg.Column,
			FlatValue: cfg.FlatValue,
			Window:    cfg.RollWindow,
			MinStart:  cfg.MinFlatStart,
			MinLength: cfg.MinFlatLength,
		},
	}
}

// TrimResultBuilder preprocesses one session step by step.
type TrimResultBuilder struct {
	opts   TrimOptions
	log    *zap.SugaredLogger
	series schema.Series
	report *schema.TrimReport
}

// NewTrimResultBuilder is the starting point for preprocessing a session.
func NewTrimResultBuilder(series schema.Series, opts TrimOptions, logger *zap.SugaredLogger) *TrimResultBuilder {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &TrimResultBuilder{
		opts:   opts,
		log:    logger,
		series: series,
		report: &schema.TrimReport{Key: series.Key.String(), InputRows: series.Len()},
	}
}

// FilterExtremes drops rows with out-of-range cadence and warns when any were dropped.
func (b *TrimResultBuilder) FilterExtremes() *TrimResultBuilder {
	filtered, dropped := FilterExtremeCadence(b.series, b.opts.Bounds)
	if dropped > 0 {
		b.log.Warnw("dropped rows with extreme cadence",
			"key", b.report.Key, "dropped", dropped, "min", b.opts.Bounds.Min, "max", b.opts.Bounds.Max)
	}
	b.series = filtered
	b.report.DroppedExtreme = dropped
	return b
}

// TrimFlatline cuts a qualifying trailing flatline.
func (b *TrimResultBuilder) TrimFlatline() *TrimResultBuilder {
	trimmed, run, ok := TrimTrailingFlatline(b.series, b.opts.Flatline)
	b.report.Flatline = run
	b.report.Trimmed = ok
	if ok {
		b.log.Debugw("trimmed trailing flatline", "key", b.report.Key, "start", run.Start, "length", run.Length)
	}
	b.series = trimmed
	return b
}

// CheckSequence verifies elapsed seconds and warns on gaps.
func (b *TrimResultBuilder) CheckSequence() *TrimResultBuilder {
	b.report.Sequential = algo.IsSequential(b.series.ElapsedSeconds())
	if !b.report.Sequential {
		b.log.Warnw("elapsed seconds are not sequential", "key", b.report.Key, "rows", b.series.Len())
	}
	return b
}

// ComputeEffort records the percent of rows with positive power.
func (b *TrimResultBuilder) ComputeEffort() *TrimResultBuilder {
	b.report.EffortPercent = EffortPercent(b.series)
	return b
}

// Build returns the final result.
func (b *TrimResultBuilder) Build() schema.TrimResult {
	b.report.OutputRows = b.series.Len()
	return schema.TrimResult{Report: *b.report, Series: b.series}
}

// EffortPercent is the percentage of rows with power above zero, or 0 for an empty series.
func EffortPercent(s schema.Series) float64 {
	if s.Len() == 0 {
		return 0
	}
	active := 0
	for _, r := range s.Rows {
		if r.Power > 0 {
			active++
		}
	}
	return 100 * float64(active) / float64(s.Len())
}

// TrimSession runs the full preprocessing chain on one session.
func TrimSession(series schema.Series, opts TrimOptions, logger *zap.SugaredLogger) schema.TrimResult {
	return NewTrimResultBuilder(series, opts, logger).
		FilterExtremes().
		TrimFlatline().
		CheckSequence().
		ComputeEffort().
		Build()
}
