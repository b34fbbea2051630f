package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dynbike/dynbike/core/algo"
	"github.com/dynbike/dynbike/internal/contract"
	"github.com/dynbike/dynbike/internal/ingest"
	"github.com/dynbike/dynbike/internal/log"
	"github.com/dynbike/dynbike/internal/outwriter"
	"github.com/dynbike/dynbike/schema"
)

// ErrCheckFailed is returned when at least one session has gaps in its elapsed seconds.
var ErrCheckFailed = errors.New("sequence check failed")

// ExecuteCheck runs the sequence-integrity check on every session for CI/CD gating.
// It returns ErrCheckFailed when any session is not sequential after filtering.
func ExecuteCheck(ctx context.Context, cfg *contract.Config) error {
	start := time.Now()
	series, err := ingest.Load(cfg.InputPath, ingest.Options{SessionKey: cfg.SessionKey})
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	checks := CheckSequences(series, CadenceBounds{Min: cfg.CadenceMin, Max: cfg.CadenceMax})
	if err := outwriter.PrintSequenceChecks(checks, cfg, time.Since(start)); err != nil {
		return err
	}

	failed := 0
	for _, c := range checks {
		if !c.Sequential {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d session(s) not sequential: %w", failed, len(checks), ErrCheckFailed)
	}
	return nil
}

// CheckSequences filters each series and checks that its elapsed seconds increase by one.
func CheckSequences(series []schema.Series, bounds CadenceBounds) []schema.SequenceCheck {
	logger := log.GetSugaredLogger()
	checks := make([]schema.SequenceCheck, 0, len(series))
	for _, s := range series {
		filtered, dropped := FilterExtremeCadence(s, bounds)
		if dropped > 0 {
			logger.Warnw("dropped rows with extreme cadence", "key", s.Key.String(), "dropped", dropped)
		}
		checks = append(checks, CheckSequence(filtered))
	}
	return checks
}

// CheckSequence reports whether the series' elapsed seconds form an unbroken run.
func CheckSequence(s schema.Series) schema.SequenceCheck {
	secs := s.ElapsedSeconds()
	c := schema.SequenceCheck{Key: s.Key.String(), Rows: len(secs), Sequential: algo.IsSequential(secs)}
	if len(secs) > 0 {
		c.FirstSec = secs[0]
		c.LastSec = secs[len(secs)-1]
	}
	return c
}
