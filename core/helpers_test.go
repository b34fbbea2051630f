package core

import (
	"context"
	"errors"

	"github.com/dynbike/dynbike/schema"
)

// seriesFrom builds a series with elapsed seconds start, start+1, ... and the given cadence.
func seriesFrom(key string, start int, cadence []float64) schema.Series {
	rows := make([]schema.Observation, len(cadence))
	for i, c := range cadence {
		rows[i] = schema.Observation{ElapsedSecond: start + i, Cadence: c, Power: c * 2, HeartRate: 100}
	}
	return schema.Series{Key: schema.ParseSessionKey(key), Rows: rows}
}

// sawtooth never repeats a value 60 rows apart, so its rolling difference is never zero.
func sawtooth(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i % 97)
	}
	return out
}

// steps returns n-row blocks at each of the given levels.
func steps(n int, levels ...float64) []float64 {
	out := make([]float64, 0, n*len(levels))
	for _, l := range levels {
		for range n {
			out = append(out, l)
		}
	}
	return out
}

// scriptedChannel replays canned operator responses and records what it was shown.
type scriptedChannel struct {
	responses []string
	presented []schema.SessionPhase
	reported  []error
	awaitErr  error
}

func (c *scriptedChannel) Present(_ context.Context, state *schema.SessionState) error {
	c.presented = append(c.presented, state.Phase)
	return nil
}

func (c *scriptedChannel) Await(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(c.responses) == 0 {
		if c.awaitErr != nil {
			return "", c.awaitErr
		}
		return "", errors.New("script exhausted")
	}
	next := c.responses[0]
	c.responses = c.responses[1:]
	return next, nil
}

func (c *scriptedChannel) Report(_ context.Context, err error) error {
	c.reported = append(c.reported, err)
	return nil
}
