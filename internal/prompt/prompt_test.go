package prompt

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/dynbike/dynbike/core"
	"github.com/dynbike/dynbike/internal/contract"
	"github.com/dynbike/dynbike/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func awaitingState() *schema.SessionState {
	s := schema.Series{Key: schema.SessionKey{Participant: "SMB3", Day: "day1"}}
	for i := range 4 {
		s.Rows = append(s.Rows, schema.Observation{ElapsedSecond: i, Cadence: 70})
	}
	return &schema.SessionState{
		ID:      "p1",
		Key:     s.Key,
		Side:    schema.LeftSide,
		Phase:   schema.PhaseAwaitingChoice,
		Current: s,
		Model: &schema.PiecewiseModel{Segments: []schema.Segment{
			{StartT: 0, EndT: 1, Rows: 2, Intercept: 70},
			{StartT: 2, EndT: 3, Rows: 2, Intercept: 70},
		}},
	}
}

func TestTerminal_Present(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminal(strings.NewReader(""), &out, &contract.Config{Precision: 1})

	require.NoError(t, term.Present(context.Background(), awaitingState()))
	assert.Contains(t, out.String(), "Session SMB3_day1")
	assert.Contains(t, out.String(), Instructions)

	out.Reset()
	state := awaitingState()
	state.Phase = schema.PhaseFinalized
	require.NoError(t, term.Present(context.Background(), state))
	assert.NotContains(t, out.String(), Instructions)
}

func TestTerminal_AwaitReadsLines(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminal(strings.NewReader(" 2 \nall 1,3\n\nstop"), &out, &contract.Config{})
	ctx := context.Background()

	for _, want := range []string{"2", "all 1,3", "", "stop", ""} {
		got, err := term.Await(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	assert.Empty(t, out.String(), "no prompt marker without a TTY")
}

func TestTerminal_AwaitCancelled(t *testing.T) {
	pr, pw := io.Pipe()
	defer func() { _ = pw.Close() }()
	term := NewTerminal(pr, io.Discard, &contract.Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := term.Await(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("read failed") }

func TestTerminal_AwaitReadError(t *testing.T) {
	term := NewTerminal(failingReader{}, io.Discard, &contract.Config{})
	_, err := term.Await(context.Background())
	assert.EqualError(t, err, "read failed")
}

func TestTerminal_Report(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminal(strings.NewReader(""), &out, &contract.Config{})
	require.NoError(t, term.Report(context.Background(), &core.OperatorInputError{Response: "x", Reason: "not a number"}))
	assert.Contains(t, out.String(), `invalid response "x": not a number`)
}

func TestTerminal_DrivesSession(t *testing.T) {
	series := schema.Series{Key: schema.SessionKey{Participant: "SMB3", Day: "day1"}}
	for i := range 300 {
		cadence := 40.0
		if i >= 150 {
			cadence = 90.0
		}
		series.Rows = append(series.Rows, schema.Observation{ElapsedSecond: i, Cadence: cadence, Power: 100})
	}
	sess, err := core.NewSession(series, core.SessionOptions{})
	require.NoError(t, err)

	var out bytes.Buffer
	term := NewTerminal(strings.NewReader("bogus\n99\nstop\n"), &out, &contract.Config{Precision: 1})
	state, err := core.RunSession(context.Background(), sess, term, nil)
	require.NoError(t, err)

	assert.Equal(t, schema.PhaseFinalized, state.Phase)
	require.NotNil(t, state.Result)
	assert.Equal(t, 300, state.Result.Final.Len())
	assert.Equal(t, 2, strings.Count(out.String(), "⚠️"))
}

func TestTerminal_EndOfInputSuspends(t *testing.T) {
	series := schema.Series{Key: schema.SessionKey{Participant: "SMB3", Day: "day1"}}
	for i := range 200 {
		series.Rows = append(series.Rows, schema.Observation{ElapsedSecond: i, Cadence: float64(i % 7)})
	}
	sess, err := core.NewSession(series, core.SessionOptions{})
	require.NoError(t, err)

	state, err := core.RunSession(context.Background(), sess, NewTerminal(strings.NewReader(""), io.Discard, &contract.Config{}), nil)
	require.NoError(t, err)
	assert.Equal(t, schema.PhaseAwaitingChoice, state.Phase)
}
