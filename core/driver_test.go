package core

import (
	"context"
	"errors"
	"testing"

	"github.com/dynbike/dynbike/internal/iocache"
	"github.com/dynbike/dynbike/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newSession(t *testing.T, side schema.CutSide) *Session {
	t.Helper()
	sess, err := NewSession(threeSegmentSeries(), SessionOptions{Side: side})
	require.NoError(t, err)
	return sess
}

func TestRunSession_CutThenStop(t *testing.T) {
	sess := newSession(t, schema.LeftSide)
	ch := &scriptedChannel{responses: []string{"2", "stop"}}
	store := &iocache.MockSessionStore{}
	store.On("Put", mock.AnythingOfType("*schema.SessionState")).Return(nil)

	state, err := RunSession(context.Background(), sess, ch, store)
	require.NoError(t, err)

	assert.Equal(t, schema.PhaseFinalized, state.Phase)
	require.NotNil(t, state.Result.Final)
	assert.Equal(t, 240, state.Result.Final.Len())
	assert.Equal(t, 120, state.Result.Final.Rows[0].ElapsedSecond)
	assert.Equal(t, 2, state.Result.Model.Len())
	assert.Len(t, state.History, 2)
	assert.Equal(t, []schema.SessionPhase{
		schema.PhaseAwaitingChoice, schema.PhaseAwaitingChoice, schema.PhaseFinalized,
	}, ch.presented)
	// fit, cut, refit, stop
	store.AssertNumberOfCalls(t, "Put", 4)
}

func TestRunSession_InvalidResponseReprompts(t *testing.T) {
	sess := newSession(t, schema.LeftSide)
	ch := &scriptedChannel{responses: []string{"banana", "9", "all"}}

	state, err := RunSession(context.Background(), sess, ch, nil)
	require.NoError(t, err)

	assert.Equal(t, schema.PhaseSplit, state.Phase)
	assert.Len(t, state.Result.Parts, 3)
	require.Len(t, ch.reported, 2)
	for _, r := range ch.reported {
		assert.ErrorIs(t, r, ErrOperatorInput)
	}
}

func TestRunSession_BoundaryErrorReprompts(t *testing.T) {
	sess := newSession(t, schema.LeftSide)
	_, err := sess.Fit()
	require.NoError(t, err)
	sess.State().Model.Segments[2].StartT = -5

	ch := &scriptedChannel{responses: []string{"3", "stop"}}
	state, err := RunSession(context.Background(), sess, ch, nil)
	require.NoError(t, err)

	require.Len(t, ch.reported, 1)
	assert.ErrorIs(t, ch.reported[0], ErrBoundaryResolution)
	assert.Equal(t, schema.PhaseFinalized, state.Phase)
	assert.Equal(t, 360, state.Result.Final.Len())
}

func TestRunSession_EmptyResponseSuspends(t *testing.T) {
	sess := newSession(t, schema.RightSide)
	ch := &scriptedChannel{responses: []string{""}}
	store := &iocache.MockSessionStore{}
	store.On("Put", mock.Anything).Return(nil)

	state, err := RunSession(context.Background(), sess, ch, store)
	require.NoError(t, err)
	assert.Equal(t, schema.PhaseAwaitingChoice, state.Phase)
	assert.NotNil(t, state.Model)
	assert.Nil(t, state.Result)
	store.AssertNumberOfCalls(t, "Put", 2)

	// The suspended state resumes where it left off.
	resumed, err := ResumeSession(state, SessionOptions{})
	require.NoError(t, err)
	state, err = RunSession(context.Background(), resumed, &scriptedChannel{responses: []string{"1"}, awaitErr: errors.New("eof")}, nil)
	require.Error(t, err)
	assert.Equal(t, schema.PhaseAwaitingChoice, state.Phase)
	assert.Equal(t, 120, state.Current.Len())
}

func TestRunSession_CancelledAbandons(t *testing.T) {
	sess := newSession(t, schema.LeftSide)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	state, err := RunSession(ctx, sess, &scriptedChannel{}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, schema.PhaseAbandoned, state.Phase)
}

func TestRunSession_CheckpointFailureDoesNotStop(t *testing.T) {
	sess := newSession(t, schema.LeftSide)
	store := &iocache.MockSessionStore{}
	store.On("Put", mock.Anything).Return(errors.New("disk full"))

	state, err := RunSession(context.Background(), sess, &scriptedChannel{responses: []string{"stop"}}, store)
	require.NoError(t, err)
	assert.Equal(t, schema.PhaseFinalized, state.Phase)
}

func TestRunSession_ClosedSession(t *testing.T) {
	sess := newSession(t, schema.LeftSide)
	_, err := sess.Respond("stop")
	require.NoError(t, err)

	ch := &scriptedChannel{}
	state, err := RunSession(context.Background(), sess, ch, nil)
	require.NoError(t, err)
	assert.Equal(t, schema.PhaseFinalized, state.Phase)
	assert.Equal(t, []schema.SessionPhase{schema.PhaseFinalized}, ch.presented)
}
