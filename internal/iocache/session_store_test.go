package iocache

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/dynbike/dynbike/internal/contract"
	"github.com/dynbike/dynbike/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSessionStore(t *testing.T) contract.SessionStore {
	t.Helper()
	store, err := NewSessionStore(sessionsTable, schema.SQLiteBackend, filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleState(id string, phase schema.SessionPhase, updated time.Time) *schema.SessionState {
	return &schema.SessionState{
		ID:    id,
		Key:   schema.SessionKey{Participant: "SMB7", Day: "day2"},
		Side:  schema.LeftSide,
		Phase: phase,
		Current: schema.Series{
			Key: schema.SessionKey{Participant: "SMB7", Day: "day2"},
			Rows: []schema.Observation{
				{ElapsedSecond: 10, Cadence: 60, Power: 120, HeartRate: 100},
				{ElapsedSecond: 11, Cadence: math.NaN(), Power: 0, HeartRate: 101},
				{ElapsedSecond: 12, Cadence: 62, Power: 124, HeartRate: 102},
			},
		},
		Model: &schema.PiecewiseModel{Segments: []schema.Segment{
			{StartT: 10, EndT: 12, Slope: 1, Intercept: 50, Rows: 3},
		}},
		History: []schema.DecisionEntry{
			{Decision: schema.Decision{Kind: schema.DecideCut, Segment: 2}, RowsBefore: 9, RowsAfter: 3, AppliedAt: updated},
		},
		Dropped:   1,
		CreatedAt: updated.Add(-time.Minute),
		UpdatedAt: updated,
	}
}

func TestSessionStore_NoneBackend(t *testing.T) {
	store, err := NewSessionStore(sessionsTable, schema.NoneBackend, "")
	require.NoError(t, err)

	_, err = store.Get("anything")
	assert.ErrorIs(t, err, contract.ErrSessionNotFound)
	assert.NoError(t, store.Put(sampleState("a", schema.PhaseAwaitingChoice, time.Now())))
	assert.NoError(t, store.Delete("a"))

	list, err := store.List()
	assert.NoError(t, err)
	assert.Empty(t, list)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.False(t, status.Connected)
	assert.NoError(t, store.Close())
}

func TestSessionStore_InvalidTableName(t *testing.T) {
	_, err := NewSessionStore("sessions; DROP TABLE x", schema.SQLiteBackend, ":memory:")
	assert.Error(t, err)
}

func TestSessionStore_PutGetRoundTrip(t *testing.T) {
	store := newTestSessionStore(t)
	now := time.Now()
	state := sampleState("s-1", schema.PhaseAwaitingChoice, now)

	require.NoError(t, store.Put(state))

	got, err := store.Get("s-1")
	require.NoError(t, err)
	assert.Equal(t, state.ID, got.ID)
	assert.Equal(t, state.Key, got.Key)
	assert.Equal(t, state.Side, got.Side)
	assert.Equal(t, state.Phase, got.Phase)
	assert.Equal(t, state.Dropped, got.Dropped)
	require.Equal(t, 3, got.Current.Len())
	assert.Equal(t, 10, got.Current.Rows[0].ElapsedSecond)
	assert.True(t, math.IsNaN(got.Current.Rows[1].Cadence))
	require.NotNil(t, got.Model)
	assert.Equal(t, state.Model.Segments, got.Model.Segments)
	require.Len(t, got.History, 1)
	assert.Equal(t, schema.DecideCut, got.History[0].Decision.Kind)
	assert.True(t, state.UpdatedAt.Equal(got.UpdatedAt))
}

func TestSessionStore_PutReplaces(t *testing.T) {
	store := newTestSessionStore(t)
	now := time.Now()
	state := sampleState("s-1", schema.PhaseAwaitingChoice, now)
	require.NoError(t, store.Put(state))

	state.Phase = schema.PhaseFinalized
	state.Current = state.Current.Slice(0, 1)
	state.UpdatedAt = now.Add(time.Second)
	require.NoError(t, store.Put(state))

	got, err := store.Get("s-1")
	require.NoError(t, err)
	assert.Equal(t, schema.PhaseFinalized, got.Phase)
	assert.Equal(t, 1, got.Current.Len())

	list, err := store.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].Rows)
}

func TestSessionStore_GetMissing(t *testing.T) {
	store := newTestSessionStore(t)
	_, err := store.Get("missing")
	assert.ErrorIs(t, err, contract.ErrSessionNotFound)
}

func TestSessionStore_PutWithoutID(t *testing.T) {
	store := newTestSessionStore(t)
	assert.Error(t, store.Put(&schema.SessionState{}))
	assert.Error(t, store.Put(nil))
}

func TestSessionStore_ListOrderAndDelete(t *testing.T) {
	store := newTestSessionStore(t)
	base := time.Now()
	require.NoError(t, store.Put(sampleState("old", schema.PhaseFinalized, base.Add(-time.Hour))))
	require.NoError(t, store.Put(sampleState("new", schema.PhaseAwaitingChoice, base)))

	list, err := store.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].ID)
	assert.Equal(t, "old", list[1].ID)
	assert.Equal(t, "SMB7_day2", list[0].Key)
	assert.Equal(t, schema.PhaseAwaitingChoice, list[0].Phase)

	// Listed rows match the state's own summary, up to the stored millisecond precision.
	want := sampleState("new", schema.PhaseAwaitingChoice, base).Summary()
	assert.Equal(t, want.Side, list[0].Side)
	assert.Equal(t, want.Rows, list[0].Rows)
	assert.WithinDuration(t, want.UpdatedAt, list[0].UpdatedAt, time.Millisecond)

	require.NoError(t, store.Delete("old"))
	require.NoError(t, store.Delete("old"), "deleting a missing ID is not an error")

	list, err = store.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "new", list[0].ID)
}

func TestSessionStore_GetStatus(t *testing.T) {
	store := newTestSessionStore(t)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Equal(t, 0, status.TotalSessions)

	base := time.Now()
	require.NoError(t, store.Put(sampleState("a", schema.PhaseAwaitingChoice, base)))
	require.NoError(t, store.Put(sampleState("b", schema.PhaseAwaitingChoice, base.Add(time.Second))))
	require.NoError(t, store.Put(sampleState("c", schema.PhaseSplit, base.Add(2*time.Second))))

	status, err = store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", status.Backend)
	assert.Equal(t, 3, status.TotalSessions)
	assert.Equal(t, 2, status.ByPhase[schema.PhaseAwaitingChoice])
	assert.Equal(t, 1, status.ByPhase[schema.PhaseSplit])
	assert.Equal(t, base.Add(2*time.Second).UnixMilli(), status.LastUpdateTime.UnixMilli())
	assert.Greater(t, status.TableSizeBytes, int64(0))
}

func TestDecodeState_RejectsUnknownVersion(t *testing.T) {
	blob, err := encodeState(sampleState("v", schema.PhaseAwaitingFit, time.Now()))
	require.NoError(t, err)

	_, err = decodeState(blob, stateBlobVersion+1)
	assert.Error(t, err)

	got, err := decodeState(blob, stateBlobVersion)
	require.NoError(t, err)
	assert.Equal(t, "v", got.ID)
}
