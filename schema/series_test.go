package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRawID(t *testing.T) {
	tests := []struct {
		raw       string
		want      string
		recording int
		wantErr   bool
	}{
		{"SMB_024_day1_02", "SMB024_day1", 2, false},
		{"SMB_024_day1", "SMB024_day1", 0, false},
		{"smb_7_DAY3_11", "SMB7_day3", 11, false},
		{"SMB024_day2_01", "SMB024_day2", 1, false}, // already compacted participant
		{"  SMB_001_day1_01  ", "SMB001_day1", 1, false},
		{"", "", 0, true},
		{"garbage", "", 0, true},
		{"SMB_024_night1_02", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			key, rec, err := ParseRawID(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, key.String())
			assert.Equal(t, tt.recording, rec)
		})
	}
}

func TestParseSessionKey(t *testing.T) {
	assert.Equal(t, SessionKey{Participant: "SMB024", Day: "day1"}, ParseSessionKey("SMB024_day1"))
	assert.Equal(t, SessionKey{Participant: "SMB024", Day: "day1"}, ParseSessionKey("SMB_024_day1_02"))
	assert.Equal(t, SessionKey{Participant: "ride-42"}, ParseSessionKey("ride-42"))
	assert.Equal(t, "ride-42", ParseSessionKey("ride-42").String())
}

func buildSeries(secs ...int) Series {
	rows := make([]Observation, len(secs))
	for i, s := range secs {
		rows[i] = Observation{ElapsedSecond: s, Cadence: float64(s * 2), Power: float64(s), HeartRate: 100 + s}
	}
	return Series{Key: SessionKey{Participant: "P1", Day: "day1"}, Rows: rows}
}

func TestSeries_IndexOfSecond(t *testing.T) {
	s := buildSeries(10, 11, 12, 12, 13)

	idx, ok := s.IndexOfSecond(12)
	assert.True(t, ok)
	assert.Equal(t, 2, idx, "first match wins")

	_, ok = s.IndexOfSecond(99)
	assert.False(t, ok)
}

func TestSeries_SliceCopies(t *testing.T) {
	s := buildSeries(0, 1, 2, 3)
	sub := s.Slice(1, 3)
	require.Equal(t, 2, sub.Len())
	assert.Equal(t, []int{1, 2}, sub.ElapsedSeconds())
	assert.Equal(t, s.Key, sub.Key)

	sub.Rows[0].Cadence = -1
	assert.Equal(t, 2.0, s.Rows[1].Cadence, "slice must not alias the parent")
}

func TestSeries_Values(t *testing.T) {
	s := buildSeries(1, 2)
	assert.Equal(t, []float64{2, 4}, s.Values(CadenceColumn))
	assert.Equal(t, []float64{1, 2}, s.Values(PowerColumn))
	assert.Equal(t, []float64{101, 102}, s.Values(HeartRateColumn))
}

func TestPiecewiseModel_Segment(t *testing.T) {
	m := PiecewiseModel{Segments: []Segment{{StartT: 0, EndT: 9, SSE: 1}, {StartT: 10, EndT: 19, SSE: 2}}}

	seg, ok := m.Segment(2)
	assert.True(t, ok)
	assert.Equal(t, 10, seg.StartT)

	_, ok = m.Segment(0)
	assert.False(t, ok)
	_, ok = m.Segment(3)
	assert.False(t, ok)
	assert.Equal(t, 3.0, m.TotalSSE())
}

func TestSessionPhase_IsTerminal(t *testing.T) {
	assert.False(t, PhaseAwaitingFit.IsTerminal())
	assert.False(t, PhaseAwaitingChoice.IsTerminal())
	assert.True(t, PhaseFinalized.IsTerminal())
	assert.True(t, PhaseSplit.IsTerminal())
	assert.True(t, PhaseAbandoned.IsTerminal())
}
