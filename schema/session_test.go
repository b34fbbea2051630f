package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionState_Summary(t *testing.T) {
	updated := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)
	key := SessionKey{Participant: "SMB024", Day: "day1"}
	state := &SessionState{
		ID:    "abc",
		Key:   key,
		Side:  RightSide,
		Phase: PhaseSplit,
		Current: Series{Key: key, Rows: []Observation{
			{ElapsedSecond: 0}, {ElapsedSecond: 1}, {ElapsedSecond: 2},
		}},
		UpdatedAt: updated,
	}

	assert.Equal(t, SessionSummary{
		ID:        "abc",
		Key:       "SMB024_day1",
		Side:      RightSide,
		Phase:     PhaseSplit,
		Rows:      3,
		UpdatedAt: updated,
	}, state.Summary())
}
