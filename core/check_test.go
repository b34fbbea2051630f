package core

import (
	"testing"

	"github.com/dynbike/dynbike/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckSequence(t *testing.T) {
	c := CheckSequence(seriesFrom("SMB1_day1", 5, make([]float64, 5)))
	assert.True(t, c.Sequential)
	assert.Equal(t, 5, c.FirstSec)
	assert.Equal(t, 9, c.LastSec)
	assert.Equal(t, 5, c.Rows)

	gap := seriesFrom("SMB1_day1", 5, make([]float64, 5))
	gap.Rows = append(gap.Rows[:2], gap.Rows[3:]...)
	c = CheckSequence(gap)
	assert.False(t, c.Sequential)
	assert.Equal(t, 4, c.Rows)

	c = CheckSequence(seriesFrom("P1", 0, nil))
	assert.True(t, c.Sequential)
	assert.Zero(t, c.Rows)
}

func TestCheckSequences_FiltersFirst(t *testing.T) {
	checks := CheckSequences([]schema.Series{
		seriesFrom("SMB1_day1", 0, []float64{10, 20, 30}),
		seriesFrom("SMB2_day1", 0, []float64{10, 500, 30}),
		seriesFrom("SMB3_day1", 0, []float64{10, 20, 500}),
	}, DefaultCadenceBounds())

	require.Len(t, checks, 3)
	assert.True(t, checks[0].Sequential)
	assert.False(t, checks[1].Sequential, "an interior drop leaves a gap")
	assert.True(t, checks[2].Sequential, "a trailing drop does not")
}
