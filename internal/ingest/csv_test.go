package ingest

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/dynbike/dynbike/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rawCSV = `Date,Time,Millitm,HR,Cadence,Power,ID
2019-03-04,10:00:00,0,101,80,120,SMB_024_day1_02
2019-03-04,10:00:01,0,102,81,,SMB_024_day1_02
2019-03-05,09:30:00,0,95,,40,SMB_031_day2_01
2019-03-04,10:00:02,0,103,82,125,SMB_024_day1_02

2019-03-05,09:30:01,0,96,300,42,SMB_031_day2_01
`

func TestReadCSV_Raw(t *testing.T) {
	series, err := ReadCSV(strings.NewReader(rawCSV))
	require.NoError(t, err)
	require.Len(t, series, 2)

	a := series[0]
	assert.Equal(t, "SMB024_day1", a.Key.String())
	require.Equal(t, 3, a.Len())
	assert.Equal(t, []int{0, 1, 2}, a.ElapsedSeconds())
	assert.Equal(t, []float64{80, 81, 82}, a.Values(schema.CadenceColumn))
	assert.Equal(t, 0.0, a.Rows[1].Power, "blank power reads as zero")
	assert.Equal(t, 103, a.Rows[2].HeartRate)
	assert.Equal(t, time.Date(2019, 3, 4, 10, 0, 2, 0, time.UTC), a.Rows[2].Timestamp)

	b := series[1]
	assert.Equal(t, "SMB031_day2", b.Key.String())
	require.Equal(t, 2, b.Len())
	assert.True(t, math.IsNaN(b.Rows[0].Cadence), "blank cadence reads as NaN")
	assert.Equal(t, 300.0, b.Rows[1].Cadence)
}

func TestReadCSV_HeadersCaseInsensitive(t *testing.T) {
	in := "date,TIME,hr,CADENCE,power,Id\n3/4/2019,10:00:00,90,70,100,smb_7_Day3\n"
	series, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, "SMB7_day3", series[0].Key.String())
	assert.Equal(t, time.Date(2019, 3, 4, 10, 0, 0, 0, time.UTC), series[0].Rows[0].Timestamp)
}

func TestReadCSV_Clean(t *testing.T) {
	in := "id_sess,elapsed_sec,cadence,power,hr\n" +
		"SMB024_day1,10,60.5,100,120\n" +
		"SMB024_day1,11.0,61,101,121\n" +
		"SMB024_day1,13,62,102,122\n"
	series, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, schema.SessionKey{Participant: "SMB024", Day: "day1"}, series[0].Key)
	assert.Equal(t, []int{10, 11, 13}, series[0].ElapsedSeconds())
	assert.Equal(t, 60.5, series[0].Rows[0].Cadence)
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"unknown columns", "a,b,c\n1,2,3\n"},
		{"bad id", "Date,Time,HR,Cadence,Power,ID\n2019-03-04,10:00:00,1,2,3,nobody\n"},
		{"bad cadence", "Date,Time,HR,Cadence,Power,ID\n2019-03-04,10:00:00,1,fast,3,SMB_001_day1\n"},
		{"bad elapsed", "id_sess,elapsed_sec,cadence,power,hr\nP1_day1,soon,1,2,3\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.in))
			assert.Error(t, err)
		})
	}

	_, err := ReadCSV(strings.NewReader("a,b\n"))
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestReadCSV_Empty(t *testing.T) {
	series, err := ReadCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, series)
}
