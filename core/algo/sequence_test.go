package algo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSequential(t *testing.T) {
	tests := []struct {
		name   string
		values []int
		want   bool
	}{
		{"empty", nil, true},
		{"single", []int{42}, true},
		{"from zero", []int{0, 1, 2, 3}, true},
		{"from offset", []int{2000, 2001, 2002}, true},
		{"gap", []int{0, 1, 3}, false},
		{"repeat", []int{5, 5, 6}, false},
		{"descending", []int{3, 2, 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSequential(tt.values))
		})
	}
}

func TestIsSequential_Floats(t *testing.T) {
	assert.True(t, IsSequential([]float64{10, 11, 12}))
	assert.False(t, IsSequential([]float64{10, 11.5, 12}))
}

// FuzzIsSequential checks that any range built by counting up is sequential and that
// bumping one element breaks it.
func FuzzIsSequential(f *testing.F) {
	f.Add(0, 5, 2)
	f.Add(-100, 300, 150)
	f.Add(2000, 1, 0)

	f.Fuzz(func(t *testing.T, start, n, bump int) {
		if n < 0 || n > 2000 {
			return
		}
		values := make([]int, n)
		for i := range values {
			values[i] = start + i
		}
		if !IsSequential(values) {
			t.Fatalf("counting range from %d of len %d reported non-sequential", start, n)
		}
		if n < 2 || bump <= 0 || bump >= n {
			return
		}
		values[bump]++
		if IsSequential(values) {
			t.Fatalf("bumped index %d still reported sequential", bump)
		}
	})
}
