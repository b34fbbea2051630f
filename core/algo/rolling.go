package algo

import "math"

// RollingDiff returns diff[i] = values[i] - values[i-window].
// The first window entries have no predecessor and are filled with 0.
func RollingDiff(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 0 {
		return out
	}
	for i := window; i < len(values); i++ {
		out[i] = values[i] - values[i-window]
	}
	return out
}

// RoundAll rounds every value to the nearest integer, halves to even.
func RoundAll(values []float64) []int {
	out := make([]int, len(values))
	for i, v := range values {
		out[i] = int(math.RoundToEven(v))
	}
	return out
}

// EqualMask marks every position whose value equals target.
func EqualMask(values []int, target int) []bool {
	mask := make([]bool, len(values))
	for i, v := range values {
		mask[i] = v == target
	}
	return mask
}
