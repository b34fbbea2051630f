// Package algo holds the numeric building blocks of session trimming and segmentation.
package algo

import "golang.org/x/exp/constraints"

// Number is any integer or floating-point element type.
type Number interface {
	constraints.Integer | constraints.Float
}

// IsSequential reports whether values[i] == values[0]+i for every i.
// Empty and single-element inputs are sequential.
func IsSequential[T Number](values []T) bool {
	if len(values) < 2 {
		return true
	}
	first := values[0]
	for i := 1; i < len(values); i++ {
		if values[i] != first+T(i) {
			return false
		}
	}
	return true
}
