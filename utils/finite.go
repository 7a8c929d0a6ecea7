package utils

import "math"

// Finite reports whether every value is neither NaN nor an infinity.
func Finite(fs ...float64) bool {
	for _, f := range fs {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
