package utils

import "math"

const (
	NODETOL = 1.e-12
)

// AlmostEqual compares with a relative tolerance scaled to the larger operand
func AlmostEqual(a, b float64) bool {
	scale := math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
	return math.Abs(a-b) <= 10*NODETOL*scale
}
