package chisei

import "gonum.org/v1/gonum/floats"

// DotProduct returns the inner product of a and b.
//
// On amd64 builds with the simd experiment enabled, and when the CPU
// supports AVX2 and FMA, the sum is accumulated in four-double lanes
// with fused multiply-adds and reduced at the end; remaining elements go
// through a scalar tail loop.  All other builds use the scalar path.
// The two paths may differ by ordinary floating-point reassociation.
func DotProduct(a, b []float64) float64 {
	if len(a) != len(b) {
		panic("chisei: DotProduct arguments have mismatched lengths")
	}
	return dotProduct(a, b)
}

func dotProductScalar(a, b []float64) float64 {
	return floats.Dot(a, b)
}
