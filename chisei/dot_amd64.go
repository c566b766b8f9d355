//go:build goexperiment.simd && amd64

package chisei

import (
	"simd"

	"github.com/klauspost/cpuid/v2"
)

var dotProduct = dotProductScalar

func init() {
	if cpuid.CPU.Supports(cpuid.AVX2, cpuid.FMA3) {
		dotProduct = dotProductSIMD
	}
}

func dotProductSIMD(x, y []float64) float64 {
	var (
		s0, s1, s2, s3 simd.Float64x4
	)

	// Keep slice indexing constant where possible; the bounds-check
	// elimination pass reasons well about constants and == comparisons.
	for len(x) >= 16 && len(y) >= 16 {
		x3 := simd.LoadFloat64x4Slice(x[12:])
		x2 := simd.LoadFloat64x4Slice(x[8:])
		x1 := simd.LoadFloat64x4Slice(x[4:])
		x0 := simd.LoadFloat64x4Slice(x[:])
		x = x[16:]
		y3 := simd.LoadFloat64x4Slice(y[12:])
		y2 := simd.LoadFloat64x4Slice(y[8:])
		y1 := simd.LoadFloat64x4Slice(y[4:])
		y0 := simd.LoadFloat64x4Slice(y[:])
		y = y[16:]

		s0 = x0.MulAdd(y0, s0)
		s1 = x1.MulAdd(y1, s1)
		s2 = x2.MulAdd(y2, s2)
		s3 = x3.MulAdd(y3, s3)
	}

	// Handle remaining full lanes of four doubles.
	for len(x) >= 4 && len(y) >= 4 {
		x0 := simd.LoadFloat64x4Slice(x[:])
		y0 := simd.LoadFloat64x4Slice(y[:])
		s0 = x0.MulAdd(y0, s0)
		x = x[4:]
		y = y[4:]
	}

	// Reduce to one value.
	s0 = s0.Add(s1).Add(s2.Add(s3))
	low, high := s0.GetLo(), s0.GetHi()
	sum2 := low.Add(high)
	sum := sum2.GetElem(0) + sum2.GetElem(1)

	// Scalar tail of less than one lane.
	if len(x) == len(y) {
		for i := range len(x) {
			sum += x[i] * y[i]
		}
	}

	return sum
}
