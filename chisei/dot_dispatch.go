//go:build !goexperiment.simd || !amd64

package chisei

var dotProduct = dotProductScalar
