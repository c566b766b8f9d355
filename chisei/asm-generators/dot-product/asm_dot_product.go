package main

import (
	. "github.com/mmcloughlin/avo/build"
	. "github.com/mmcloughlin/avo/operand"
	. "github.com/mmcloughlin/avo/reg"
)

var unroll = 6

// Generates an AVX2+FMA dot product over float64 slices, accumulating
// four-double lanes with VFMADD231PD and reducing at the end.  The
// goexperiment.simd implementation in dot_amd64.go is the one the
// library ships; this generator is kept for building the equivalent
// kernel on toolchains without the simd experiment.
func main() {
	TEXT("dotProductFMA", NOSPLIT,
		"func(n int, x []float64, y []float64) float64")

	n := Load(Param("n"), GP64())
	xPtr := Load(Param("x").Base(), GP64())
	yPtr := Load(Param("y").Base(), GP64())

	// Allocate and zero the accumulation registers.
	acc := make([]VecVirtual, unroll)
	for i := 0; i < unroll; i++ {
		acc[i] = YMM()
	}
	for i := 0; i < unroll; i++ {
		VXORPS(acc[i], acc[i], acc[i])
	}

	Comment("Blocked loop over full lanes of four doubles")

	blockitems := 4 * unroll
	blocksize := 8 * blockitems

	Label("blockloop")
	CMPQ(n, U32(blockitems))
	JL(LabelRef("tail"))

	xs := make([]VecVirtual, unroll)
	for i := 0; i < unroll; i++ {
		xs[i] = YMM()
	}
	for i := 0; i < unroll; i++ {
		VMOVUPD(Mem{Base: xPtr}.Offset(32*i), xs[i])
	}
	for i := 0; i < unroll; i++ {
		VFMADD231PD(Mem{Base: yPtr}.Offset(32*i), xs[i], acc[i])
	}

	ADDQ(U32(blocksize), xPtr)
	ADDQ(U32(blocksize), yPtr)
	SUBQ(U32(blockitems), n)
	JMP(LabelRef("blockloop"))

	Comment("Scalar loop over any trailing elements")

	Label("tail")
	tailAccumulator := XMM()
	VXORPS(tailAccumulator, tailAccumulator, tailAccumulator)

	Label("tailloop")
	CMPQ(n, U32(0))
	JE(LabelRef("reduce"))

	tailElement := XMM()
	VMOVSD(Mem{Base: xPtr}, tailElement)
	VFMADD231SD(Mem{Base: yPtr}, tailElement, tailAccumulator)

	ADDQ(U32(8), xPtr)
	ADDQ(U32(8), yPtr)
	DECQ(n)
	JMP(LabelRef("tailloop"))

	Comment("Reduce the lanes to one value")

	Label("reduce")
	for i := 1; i < unroll; i++ {
		VADDPD(acc[0], acc[i], acc[0])
	}

	result := acc[0].AsX()
	top := XMM()
	VEXTRACTF128(U8(1), acc[0], top)
	VADDPD(result, top, result)
	VADDPD(result, tailAccumulator, result)
	VHADDPD(result, result, result)

	Store(result, ReturnIndex(0))

	RET()

	Generate()
}
