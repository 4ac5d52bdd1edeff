package cpu

import (
	"fmt"

	"github.com/born-ml/gradalign/internal/parallel"
	"github.com/born-ml/gradalign/internal/tensor"
)

// binary dispatches an element-wise binary kernel on dtype and handles broadcasting.
func (cpu *CPUBackend) binary(
	name string,
	a, b *tensor.RawTensor,
	f32 func(x, y float32) float32,
	f64 func(x, y float64) float64,
	i32 func(x, y int32) int32,
) *tensor.RawTensor {
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("%s: dtype mismatch %s vs %s", name, a.DType(), b.DType()))
	}

	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	result := tensor.MustNewRaw(outShape, a.DType(), cpu.device)

	switch a.DType() {
	case tensor.Float32:
		applyBinary(cpu.parallel, result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), a.Shape(), b.Shape(), outShape, needsBroadcast, f32)
	case tensor.Float64:
		applyBinary(cpu.parallel, result.AsFloat64(), a.AsFloat64(), b.AsFloat64(), a.Shape(), b.Shape(), outShape, needsBroadcast, f64)
	case tensor.Int32:
		applyBinary(cpu.parallel, result.AsInt32(), a.AsInt32(), b.AsInt32(), a.Shape(), b.Shape(), outShape, needsBroadcast, i32)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, a.DType()))
	}

	return result
}

// applyBinary writes f(a, b) into out, walking broadcast strides when shapes differ.
func applyBinary[T tensor.DType](
	cfg parallel.Config,
	out, a, b []T,
	aShape, bShape, outShape tensor.Shape,
	needsBroadcast bool,
	f func(x, y T) T,
) {
	if !needsBroadcast {
		parallel.Range(len(out), func(start, end int) {
			for i := start; i < end; i++ {
				out[i] = f(a[i], b[i])
			}
		}, cfg)
		return
	}

	aStrides := broadcastStrides(aShape, outShape)
	bStrides := broadcastStrides(bShape, outShape)
	outStrides := outShape.ComputeStrides()

	parallel.Range(len(out), func(start, end int) {
		for i := start; i < end; i++ {
			aIdx, bIdx := 0, 0
			rem := i
			for d := range outShape {
				coord := rem / outStrides[d]
				rem %= outStrides[d]
				aIdx += coord * aStrides[d]
				bIdx += coord * bStrides[d]
			}
			out[i] = f(a[aIdx], b[bIdx])
		}
	}, cfg)
}

// broadcastStrides returns strides of shape aligned to outShape, with 0 on every
// dimension that is broadcast (missing or of size 1).
func broadcastStrides(shape, outShape tensor.Shape) []int {
	strides := make([]int, len(outShape))
	src := shape.ComputeStrides()
	offset := len(outShape) - len(shape)
	for i, dim := range shape {
		if dim != 1 {
			strides[i+offset] = src[i]
		}
	}
	return strides
}

// unary applies a float kernel element-wise.
func (cpu *CPUBackend) unary(
	name string,
	x *tensor.RawTensor,
	f32 func(v float32) float32,
	f64 func(v float64) float64,
) *tensor.RawTensor {
	result := tensor.MustNewRaw(x.Shape(), x.DType(), cpu.device)

	switch x.DType() {
	case tensor.Float32:
		applyUnary(cpu.parallel, result.AsFloat32(), x.AsFloat32(), f32)
	case tensor.Float64:
		applyUnary(cpu.parallel, result.AsFloat64(), x.AsFloat64(), f64)
	default:
		panic(fmt.Sprintf("%s: only supports float32 and float64, got %s", name, x.DType()))
	}

	return result
}

func applyUnary[T tensor.DType](cfg parallel.Config, out, in []T, f func(v T) T) {
	parallel.Range(len(out), func(start, end int) {
		for i := start; i < end; i++ {
			out[i] = f(in[i])
		}
	}, cfg)
}
