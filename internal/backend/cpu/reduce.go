package cpu

import (
	"fmt"

	"github.com/born-ml/gradalign/internal/tensor"
)

// Sum reduces all elements to a scalar. Accumulation runs in float64.
func (cpu *CPUBackend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	if !x.DType().IsFloat() {
		panic(fmt.Sprintf("sum: unsupported dtype %s", x.DType()))
	}

	var total float64
	for _, v := range x.Float64s() {
		total += v
	}

	result := tensor.MustNewRaw(tensor.Shape{}, x.DType(), cpu.device)
	result.Fill(total)
	return result
}

// SumDim sums along dim. With keepDim the reduced dimension stays with size 1,
// otherwise it is removed.
func (cpu *CPUBackend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	if !x.DType().IsFloat() {
		panic(fmt.Sprintf("sumDim: unsupported dtype %s", x.DType()))
	}

	shape := x.Shape()
	dim = shape.NormalizeDim(dim)
	outer, size, inner := shape.Split(dim)

	acc := make([]float64, outer*inner)
	in := x.Float64s()
	for o := 0; o < outer; o++ {
		for s := 0; s < size; s++ {
			base := (o*size + s) * inner
			for i := 0; i < inner; i++ {
				acc[o*inner+i] += in[base+i]
			}
		}
	}

	result := tensor.MustNewRaw(reducedShape(shape, dim, keepDim), x.DType(), cpu.device)
	storeFloat64s(result, acc)
	return result
}

// reducedShape returns shape with dim reduced to 1 (keepDim) or removed.
func reducedShape(shape tensor.Shape, dim int, keepDim bool) tensor.Shape {
	if keepDim {
		out := shape.Clone()
		out[dim] = 1
		return out
	}
	out := make(tensor.Shape, 0, len(shape)-1)
	out = append(out, shape[:dim]...)
	return append(out, shape[dim+1:]...)
}

// storeFloat64s writes values into a float tensor, converting to its dtype.
func storeFloat64s(dst *tensor.RawTensor, values []float64) {
	switch dst.DType() {
	case tensor.Float32:
		out := dst.AsFloat32()
		for i, v := range values {
			out[i] = float32(v)
		}
	case tensor.Float64:
		copy(dst.AsFloat64(), values)
	default:
		panic(fmt.Sprintf("storeFloat64s: unsupported dtype %s", dst.DType()))
	}
}
