package ops

import (
	"github.com/born-ml/gradalign/internal/tensor"
)

// reduceBroadcast reduces a gradient tensor to match the target shape.
// This is necessary when broadcasting was used in the forward pass.
//
// Example:
//
//	Forward: a[3,1] + b[3,4] -> c[3,4]  (a was broadcast along dim 1)
//	Backward: grad_c[3,4] -> grad_a[3,1] (sum along dim 1)
//
// The reduction goes through the backend so it stays on the graph.
func reduceBroadcast(grad *tensor.RawTensor, targetShape tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	if grad.Shape().Equal(targetShape) {
		return grad
	}

	if len(targetShape) == 0 {
		return backend.Sum(grad)
	}

	// Leading dimensions that the target does not have
	for len(grad.Shape()) > len(targetShape) {
		grad = backend.SumDim(grad, 0, false)
	}

	// Dimensions where the target has size 1
	for d, size := range targetShape {
		if size == 1 && grad.Shape()[d] != 1 {
			grad = backend.SumDim(grad, d, true)
		}
	}

	if !grad.Shape().Equal(targetShape) {
		grad = backend.Reshape(grad, targetShape)
	}
	return grad
}

// constant creates a tensor shaped like ref whose values come from f(ref[i]).
// The result is a graph constant.
func constant(ref *tensor.RawTensor, f func(v float64) float64) *tensor.RawTensor {
	out := tensor.MustNewRaw(ref.Shape(), ref.DType(), ref.Device())
	values := ref.Float64s()
	for i, v := range values {
		values[i] = f(v)
	}
	switch out.DType() {
	case tensor.Float32:
		data := out.AsFloat32()
		for i, v := range values {
			data[i] = float32(v)
		}
	case tensor.Float64:
		copy(out.AsFloat64(), values)
	default:
		panic("ops: constants are only supported for float tensors")
	}
	return out
}

// ones creates a float tensor of ones with the given shape and dtype.
func ones(shape tensor.Shape, dtype tensor.DataType, device tensor.Device) *tensor.RawTensor {
	out := tensor.MustNewRaw(shape, dtype, device)
	out.Fill(1)
	return out
}

// zerosLike creates a zero tensor with ref's shape and dtype.
func zerosLike(ref *tensor.RawTensor) *tensor.RawTensor {
	return tensor.MustNewRaw(ref.Shape(), ref.DType(), ref.Device())
}

// keepDimShape returns shape with dim set to 1.
func keepDimShape(shape tensor.Shape, dim int) tensor.Shape {
	out := shape.Clone()
	out[dim] = 1
	return out
}
