package ops

import "github.com/born-ml/gradalign/internal/tensor"

// SumOp represents a total sum: output = sum(x), a scalar.
//
// Backward broadcasts the scalar gradient back to the input shape.
type SumOp struct{ node }

// NewSumOp creates a new SumOp.
func NewSumOp(x, output *tensor.RawTensor) *SumOp {
	return &SumOp{newNode(output, x)}
}

// Backward computes the input gradient for sum.
func (op *SumOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	x := op.inputs[0]
	return []*tensor.RawTensor{backend.Mul(ones(x.Shape(), x.DType(), x.Device()), outputGrad)}
}

// SumDimOp represents a sum along one dimension.
type SumDimOp struct {
	node
	dim     int
	keepDim bool
}

// NewSumDimOp creates a new SumDimOp. dim must already be normalized.
func NewSumDimOp(x, output *tensor.RawTensor, dim int, keepDim bool) *SumDimOp {
	return &SumDimOp{node: newNode(output, x), dim: dim, keepDim: keepDim}
}

// Backward computes the input gradient for a dimension sum.
func (op *SumDimOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	x := op.inputs[0]
	grad := outputGrad
	if !op.keepDim {
		grad = backend.Reshape(grad, keepDimShape(x.Shape(), op.dim))
	}
	return []*tensor.RawTensor{backend.Mul(ones(x.Shape(), x.DType(), x.Device()), grad)}
}
