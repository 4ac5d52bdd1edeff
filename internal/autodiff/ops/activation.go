package ops

import "github.com/born-ml/gradalign/internal/tensor"

// ReLUOp represents the ReLU activation: output = max(0, x).
//
// Backward: grad_x = outputGrad where x > 0, 0 elsewhere.
type ReLUOp struct{ node }

// NewReLUOp creates a new ReLUOp.
func NewReLUOp(x, output *tensor.RawTensor) *ReLUOp {
	return &ReLUOp{newNode(output, x)}
}

// Backward computes the input gradient for ReLU.
func (op *ReLUOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	mask := constant(op.inputs[0], func(v float64) float64 {
		if v > 0 {
			return 1
		}
		return 0
	})
	return []*tensor.RawTensor{backend.Mul(outputGrad, mask)}
}

// SoftmaxOp represents softmax along the last dimension.
//
// For s = softmax(x):
//
//	grad_x = s * (outputGrad - sum(outputGrad * s, dim=-1, keepdim=true))
type SoftmaxOp struct{ node }

// NewSoftmaxOp creates a new SoftmaxOp.
func NewSoftmaxOp(x, output *tensor.RawTensor) *SoftmaxOp {
	return &SoftmaxOp{newNode(output, x)}
}

// Backward computes the input gradient for softmax.
func (op *SoftmaxOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	s := op.output
	dot := backend.SumDim(backend.Mul(outputGrad, s), -1, true)
	return []*tensor.RawTensor{backend.Mul(s, backend.Sub(outputGrad, dot))}
}
