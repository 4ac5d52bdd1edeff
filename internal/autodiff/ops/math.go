package ops

import "github.com/born-ml/gradalign/internal/tensor"

// ExpOp represents output = exp(x).
//
// Backward: grad_x = outputGrad * exp(x) = outputGrad * output.
type ExpOp struct{ node }

// NewExpOp creates a new ExpOp.
func NewExpOp(x, output *tensor.RawTensor) *ExpOp {
	return &ExpOp{newNode(output, x)}
}

// Backward computes the input gradient for exp.
func (op *ExpOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Mul(outputGrad, op.output)}
}

// LogOp represents output = log(x).
//
// Backward: grad_x = outputGrad / x.
type LogOp struct{ node }

// NewLogOp creates a new LogOp.
func NewLogOp(x, output *tensor.RawTensor) *LogOp {
	return &LogOp{newNode(output, x)}
}

// Backward computes the input gradient for log.
func (op *LogOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Div(outputGrad, op.inputs[0])}
}

// SqrtOp represents output = sqrt(x).
//
// Backward: grad_x = outputGrad / (2 * sqrt(x)).
type SqrtOp struct{ node }

// NewSqrtOp creates a new SqrtOp.
func NewSqrtOp(x, output *tensor.RawTensor) *SqrtOp {
	return &SqrtOp{newNode(output, x)}
}

// Backward computes the input gradient for sqrt.
func (op *SqrtOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Div(outputGrad, backend.MulScalar(op.output, 2))}
}

// SignOp represents output = sign(x). The function is piecewise constant, so
// its gradient is zero everywhere it is defined.
type SignOp struct{ node }

// NewSignOp creates a new SignOp.
func NewSignOp(x, output *tensor.RawTensor) *SignOp {
	return &SignOp{newNode(output, x)}
}

// Backward returns a zero gradient.
func (op *SignOp) Backward(_ *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{zerosLike(op.inputs[0])}
}

// ClampOp represents output = min(max(x, lo), hi).
//
// Backward: the gradient passes where lo <= x <= hi and is zero elsewhere.
type ClampOp struct {
	node
	lo, hi float64
}

// NewClampOp creates a new ClampOp.
func NewClampOp(x, output *tensor.RawTensor, lo, hi float64) *ClampOp {
	return &ClampOp{node: newNode(output, x), lo: lo, hi: hi}
}

// Backward computes the input gradient for clamp.
func (op *ClampOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	mask := constant(op.inputs[0], func(v float64) float64 {
		if v >= op.lo && v <= op.hi {
			return 1
		}
		return 0
	})
	return []*tensor.RawTensor{backend.Mul(outputGrad, mask)}
}
