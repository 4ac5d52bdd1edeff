package ops

import "github.com/born-ml/gradalign/internal/tensor"

// CrossEntropyOp represents the fused mean softmax cross-entropy of logits
// [batch, classes] against int32 class targets [batch].
//
// Backward with respect to the logits:
//
//	grad_logits = (softmax(logits) - one_hot(targets)) * outputGrad / batch
//
// The softmax is recomputed through the backend so the gradient stays
// differentiable. Targets receive no gradient.
type CrossEntropyOp struct{ node }

// NewCrossEntropyOp creates a new CrossEntropyOp.
func NewCrossEntropyOp(logits, targets, output *tensor.RawTensor) *CrossEntropyOp {
	return &CrossEntropyOp{newNode(output, logits, targets)}
}

// Backward computes the logits gradient.
func (op *CrossEntropyOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	logits, targets := op.inputs[0], op.inputs[1]
	batchSize := logits.Shape()[0]

	probs := backend.Softmax(logits)
	diff := backend.Sub(probs, oneHot(targets, logits))
	scale := backend.MulScalar(outputGrad, 1/float64(batchSize))

	return []*tensor.RawTensor{backend.Mul(diff, scale), nil}
}

// oneHot encodes int32 targets as a constant shaped and typed like logits.
func oneHot(targets, logits *tensor.RawTensor) *tensor.RawTensor {
	out := zerosLike(logits)
	numClasses := logits.Shape()[1]
	values := make([]float64, out.NumElements())
	for b, label := range targets.AsInt32() {
		values[b*numClasses+int(label)] = 1
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
		panic("crossEntropy: logits must be float32 or float64")
	}
	return out
}
