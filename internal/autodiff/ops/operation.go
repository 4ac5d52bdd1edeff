// Package ops defines the differentiable operations recorded by the autodiff tape.
//
// Each operation implements the Operation interface:
//   - Forward pass: computed by the backend, the op only keeps references
//   - Backward pass: computes input gradients from the output gradient
//
// Every Backward is written in terms of tensor.Backend calls only. Given a plain
// backend it computes numbers; given the autodiff backend with recording on, the
// gradient computation is itself recorded, which is what makes gradients of
// gradients (double backpropagation) possible.
//
// Tensors created inside Backward without going through the backend (masks,
// one-hot targets, zero fills) are constants of the graph.
package ops

import "github.com/born-ml/gradalign/internal/tensor"

// Operation represents a differentiable operation in the computation graph.
type Operation interface {
	// Backward computes gradients for inputs given the output gradient.
	// Returns one gradient per input, nil where the input is not differentiable.
	//
	// Example for AddOp:
	//   inputs: [a, b]
	//   outputGrad: dL/d(a+b)
	//   returns: [dL/d(a+b), dL/d(a+b)]
	Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor

	// Inputs returns the input tensors for this operation.
	Inputs() []*tensor.RawTensor

	// Output returns the output tensor produced by this operation.
	Output() *tensor.RawTensor
}

// node holds the tensors shared by every operation.
type node struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

func newNode(output *tensor.RawTensor, inputs ...*tensor.RawTensor) node {
	return node{inputs: inputs, output: output}
}

// Inputs returns the input tensors.
func (n *node) Inputs() []*tensor.RawTensor {
	return n.inputs
}

// Output returns the output tensor.
func (n *node) Output() *tensor.RawTensor {
	return n.output
}
