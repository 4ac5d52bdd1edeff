package autodiff

import (
	"fmt"

	"github.com/born-ml/gradalign/internal/autodiff/ops"
	"github.com/born-ml/gradalign/internal/tensor"
)

// GradientTape records operations during the forward pass and computes
// gradients during the backward pass using reverse-mode automatic differentiation.
//
// Usage:
//
//	tape := NewGradientTape()
//	tape.StartRecording()
//	// ... perform operations ...
//	gradients := tape.Backward(output, outputGrad, backend)
//
// Tape order is a topological order of the graph: an operation is always
// recorded after the operations that produced its inputs. Gradient operations
// recorded by a create-graph pass are appended after the forward they
// differentiate, so a later Backward walks through them as well.
type GradientTape struct {
	operations []ops.Operation // Recorded operations (in execution order)
	recording  bool            // Whether tape is currently recording
}

// NewGradientTape creates a new gradient tape.
func NewGradientTape() *GradientTape {
	return &GradientTape{
		operations: make([]ops.Operation, 0, 64),
		recording:  false,
	}
}

// StartRecording enables operation recording.
func (t *GradientTape) StartRecording() {
	t.recording = true
}

// StopRecording disables operation recording.
func (t *GradientTape) StopRecording() {
	t.recording = false
}

// IsRecording returns true if the tape is currently recording operations.
func (t *GradientTape) IsRecording() bool {
	return t.recording
}

// Record adds an operation to the tape.
// Only records if the tape is currently recording.
func (t *GradientTape) Record(op ops.Operation) {
	if t.recording {
		t.operations = append(t.operations, op)
	}
}

// Clear resets the tape, removing all recorded operations.
// Recording state is preserved.
func (t *GradientTape) Clear() {
	clear(t.operations)
	t.operations = t.operations[:0]
}

// NumOps returns the number of recorded operations.
func (t *GradientTape) NumOps() int {
	return len(t.operations)
}

// Backward computes gradients of output with respect to every tensor on the tape.
//
// Algorithm:
//  1. Seed the output with outputGrad (typically ones for a scalar loss)
//  2. Walk operations in reverse order
//  3. For each operation, compute input gradients using chain rule
//  4. Accumulate gradients when the same tensor is used multiple times
//
// Recording is paused while the pass runs, so the gradients are plain values.
// Returns a map from RawTensor to its accumulated gradient.
func (t *GradientTape) Backward(output, outputGrad *tensor.RawTensor, backend tensor.Backend) map[*tensor.RawTensor]*tensor.RawTensor {
	return t.run(output, outputGrad, nil, false, backend)
}

// Grad computes the gradients of output with respect to inputs only.
//
// Only operations that depend on one of the inputs are differentiated. With
// createGraph the tape records the backward computation itself (backend must
// then be the recording autodiff backend), so the returned gradients are
// differentiable functions of the inputs and of everything else they touch.
//
// An input the output does not depend on gets a zero gradient of its shape.
func (t *GradientTape) Grad(
	output, outputGrad *tensor.RawTensor,
	inputs []*tensor.RawTensor,
	createGraph bool,
	backend tensor.Backend,
) []*tensor.RawTensor {
	grads := t.run(output, outputGrad, inputs, createGraph, backend)

	result := make([]*tensor.RawTensor, len(inputs))
	for i, in := range inputs {
		if g, ok := grads[in]; ok {
			result[i] = g
			continue
		}
		result[i] = tensor.MustNewRaw(in.Shape(), in.DType(), in.Device())
	}
	return result
}

// run walks the first n recorded operations backwards. When inputs is non-nil
// the walk is restricted to operations downstream of them.
func (t *GradientTape) run(
	output, outputGrad *tensor.RawTensor,
	inputs []*tensor.RawTensor,
	createGraph bool,
	backend tensor.Backend,
) map[*tensor.RawTensor]*tensor.RawTensor {
	if !outputGrad.Shape().Equal(output.Shape()) {
		panic(fmt.Sprintf("backward: output gradient shape %v does not match output shape %v",
			outputGrad.Shape(), output.Shape()))
	}

	grads := make(map[*tensor.RawTensor]*tensor.RawTensor)
	grads[output] = outputGrad

	// Ops appended during a create-graph pass are not part of this walk.
	n := len(t.operations)
	if n == 0 {
		return grads
	}

	var relevant []bool
	if inputs != nil {
		relevant = t.dependsOn(inputs, n)
	}

	wasRecording := t.recording
	t.recording = createGraph
	defer func() {
		t.recording = wasRecording
	}()

	for i := n - 1; i >= 0; i-- {
		if relevant != nil && !relevant[i] {
			continue
		}
		op := t.operations[i]
		opGrad, ok := grads[op.Output()]
		if !ok {
			continue
		}
		inputGrads := op.Backward(opGrad, backend)
		accumulateGrads(op, inputGrads, grads, backend)
	}

	return grads
}

// dependsOn marks the operations among the first n that have at least one
// input derived from sources.
func (t *GradientTape) dependsOn(sources []*tensor.RawTensor, n int) []bool {
	reached := make(map[*tensor.RawTensor]struct{}, len(sources))
	for _, s := range sources {
		reached[s] = struct{}{}
	}

	relevant := make([]bool, n)
	for i := 0; i < n; i++ {
		op := t.operations[i]
		for _, in := range op.Inputs() {
			if _, ok := reached[in]; ok {
				relevant[i] = true
				reached[op.Output()] = struct{}{}
				break
			}
		}
	}
	return relevant
}

// accumulateGrads adds each input gradient into the running map.
func accumulateGrads(
	op ops.Operation,
	inputGrads []*tensor.RawTensor,
	grads map[*tensor.RawTensor]*tensor.RawTensor,
	backend tensor.Backend,
) {
	for j, input := range op.Inputs() {
		if j >= len(inputGrads) {
			break
		}
		inputGrad := inputGrads[j]
		if inputGrad == nil {
			continue
		}
		if existing, ok := grads[input]; ok {
			grads[input] = backend.Add(existing, inputGrad)
		} else {
			grads[input] = inputGrad
		}
	}
}
