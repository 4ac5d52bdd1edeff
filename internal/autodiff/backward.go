package autodiff

import (
	"fmt"

	"github.com/born-ml/gradalign/internal/tensor"
)

// BackwardCapable is an interface for backends that support backward pass.
// AutodiffBackend implements this interface.
type BackwardCapable interface {
	tensor.Backend
	// GetTape returns the gradient tape for backward computation.
	GetTape() *GradientTape
}

// GetTape returns the gradient tape (implements BackwardCapable interface).
func (b *AutodiffBackend[B]) GetTape() *GradientTape {
	return b.tape
}

// Backward computes gradients for a tensor using the AutodiffBackend's tape.
//
// The output is seeded with ones of its own shape. Returns a map from
// RawTensor to its gradient, which is what optimizers consume.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	backend.Tape().StartRecording()
//	x := tensor.Ones[float32](Shape{2}, backend)
//	y := x.Mul(x) // y = x²
//	gradients := autodiff.Backward(y, backend)
//	grad := gradients[x.Raw()] // Get gradient for x
func Backward[T tensor.DType, B BackwardCapable](t *tensor.Tensor[T, B], backend B) map[*tensor.RawTensor]*tensor.RawTensor {
	tape := backend.GetTape()

	if tape.NumOps() == 0 {
		panic("backward: no operations recorded (did you forget to call Tape().StartRecording()?)")
	}

	return tape.Backward(t.Raw(), onesLike(t.Raw()), backend)
}

// Grad returns the gradients of output with respect to inputs, seeding output
// with ones.
//
// With createGraph the backward computation is recorded on the tape, so the
// returned gradients can themselves be differentiated by a later Backward or
// Grad. Recording must be on for that to have any effect.
func (b *AutodiffBackend[B]) Grad(output *tensor.RawTensor, inputs []*tensor.RawTensor, createGraph bool) []*tensor.RawTensor {
	return b.tape.Grad(output, onesLike(output), inputs, createGraph, b)
}

// onesLike builds the seed gradient for output.
func onesLike(output *tensor.RawTensor) *tensor.RawTensor {
	if !output.DType().IsFloat() {
		panic(fmt.Sprintf("backward: unsupported dtype %s (only float32/float64 supported)", output.DType()))
	}
	grad := tensor.MustNewRaw(output.Shape(), output.DType(), output.Device())
	grad.Fill(1)
	return grad
}
