// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides automatic differentiation capabilities.
//
// This package implements reverse-mode automatic differentiation (backpropagation)
// using a gradient tape. It wraps any backend to add autodiff capabilities.
// Gradients can themselves be recorded (create-graph mode), so a loss built
// from input gradients can be differentiated again with respect to the weights.
//
// Example:
//
//	import (
//	    "github.com/born-ml/gradalign/autodiff"
//	    "github.com/born-ml/gradalign/backend/cpu"
//	    "github.com/born-ml/gradalign/tensor"
//	)
//
//	func main() {
//	    backend := autodiff.New(cpu.New())
//	    backend.Tape().StartRecording()
//
//	    x, _ := tensor.FromSlice([]float32{1, 2}, tensor.Shape{2}, backend)
//	    y := x.Mul(x).Mul(x).Sum()
//
//	    // dy/dx, itself on the tape
//	    dx := backend.Grad(y.Raw(), []*tensor.RawTensor{x.Raw()}, true)[0]
//
//	    // d(sum(dy/dx))/dx = 6x
//	    grads := autodiff.Backward(tensor.New[float32](dx, backend).Sum(), backend)
//	}
package autodiff

import (
	"github.com/born-ml/gradalign/internal/autodiff"
	"github.com/born-ml/gradalign/internal/tensor"
)

// Backend is the autodiff-enabled backend.
type Backend[B tensor.Backend] = autodiff.AutodiffBackend[B]

// New creates a new autodiff backend wrapping the given backend.
//
// Example:
//
//	base := cpu.New()
//	backend := autodiff.New(base)
func New[B tensor.Backend](backend B) *Backend[B] {
	return autodiff.New(backend)
}

// GradientTape records operations for automatic differentiation.
type GradientTape = autodiff.GradientTape

// NewGradientTape creates a new gradient tape.
func NewGradientTape() *GradientTape {
	return autodiff.NewGradientTape()
}

// BackwardCapable interface for backends that support backpropagation.
type BackwardCapable = autodiff.BackwardCapable

// Backward computes gradients via backpropagation.
func Backward[T tensor.DType, B BackwardCapable](t *tensor.Tensor[T, B], backend B) map[*tensor.RawTensor]*tensor.RawTensor {
	return autodiff.Backward(t, backend)
}
