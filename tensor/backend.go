// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import "github.com/born-ml/gradalign/internal/tensor"

// Backend defines the interface that all compute backends must implement.
//
// Implementations:
//   - backend/cpu: Pure Go kernels, gonum BLAS for matrix products
//
// Decorator backends for additional functionality:
//   - autodiff: Automatic differentiation with double backprop (wraps any backend)
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	z := x.Add(x) // Uses backend.Add under the hood
type Backend interface {
	// Element-wise binary operations.
	Add(a, b *RawTensor) *RawTensor // Element-wise addition.
	Sub(a, b *RawTensor) *RawTensor // Element-wise subtraction.
	Mul(a, b *RawTensor) *RawTensor // Element-wise multiplication.
	Div(a, b *RawTensor) *RawTensor // Element-wise division.

	// Matrix operations.
	MatMul(a, b *RawTensor) *RawTensor // Matrix multiplication.

	// Shape operations.
	Reshape(t *RawTensor, newShape Shape) *RawTensor // Reshape tensor.
	Transpose(t *RawTensor, axes ...int) *RawTensor  // Transpose dimensions.

	// Scalar operations (element-wise with scalar).
	MulScalar(x *RawTensor, scalar float64) *RawTensor // Multiply by scalar.
	AddScalar(x *RawTensor, scalar float64) *RawTensor // Add scalar.

	// Math operations (element-wise).
	Exp(x *RawTensor) *RawTensor                   // Exponential.
	Log(x *RawTensor) *RawTensor                   // Natural logarithm.
	Sqrt(x *RawTensor) *RawTensor                  // Square root.
	Sign(x *RawTensor) *RawTensor                  // -1, 0 or +1.
	Clamp(x *RawTensor, lo, hi float64) *RawTensor // Clip to [lo, hi].

	// Activation functions.
	ReLU(x *RawTensor) *RawTensor    // max(0, x).
	Softmax(x *RawTensor) *RawTensor // Softmax along the last dimension.

	// Reduction operations.
	Sum(x *RawTensor) *RawTensor                           // Total sum (scalar result).
	SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor // Sum along dimension.

	// Manipulation operations.
	Cat(tensors []*RawTensor, dim int) *RawTensor            // Concatenate along dimension.
	Narrow(x *RawTensor, dim, start, length int) *RawTensor // Slice along dimension.

	// Indexing operations.
	IndexSelect(x *RawTensor, dim int, indices []int) *RawTensor          // Gather slices along dim.
	IndexAdd(src *RawTensor, dim int, indices []int, size int) *RawTensor // Scatter-add, adjoint of IndexSelect.

	// Metadata.
	Name() string   // Backend name (e.g., "CPU").
	Device() Device // Device type.
}

// CrossEntropyBackend is implemented by backends with a fused softmax cross-entropy.
type CrossEntropyBackend = tensor.CrossEntropyBackend

// Compile-time check that internal Backend implements public Backend.
var _ Backend = tensor.Backend(nil)
