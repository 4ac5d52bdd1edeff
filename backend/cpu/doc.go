// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides a pure Go CPU backend for tensor operations.
//
// # Overview
//
// This package implements a CPU backend with:
//   - Pure Go kernels (no CGO), float32 math via chewxy/math32
//   - gonum BLAS GEMM for matrix multiplication
//   - Float32 and Float64 support
//   - NumPy-compatible broadcasting
//   - Fused, numerically stable softmax cross-entropy
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/gradalign/autodiff"
//	    "github.com/born-ml/gradalign/backend/cpu"
//	    "github.com/born-ml/gradalign/nn"
//	)
//
//	func main() {
//	    backend := autodiff.New(cpu.New())
//	    model := nn.NewLinear(784, 10, backend)
//	}
//
// # Thread Safety
//
// The CPU backend holds no mutable state and is safe for concurrent use.
// Every operation allocates its result and never writes its inputs.
package cpu
