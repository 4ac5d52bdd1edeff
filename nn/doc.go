// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the neural network building blocks the GradAlign trainer
// drives.
//
// # Overview
//
// This package contains:
//   - Layers: Linear
//   - Activations and reshaping: ReLU, Flatten
//   - Loss functions: CrossEntropyLoss, plus the Accuracy metric
//   - Utilities: Sequential, Module interface, Parameter, StateDict
//   - Initialization: Xavier, Zeros
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/gradalign/autodiff"
//	    "github.com/born-ml/gradalign/backend/cpu"
//	    "github.com/born-ml/gradalign/nn"
//	)
//
//	type Backend = *autodiff.Backend[*cpu.Backend]
//
//	func main() {
//	    backend := autodiff.New(cpu.New())
//
//	    // Image classifier for [N, 1, 28, 28] inputs
//	    model := nn.NewSequential[Backend](
//	        nn.NewFlatten[Backend](),
//	        nn.NewLinear(784, 128, backend),
//	        nn.NewReLU[Backend](),
//	        nn.NewLinear(128, 10, backend),
//	    )
//
//	    output := model.Forward(images)
//	}
//
// # Reproducible Initialization
//
// Linear draws its weights from the global math/rand source unless a generator
// is supplied:
//
//	rng := rand.New(rand.NewSource(0))
//	layer := nn.NewLinear(784, 128, backend, nn.WithRand(rng))
//
// Two models can also share weights through their state dictionaries:
//
//	if err := clone.LoadStateDict(model.StateDict()); err != nil { ... }
package nn
