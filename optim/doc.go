// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides optimization algorithms for training neural networks.
//
// # Overview
//
// This package contains:
//   - SGD: Stochastic Gradient Descent with momentum and weight decay
//   - Adam: Adaptive Moment Estimation with bias correction
//   - Optimizer interface for custom optimizers
//
// Optimizers update parameter data in place and never go through the backend,
// so a step is never recorded on an autodiff tape.
//
// # Training Loop Pattern
//
//	backend := autodiff.New(cpu.New())
//	model := nn.NewLinear(784, 10, backend)
//	criterion := nn.NewCrossEntropyLoss(backend)
//	optimizer := optim.NewSGD(model.Parameters(), optim.SGDConfig{LR: 0.01, Momentum: 0.9}, backend)
//
//	backend.Tape().StartRecording()
//	for epoch := range numEpochs {
//	    for _, batch := range batches {
//	        // 1. Zero gradients
//	        optimizer.ZeroGrad()
//
//	        // 2. Forward pass
//	        loss := criterion.Forward(model.Forward(batch.Input), batch.Target)
//
//	        // 3. Backward pass
//	        grads := autodiff.Backward(loss, backend)
//
//	        // 4. Update parameters
//	        optimizer.Step(grads)
//	        backend.Tape().Clear()
//	    }
//	}
//
// # Checkpointing Optimizer State
//
// Momentum and moment buffers can be exported and restored:
//
//	state := optimizer.StateDict()
//	if err := other.LoadStateDict(state); err != nil { ... }
package optim
