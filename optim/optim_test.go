// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim_test

import (
	"testing"

	"github.com/born-ml/gradalign/autodiff"
	"github.com/born-ml/gradalign/backend/cpu"
	"github.com/born-ml/gradalign/nn"
	"github.com/born-ml/gradalign/optim"
	"github.com/born-ml/gradalign/tensor"
)

// TestOptimizerInterface verifies both optimizers satisfy Optimizer and
// reduce a simple regression loss.
func TestOptimizerInterface(t *testing.T) {
	type Backend = *autodiff.Backend[*cpu.Backend]

	build := map[string]func(params []*nn.Parameter[Backend], backend Backend) optim.Optimizer{
		"SGD": func(params []*nn.Parameter[Backend], backend Backend) optim.Optimizer {
			return optim.NewSGD(params, optim.SGDConfig{LR: 0.1, Momentum: 0.9}, backend)
		},
		"Adam": func(params []*nn.Parameter[Backend], backend Backend) optim.Optimizer {
			return optim.NewAdam(params, optim.AdamConfig{LR: 0.05}, backend)
		},
	}

	for name, newOptimizer := range build {
		t.Run(name, func(t *testing.T) {
			backend := autodiff.New(cpu.New())
			layer := nn.NewLinear(1, 1, backend)
			optimizer := newOptimizer(layer.Parameters(), backend)

			x, _ := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{3, 1}, backend)
			y, _ := tensor.FromSlice([]float32{2, 4, 6}, tensor.Shape{3, 1}, backend)

			loss := func() float32 {
				diff := layer.Forward(x).Sub(y)
				return diff.Mul(diff).Sum().Item()
			}

			initial := loss()
			backend.Tape().StartRecording()
			for range 50 {
				optimizer.ZeroGrad()
				diff := layer.Forward(x).Sub(y)
				grads := autodiff.Backward(diff.Mul(diff).Sum().MulScalar(1.0/3), backend)
				optimizer.Step(grads)
				backend.Tape().Clear()
			}
			backend.Tape().StopRecording()

			if final := loss(); final >= initial {
				t.Errorf("loss did not decrease: %v -> %v", initial, final)
			}
		})
	}
}
