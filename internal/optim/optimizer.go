// Package optim implements optimization algorithms for training neural networks.
//
// This package provides:
//   - Optimizer interface: Base interface for all optimizers
//   - SGD: Stochastic Gradient Descent with momentum and weight decay
//   - Adam: Adaptive Moment Estimation
//
// Design inspired by PyTorch's torch.optim but adapted for Go with type safety.
//
// Updates are applied element-wise to the parameter data in place. They never go
// through a backend, so an optimizer step is never recorded on a gradient tape.
//
// Example usage:
//
//	optimizer := optim.NewSGD(model.Parameters(), optim.SGDConfig{
//	    LR:       0.01,
//	    Momentum: 0.9,
//	}, backend)
//
//	backend.Tape().StartRecording()
//	output := model.Forward(input)
//	loss := criterion.Forward(output, targets)
//	optimizer.ZeroGrad()
//	grads := autodiff.Backward(loss, backend)
//	optimizer.Step(grads)
//	backend.Tape().Clear()
package optim

import (
	"fmt"

	"github.com/born-ml/gradalign/internal/nn"
	"github.com/born-ml/gradalign/internal/tensor"
)

// Optimizer is the base interface for all optimization algorithms.
//
// All optimizers must implement:
//   - Step: Apply gradient updates to parameters
//   - ZeroGrad: Clear gradients before next iteration
//   - GetLR: Get current learning rate (for monitoring/scheduling)
type Optimizer interface {
	// Step applies gradient updates to all parameters.
	//
	// Takes a gradient map from Backward() and updates parameters in-place.
	// Parameters missing from the map are left untouched.
	Step(grads map[*tensor.RawTensor]*tensor.RawTensor)

	// ZeroGrad clears all parameter gradients.
	ZeroGrad()

	// GetLR returns the current learning rate.
	GetLR() float32
}

// Config is the base configuration for all optimizers.
type Config struct {
	LR float32 // Learning rate
}

// getGradient returns the float32 gradient data for a parameter, nil if the
// parameter did not take part in the computation.
func getGradient[B tensor.Backend](param *nn.Parameter[B], grads map[*tensor.RawTensor]*tensor.RawTensor) []float32 {
	if param == nil {
		return nil
	}
	grad, ok := grads[param.Tensor().Raw()]
	if !ok || grad == nil {
		return nil
	}
	if !grad.Shape().Equal(param.Tensor().Shape()) {
		panic(fmt.Sprintf("optim: gradient shape %v does not match parameter %s shape %v",
			grad.Shape(), param.Name(), param.Tensor().Shape()))
	}
	return grad.AsFloat32()
}

// exportBuffers stores buffers under "<name>.<param index>" keys.
func exportBuffers[B tensor.Backend](
	stateDict map[string]*tensor.RawTensor,
	name string,
	params []*nn.Parameter[B],
	buffers map[*nn.Parameter[B]]*tensor.Tensor[float32, B],
) {
	for i, param := range params {
		buf, ok := buffers[param]
		if !ok {
			continue
		}
		stateDict[fmt.Sprintf("%s.%d", name, i)] = buf.Raw().Clone()
	}
}

// importBuffers restores buffers written by exportBuffers.
func importBuffers[B tensor.Backend](
	stateDict map[string]*tensor.RawTensor,
	name string,
	params []*nn.Parameter[B],
	backend B,
) (map[*nn.Parameter[B]]*tensor.Tensor[float32, B], error) {
	buffers := make(map[*nn.Parameter[B]]*tensor.Tensor[float32, B])
	for i, param := range params {
		raw, ok := stateDict[fmt.Sprintf("%s.%d", name, i)]
		if !ok {
			continue
		}
		if !raw.Shape().Equal(param.Tensor().Shape()) {
			return nil, fmt.Errorf("%s shape mismatch for parameter %d: expected %v, got %v",
				name, i, param.Tensor().Shape(), raw.Shape())
		}
		if raw.DType() != tensor.Float32 {
			return nil, fmt.Errorf("%s dtype mismatch for parameter %d: expected float32, got %v",
				name, i, raw.DType())
		}
		buffers[param] = tensor.New[float32](raw.Clone(), backend)
	}
	return buffers, nil
}
