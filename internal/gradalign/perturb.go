package gradalign

import (
	"github.com/born-ml/gradalign/internal/tensor"
)

// perturbation is the doubled, randomly perturbed batch of one step.
type perturbation[B Backend] struct {
	delta1, delta2 *tensor.Tensor[float32, B] // leaves, [N, C, H, W]
	images         *tensor.Tensor[float32, B] // clamp(cat(X, X) + cat(delta1, delta2), 0, 1), [2N, C, H, W]
}

// perturb samples delta1 and delta2 uniformly from [-eps, eps] and builds the
// doubled batch. The pixel clamp is recorded, so saturated pixels pass no
// gradient to their delta.
func (t *Trainer[B]) perturb(x *tensor.Tensor[float32, B]) perturbation[B] {
	shape := x.Shape()
	delta1 := tensor.RandUniform[float32](shape, -t.eps, t.eps, t.rng, t.backend)
	delta2 := tensor.RandUniform[float32](shape, -t.eps, t.eps, t.rng, t.backend)

	doubled := tensor.Cat([]*tensor.Tensor[float32, B]{x, x}, 0)
	deltas := tensor.Cat([]*tensor.Tensor[float32, B]{delta1, delta2}, 0)

	return perturbation[B]{
		delta1: delta1,
		delta2: delta2,
		images: doubled.Add(deltas).Clamp(0, 1),
	}
}

// jointGradients returns the gradients of the mean cross-entropy over the
// doubled batch with respect to delta1 and delta2. Both stay on the tape.
func (t *Trainer[B]) jointGradients(
	p perturbation[B],
	logits *tensor.Tensor[float32, B],
	labels *tensor.Tensor[int32, B],
) (grad1, grad2 *tensor.Tensor[float32, B]) {
	y := labels.Data()
	doubledLabels, err := tensor.FromSlice(append(append(make([]int32, 0, 2*len(y)), y...), y...),
		tensor.Shape{2 * len(y)}, t.backend)
	if err != nil {
		panic(err)
	}

	loss := t.criterion.Forward(logits, doubledLabels)
	grads := t.backend.Grad(loss.Raw(), []*tensor.RawTensor{p.delta1.Raw(), p.delta2.Raw()}, true)

	return tensor.New[float32](grads[0], t.backend), tensor.New[float32](grads[1], t.backend)
}
