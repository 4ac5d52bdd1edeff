package gradalign

import (
	"github.com/born-ml/gradalign/internal/tensor"
)

// fastAdversarial takes one signed gradient step of size alpha, projects the
// offset from x onto the eps-ball and the result onto [0, 1].
//
// Only the values of grad1 are used; the returned tensor is a fresh leaf with no
// path back into the graph.
func (t *Trainer[B]) fastAdversarial(
	x *tensor.Tensor[float32, B],
	p perturbation[B],
	grad1 *tensor.Tensor[float32, B],
) *tensor.Tensor[float32, B] {
	var xAdv *tensor.Tensor[float32, B]
	t.backend.NoGrad(func() {
		origin := x
		if t.randomStart {
			origin = p.images.Narrow(0, 0, x.Shape()[0])
		}

		step := grad1.Detach().Sign().MulScalar(t.alpha)
		delta := origin.Add(step).Sub(x).Clamp(-t.eps, t.eps)
		xAdv = x.Add(delta).Clamp(0, 1)
	})
	return xAdv.Detach()
}
