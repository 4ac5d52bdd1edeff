package gradalign

import (
	"github.com/born-ml/gradalign/internal/tensor"
)

// alignmentLoss returns 1 - mean cosine similarity between grad1 and grad2 over
// the samples where both gradients have a non-zero L2 norm, together with the
// number of such samples.
//
// The filter is an explicit index list. When it is empty the loss is zero and
// nil is returned, so nothing is added to the graph.
func (t *Trainer[B]) alignmentLoss(grad1, grad2 *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], int) {
	n := grad1.Shape()[0]
	features := grad1.NumElements() / n
	flat1 := grad1.Reshape(n, features)
	flat2 := grad2.Reshape(n, features)

	keep := t.nonZeroRows(flat1, flat2)
	if len(keep) == 0 {
		return nil, 0
	}

	g1 := flat1.IndexSelect(0, keep)
	g2 := flat2.IndexSelect(0, keep)

	cos := normalizeRows(g1).Mul(normalizeRows(g2)).SumDim(1, false)
	mean := cos.Sum().MulScalar(1 / float64(len(keep)))
	return mean.MulScalar(-1).AddScalar(1), len(keep)
}

// nonZeroRows lists the rows where both a and b have a positive squared norm,
// measured with the same kernels the graph uses but without recording.
func (t *Trainer[B]) nonZeroRows(a, b *tensor.Tensor[float32, B]) []int {
	var sqA, sqB []float32
	t.backend.NoGrad(func() {
		sqA = a.Mul(a).SumDim(1, false).Data()
		sqB = b.Mul(b).SumDim(1, false).Data()
	})

	keep := make([]int, 0, len(sqA))
	for i := range sqA {
		if sqA[i] > 0 && sqB[i] > 0 {
			keep = append(keep, i)
		}
	}
	return keep
}

// normalizeRows divides every row of g [K, D] by its L2 norm.
func normalizeRows[B Backend](g *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	norms := g.Mul(g).SumDim(1, true).Sqrt() // [K, 1]
	return g.Div(norms)
}
