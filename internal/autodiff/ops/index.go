package ops

import "github.com/born-ml/gradalign/internal/tensor"

// CatOp represents concatenation along a dimension.
//
// Backward narrows the output gradient back into one slice per input.
type CatOp struct {
	node
	dim int
}

// NewCatOp creates a new CatOp. dim must already be normalized.
func NewCatOp(inputs []*tensor.RawTensor, output *tensor.RawTensor, dim int) *CatOp {
	return &CatOp{node: newNode(output, inputs...), dim: dim}
}

// Backward computes input gradients for concatenation.
func (op *CatOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	grads := make([]*tensor.RawTensor, len(op.inputs))
	offset := 0
	for i, in := range op.inputs {
		size := in.Shape()[op.dim]
		grads[i] = backend.Narrow(outputGrad, op.dim, offset, size)
		offset += size
	}
	return grads
}

// NarrowOp represents x[start:start+length] along a dimension.
//
// Backward scatters the gradient into a zero tensor of the input shape.
type NarrowOp struct {
	node
	dim, start, length int
}

// NewNarrowOp creates a new NarrowOp. dim must already be normalized.
func NewNarrowOp(x, output *tensor.RawTensor, dim, start, length int) *NarrowOp {
	return &NarrowOp{node: newNode(output, x), dim: dim, start: start, length: length}
}

// Backward computes the input gradient for narrow.
func (op *NarrowOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	indices := make([]int, op.length)
	for i := range indices {
		indices[i] = op.start + i
	}
	size := op.inputs[0].Shape()[op.dim]
	return []*tensor.RawTensor{backend.IndexAdd(outputGrad, op.dim, indices, size)}
}

// IndexSelectOp represents a gather of slices along a dimension.
//
// Backward: grad_x = index_add(zeros, dim, indices, outputGrad). Repeated indices
// accumulate.
type IndexSelectOp struct {
	node
	dim     int
	indices []int
}

// NewIndexSelectOp creates a new IndexSelectOp. dim must already be normalized.
func NewIndexSelectOp(x, output *tensor.RawTensor, dim int, indices []int) *IndexSelectOp {
	return &IndexSelectOp{node: newNode(output, x), dim: dim, indices: append([]int(nil), indices...)}
}

// Backward computes the input gradient for index select.
func (op *IndexSelectOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	size := op.inputs[0].Shape()[op.dim]
	return []*tensor.RawTensor{backend.IndexAdd(outputGrad, op.dim, op.indices, size)}
}

// IndexAddOp represents a scatter-add of src slices into a zero tensor.
//
// Backward is the gather at the same indices.
type IndexAddOp struct {
	node
	dim     int
	indices []int
}

// NewIndexAddOp creates a new IndexAddOp. dim must already be normalized.
func NewIndexAddOp(src, output *tensor.RawTensor, dim int, indices []int) *IndexAddOp {
	return &IndexAddOp{node: newNode(output, src), dim: dim, indices: append([]int(nil), indices...)}
}

// Backward computes the input gradient for index add.
func (op *IndexAddOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.IndexSelect(outputGrad, op.dim, op.indices)}
}
