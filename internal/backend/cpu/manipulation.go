package cpu

import (
	"fmt"

	"github.com/born-ml/gradalign/internal/tensor"
)

// Cat concatenates tensors along dim.
//
// All tensors must share dtype, rank and every dimension except dim.
func (cpu *CPUBackend) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	if len(tensors) == 0 {
		panic("cat: at least one tensor required")
	}

	first := tensors[0]
	dim = first.Shape().NormalizeDim(dim)

	outShape := first.Shape().Clone()
	outShape[dim] = 0
	for i, t := range tensors {
		if t.DType() != first.DType() {
			panic(fmt.Sprintf("cat: tensor %d has dtype %s, expected %s", i, t.DType(), first.DType()))
		}
		if len(t.Shape()) != len(outShape) {
			panic(fmt.Sprintf("cat: tensor %d has rank %d, expected %d", i, len(t.Shape()), len(outShape)))
		}
		for d, size := range t.Shape() {
			if d != dim && size != outShape[d] {
				panic(fmt.Sprintf("cat: tensor %d shape %v incompatible with %v on dim %d", i, t.Shape(), first.Shape(), d))
			}
		}
		outShape[dim] += t.Shape()[dim]
	}

	result := tensor.MustNewRaw(outShape, first.DType(), cpu.device)
	elemSize := first.DType().Size()
	outer, total, inner := outShape.Split(dim)
	dst := result.Data()

	offset := 0
	for _, t := range tensors {
		size := t.Shape()[dim]
		src := t.Data()
		chunk := size * inner * elemSize
		for o := 0; o < outer; o++ {
			dstStart := (o*total + offset) * inner * elemSize
			copy(dst[dstStart:dstStart+chunk], src[o*chunk:(o+1)*chunk])
		}
		offset += size
	}

	return result
}

// Narrow copies the slice [start, start+length) of x along dim.
func (cpu *CPUBackend) Narrow(x *tensor.RawTensor, dim, start, length int) *tensor.RawTensor {
	shape := x.Shape()
	dim = shape.NormalizeDim(dim)
	if start < 0 || length <= 0 || start+length > shape[dim] {
		panic(fmt.Sprintf("narrow: range [%d, %d) out of bounds for dim %d of shape %v", start, start+length, dim, shape))
	}

	indices := make([]int, length)
	for i := range indices {
		indices[i] = start + i
	}
	return cpu.IndexSelect(x, dim, indices)
}

// IndexSelect gathers the slices of x listed in indices along dim.
// The result has shape[dim] == len(indices); indices may repeat.
func (cpu *CPUBackend) IndexSelect(x *tensor.RawTensor, dim int, indices []int) *tensor.RawTensor {
	shape := x.Shape()
	dim = shape.NormalizeDim(dim)
	if len(indices) == 0 {
		panic("indexSelect: empty index list")
	}
	outer, size, inner := shape.Split(dim)
	for _, idx := range indices {
		if idx < 0 || idx >= size {
			panic(fmt.Sprintf("indexSelect: index %d out of range for dim %d of shape %v", idx, dim, shape))
		}
	}

	outShape := shape.Clone()
	outShape[dim] = len(indices)
	result := tensor.MustNewRaw(outShape, x.DType(), cpu.device)

	elemSize := x.DType().Size()
	chunk := inner * elemSize
	src, dst := x.Data(), result.Data()
	for o := 0; o < outer; o++ {
		for j, idx := range indices {
			srcStart := (o*size + idx) * chunk
			dstStart := (o*len(indices) + j) * chunk
			copy(dst[dstStart:dstStart+chunk], src[srcStart:srcStart+chunk])
		}
	}

	return result
}

// IndexAdd is the adjoint of IndexSelect: it returns a zero tensor whose dim has the
// given size and accumulates slice j of src into position indices[j] along dim.
func (cpu *CPUBackend) IndexAdd(src *tensor.RawTensor, dim int, indices []int, size int) *tensor.RawTensor {
	shape := src.Shape()
	dim = shape.NormalizeDim(dim)
	if len(indices) != shape[dim] {
		panic(fmt.Sprintf("indexAdd: %d indices for dim %d of shape %v", len(indices), dim, shape))
	}
	for _, idx := range indices {
		if idx < 0 || idx >= size {
			panic(fmt.Sprintf("indexAdd: index %d out of range [0, %d)", idx, size))
		}
	}

	outShape := shape.Clone()
	outShape[dim] = size
	outer, count, inner := shape.Split(dim)

	acc := make([]float64, outShape.NumElements())
	in := src.Float64s()
	for o := 0; o < outer; o++ {
		for j, idx := range indices {
			srcBase := (o*count + j) * inner
			dstBase := (o*size + idx) * inner
			for i := 0; i < inner; i++ {
				acc[dstBase+i] += in[srcBase+i]
			}
		}
	}

	result := tensor.MustNewRaw(outShape, src.DType(), cpu.device)
	storeFloat64s(result, acc)
	return result
}
