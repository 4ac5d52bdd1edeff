package tensor

import "math/rand"

// Zeros creates a tensor filled with zeros.
//
// Example:
//
//	t := tensor.Zeros[float32](Shape{3, 4}, backend)
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	raw, err := NewRaw(shape, inferDataType[T](), b.Device())
	if err != nil {
		panic(err)
	}
	return New[T, B](raw, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return Full[T, B](shape, 1, b)
}

// Full creates a tensor filled with a specific value.
//
// Example:
//
//	t := tensor.Full[float32](Shape{3, 3}, 0.5, backend)
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// RandUniform creates a float tensor with values drawn independently and uniformly
// from [lo, hi], using rng as the only source of randomness.
//
// Passing the generator explicitly keeps sampling reproducible: two generators with
// the same seed produce identical tensors.
// Note: Uses math/rand (not crypto/rand), appropriate for ML/statistical purposes.
func RandUniform[T DType, B Backend](shape Shape, lo, hi float64, rng *rand.Rand, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	width := hi - lo

	switch data := any(t.Data()).(type) {
	case []float32:
		for i := range data {
			data[i] = float32(lo + width*rng.Float64())
		}
	case []float64:
		for i := range data {
			data[i] = lo + width*rng.Float64()
		}
	default:
		panic("RandUniform only supports float32 and float64 types")
	}
	return t
}
