package tensor

// Backend defines the interface that all compute backends must implement.
// Backends handle the actual computation for tensor operations.
//
// Implementations:
//   - CPU: pure Go kernels with gonum BLAS for matrix products
//   - Autodiff: decorator that records every call on a gradient tape
//
// Every method returns a freshly allocated tensor; inputs are never modified.
type Backend interface {
	// Element-wise binary operations (NumPy broadcasting)
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// Matrix operations: (M, K) @ (K, N) -> (M, N)
	MatMul(a, b *RawTensor) *RawTensor

	// Shape operations
	Reshape(t *RawTensor, newShape Shape) *RawTensor
	Transpose(t *RawTensor, axes ...int) *RawTensor

	// Scalar operations (element-wise with scalar)
	MulScalar(x *RawTensor, scalar float64) *RawTensor
	AddScalar(x *RawTensor, scalar float64) *RawTensor

	// Math operations (element-wise)
	Exp(x *RawTensor) *RawTensor
	Log(x *RawTensor) *RawTensor
	Sqrt(x *RawTensor) *RawTensor
	Sign(x *RawTensor) *RawTensor                  // -1, 0 or +1
	Clamp(x *RawTensor, lo, hi float64) *RawTensor // min(max(x, lo), hi)

	// Activation functions
	ReLU(x *RawTensor) *RawTensor
	Softmax(x *RawTensor) *RawTensor // softmax along the last dimension

	// Reduction operations
	Sum(x *RawTensor) *RawTensor                           // total sum (scalar result)
	SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor // sum along dimension

	// Manipulation operations
	Cat(tensors []*RawTensor, dim int) *RawTensor            // concatenate along dimension
	Narrow(x *RawTensor, dim, start, length int) *RawTensor // slice [start, start+length) along dim

	// Indexing operations
	IndexSelect(x *RawTensor, dim int, indices []int) *RawTensor // gather slices along dim
	IndexAdd(src *RawTensor, dim int, indices []int, size int) *RawTensor

	// Metadata
	Name() string
	Device() Device
}

// CrossEntropyBackend is implemented by backends that provide a fused
// softmax cross-entropy: mean over the batch of -log_softmax(logits)[target].
type CrossEntropyBackend interface {
	CrossEntropy(logits, targets *RawTensor) *RawTensor
}
