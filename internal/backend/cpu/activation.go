package cpu

import (
	"fmt"
	"math"

	"github.com/chewxy/math32"

	"github.com/born-ml/gradalign/internal/parallel"
	"github.com/born-ml/gradalign/internal/tensor"
)

// Softmax computes softmax along the last dimension.
//
// Each row is shifted by its maximum before exponentiating, which keeps exp() from
// overflowing for large logits.
func (cpu *CPUBackend) Softmax(x *tensor.RawTensor) *tensor.RawTensor {
	shape := x.Shape()
	if len(shape) == 0 {
		panic("softmax: scalar input")
	}
	cols := shape[len(shape)-1]
	rows := x.NumElements() / cols

	result := tensor.MustNewRaw(shape, x.DType(), cpu.device)

	switch x.DType() {
	case tensor.Float32:
		in, out := x.AsFloat32(), result.AsFloat32()
		parallel.Rows(rows, cols, func(r int) {
			softmaxRowFloat32(in[r*cols:(r+1)*cols], out[r*cols:(r+1)*cols])
		}, cpu.parallel)
	case tensor.Float64:
		in, out := x.AsFloat64(), result.AsFloat64()
		parallel.Rows(rows, cols, func(r int) {
			softmaxRowFloat64(in[r*cols:(r+1)*cols], out[r*cols:(r+1)*cols])
		}, cpu.parallel)
	default:
		panic(fmt.Sprintf("softmax: unsupported dtype %s", x.DType()))
	}

	return result
}

func softmaxRowFloat32(in, out []float32) {
	maxVal := in[0]
	for _, v := range in[1:] {
		maxVal = math32.Max(maxVal, v)
	}
	var sum float32
	for i, v := range in {
		out[i] = math32.Exp(v - maxVal)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
}

func softmaxRowFloat64(in, out []float64) {
	maxVal := in[0]
	for _, v := range in[1:] {
		maxVal = math.Max(maxVal, v)
	}
	var sum float64
	for i, v := range in {
		out[i] = math.Exp(v - maxVal)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
}

// CrossEntropy computes the mean softmax cross-entropy of logits [batch, classes]
// against int32 class indices [batch]. Returns a scalar tensor.
//
// Uses the log-sum-exp trick:
//
//	loss_b = log(Σ_j exp(z_bj - m_b)) + m_b - z_b,target
func (cpu *CPUBackend) CrossEntropy(logits, targets *tensor.RawTensor) *tensor.RawTensor {
	batchSize, numClasses := checkCrossEntropyShapes(logits, targets)
	z := logits.Float64s()
	labels := targets.AsInt32()

	var total float64
	for b := 0; b < batchSize; b++ {
		row := z[b*numClasses : (b+1)*numClasses]
		maxVal := row[0]
		for _, v := range row[1:] {
			maxVal = math.Max(maxVal, v)
		}
		var sumExp float64
		for _, v := range row {
			sumExp += math.Exp(v - maxVal)
		}
		total += math.Log(sumExp) + maxVal - row[labels[b]]
	}

	result := tensor.MustNewRaw(tensor.Shape{}, logits.DType(), cpu.device)
	result.Fill(total / float64(batchSize))
	return result
}

// checkCrossEntropyShapes validates logits/targets and returns (batch, classes).
func checkCrossEntropyShapes(logits, targets *tensor.RawTensor) (int, int) {
	shape := logits.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("crossEntropy: logits must be 2D [batch_size, num_classes], got %v", shape))
	}
	if targets.DType() != tensor.Int32 {
		panic(fmt.Sprintf("crossEntropy: targets must be int32, got %s", targets.DType()))
	}
	if len(targets.Shape()) != 1 || targets.Shape()[0] != shape[0] {
		panic(fmt.Sprintf("crossEntropy: targets shape %v does not match batch size %d", targets.Shape(), shape[0]))
	}
	for i, label := range targets.AsInt32() {
		if label < 0 || int(label) >= shape[1] {
			panic(fmt.Sprintf("crossEntropy: target %d at index %d out of range [0, %d)", label, i, shape[1]))
		}
	}
	return shape[0], shape[1]
}
