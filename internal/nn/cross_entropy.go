package nn

import (
	"fmt"

	"github.com/born-ml/gradalign/internal/tensor"
)

// CrossEntropyLoss computes the mean softmax cross-entropy for multi-class
// classification.
//
// Mathematical Formulation:
//
//	Loss = mean_b( -log_softmax(logits_b)[target_b] )
//
// Gradient (Backward):
//
//	∂L/∂logits = (Softmax(logits) - y_one_hot) / batch_size
//
// Usage:
//
//	criterion := nn.NewCrossEntropyLoss(backend)
//	logits := model.Forward(input)             // [batch_size, num_classes]
//	loss := criterion.Forward(logits, targets) // targets: [batch_size] (class indices)
//
// The backend must implement tensor.CrossEntropyBackend; the autodiff backend
// records the loss on the tape and the CPU backend computes it directly.
type CrossEntropyLoss[B tensor.Backend] struct {
	backend B
}

// NewCrossEntropyLoss creates a new cross-entropy loss function.
func NewCrossEntropyLoss[B tensor.Backend](backend B) *CrossEntropyLoss[B] {
	return &CrossEntropyLoss[B]{
		backend: backend,
	}
}

// Forward computes the scalar loss (mean over batch).
//
// Parameters:
//   - logits: Model predictions (unnormalized scores) with shape [batch_size, num_classes]
//   - targets: Ground truth class indices with shape [batch_size]
func (c *CrossEntropyLoss[B]) Forward(
	logits *tensor.Tensor[float32, B],
	targets *tensor.Tensor[int32, B],
) *tensor.Tensor[float32, B] {
	ce, ok := any(c.backend).(tensor.CrossEntropyBackend)
	if !ok {
		panic(fmt.Sprintf("CrossEntropyLoss: backend %s does not implement CrossEntropy", c.backend.Name()))
	}
	return tensor.New[float32](ce.CrossEntropy(logits.Raw(), targets.Raw()), c.backend)
}

// Parameters returns an empty slice (loss functions have no trainable parameters).
func (c *CrossEntropyLoss[B]) Parameters() []*Parameter[B] {
	return nil
}

// Accuracy returns the fraction of rows of logits whose argmax equals the target.
func Accuracy[B tensor.Backend](logits *tensor.Tensor[float32, B], targets *tensor.Tensor[int32, B]) float64 {
	shape := logits.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("Accuracy: logits must be 2D [batch_size, num_classes], got %v", shape))
	}
	batchSize, numClasses := shape[0], shape[1]
	labels := targets.Data()
	if len(labels) != batchSize {
		panic(fmt.Sprintf("Accuracy: %d targets for batch size %d", len(labels), batchSize))
	}

	data := logits.Data()
	correct := 0
	for b := 0; b < batchSize; b++ {
		row := data[b*numClasses : (b+1)*numClasses]
		best := 0
		for j, v := range row {
			if v > row[best] {
				best = j
			}
		}
		if int32(best) == labels[b] {
			correct++
		}
	}
	return float64(correct) / float64(batchSize)
}
