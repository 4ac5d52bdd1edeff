package gradalign

import (
	"fmt"

	"github.com/born-ml/gradalign/internal/tensor"
)

// Batch is one minibatch of images and their class labels.
//
// Images have shape [N, C, H, W] with pixel values in [0, 1]; Labels have shape [N].
// The trainer never modifies a batch.
type Batch[B tensor.Backend] struct {
	Images *tensor.Tensor[float32, B]
	Labels *tensor.Tensor[int32, B]
}

// Size returns the number of samples in the batch.
func (b Batch[B]) Size() int {
	return b.Images.Shape()[0]
}

// Validate checks that images and labels describe the same non-empty batch.
func (b Batch[B]) Validate() error {
	if b.Images == nil || b.Labels == nil {
		return fmt.Errorf("%w: images and labels are required", ErrBatchShape)
	}
	images, labels := b.Images.Shape(), b.Labels.Shape()
	if len(images) != 4 {
		return fmt.Errorf("%w: images must be [N, C, H, W], got %v", ErrBatchShape, images)
	}
	if len(labels) != 1 {
		return fmt.Errorf("%w: labels must be [N], got %v", ErrBatchShape, labels)
	}
	if images[0] != labels[0] {
		return fmt.Errorf("%w: %d images but %d labels", ErrBatchShape, images[0], labels[0])
	}
	return nil
}

// checkLabels reports the first label outside [0, numClasses).
func checkLabels(labels []int32, numClasses int) error {
	for i, label := range labels {
		if label < 0 || int(label) >= numClasses {
			return fmt.Errorf("%w: label %d at index %d, model has %d classes", ErrLabelRange, label, i, numClasses)
		}
	}
	return nil
}
