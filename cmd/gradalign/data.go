package main

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/gradalign/gradalign"
	"github.com/born-ml/gradalign/tensor"
)

// Dataset holds single-channel square images and their labels.
type Dataset struct {
	Images [][]float32 // [num_samples, size*size], values in [0, 1]
	Labels []int32     // [num_samples]
	Size   int         // image side length
}

// NewSyntheticDataset creates a two-class dataset: dark patches (label 0) and
// bright patches (label 1) with uniform pixel noise.
//
// This is NOT realistic image data, just enough signal to exercise training.
func NewSyntheticDataset(numSamples, size int, noise float64, rng *rand.Rand) *Dataset {
	images := make([][]float32, numSamples)
	labels := make([]int32, numSamples)

	for i := range images {
		label := int32(i % 2)
		base := 0.3
		if label == 1 {
			base = 0.7
		}

		pixels := make([]float32, size*size)
		for j := range pixels {
			v := base + noise*(2*rng.Float64()-1)
			pixels[j] = float32(min(max(v, 0), 1))
		}
		images[i] = pixels
		labels[i] = label
	}

	return &Dataset{Images: images, Labels: labels, Size: size}
}

// NumSamples returns the number of samples in the dataset.
func (d *Dataset) NumSamples() int {
	return len(d.Images)
}

// Split divides the dataset into training and validation sets.
func (d *Dataset) Split(validationRatio float64) (*Dataset, *Dataset) {
	splitIdx := int(float64(d.NumSamples()) * (1.0 - validationRatio))

	return &Dataset{
			Images: d.Images[:splitIdx],
			Labels: d.Labels[:splitIdx],
			Size:   d.Size,
		}, &Dataset{
			Images: d.Images[splitIdx:],
			Labels: d.Labels[splitIdx:],
			Size:   d.Size,
		}
}

// CreateBatches splits the dataset into [N, 1, size, size] minibatches.
// A non-nil rng shuffles the samples first.
func CreateBatches[B tensor.Backend](
	data *Dataset,
	batchSize int,
	rng *rand.Rand,
	backend B,
) ([]gradalign.Batch[B], error) {
	numSamples := data.NumSamples()
	if numSamples != len(data.Labels) {
		return nil, fmt.Errorf("images and labels length mismatch")
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}

	indices := make([]int, numSamples)
	for i := range indices {
		indices[i] = i
	}
	if rng != nil {
		rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	pixels := data.Size * data.Size
	batches := make([]gradalign.Batch[B], 0, (numSamples+batchSize-1)/batchSize)

	for start := 0; start < numSamples; start += batchSize {
		end := min(start+batchSize, numSamples)
		n := end - start

		imageData := make([]float32, 0, n*pixels)
		labelData := make([]int32, 0, n)
		for _, idx := range indices[start:end] {
			imageData = append(imageData, data.Images[idx]...)
			labelData = append(labelData, data.Labels[idx])
		}

		images, err := tensor.FromSlice(imageData, tensor.Shape{n, 1, data.Size, data.Size}, backend)
		if err != nil {
			return nil, fmt.Errorf("failed to create images tensor: %w", err)
		}
		labels, err := tensor.FromSlice(labelData, tensor.Shape{n}, backend)
		if err != nil {
			return nil, fmt.Errorf("failed to create labels tensor: %w", err)
		}

		batches = append(batches, gradalign.Batch[B]{Images: images, Labels: labels})
	}

	return batches, nil
}
