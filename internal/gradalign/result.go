package gradalign

import (
	"fmt"
	"strings"
)

// RecordKeys names the values of a StepResult, in the order Values returns them.
var RecordKeys = []string{"Loss", "CELoss", "GALoss"}

// StepResult holds the scalars produced by one training step.
type StepResult struct {
	Loss   float64 // Total objective: CELoss + lambda * GALoss
	CELoss float64 // Cross-entropy on the adversarial batch
	GALoss float64 // Gradient alignment penalty, 1 - mean cosine similarity

	// Aligned is the number of samples whose two input gradients were both
	// non-zero and entered the alignment penalty.
	Aligned int
}

// Values returns Loss, CELoss and GALoss in RecordKeys order.
func (r StepResult) Values() []float64 {
	return []float64{r.Loss, r.CELoss, r.GALoss}
}

// Recorder accumulates step results and reports running means per record key.
type Recorder struct {
	sums  []float64
	count int
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{sums: make([]float64, len(RecordKeys))}
}

// Record adds one step result.
func (r *Recorder) Record(res StepResult) {
	for i, v := range res.Values() {
		r.sums[i] += v
	}
	r.count++
}

// Count returns the number of recorded steps.
func (r *Recorder) Count() int {
	return r.count
}

// Means returns the mean of every record key. Empty recorders report zeros.
func (r *Recorder) Means() map[string]float64 {
	means := make(map[string]float64, len(RecordKeys))
	for i, key := range RecordKeys {
		if r.count == 0 {
			means[key] = 0
			continue
		}
		means[key] = r.sums[i] / float64(r.count)
	}
	return means
}

// Reset discards all recorded steps.
func (r *Recorder) Reset() {
	clear(r.sums)
	r.count = 0
}

// String formats the means as "Loss=... CELoss=... GALoss=...".
func (r *Recorder) String() string {
	means := r.Means()
	parts := make([]string, len(RecordKeys))
	for i, key := range RecordKeys {
		parts[i] = fmt.Sprintf("%s=%.4f", key, means[key])
	}
	return strings.Join(parts, " ")
}
