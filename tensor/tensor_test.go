// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor_test

import (
	"math/rand"
	"testing"

	"github.com/born-ml/gradalign/internal/backend/cpu"
	"github.com/born-ml/gradalign/tensor"
)

// TestBackendInterface verifies that cpu.CPUBackend implements tensor.Backend.
func TestBackendInterface(_ *testing.T) {
	var _ tensor.Backend = (*cpu.CPUBackend)(nil)
	var _ tensor.CrossEntropyBackend = (*cpu.CPUBackend)(nil)
}

// TestRawTensorAPI verifies RawTensor type alias exposes expected API.
func TestRawTensorAPI(t *testing.T) {
	raw, err := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw failed: %v", err)
	}
	if !raw.Shape().Equal(tensor.Shape{2, 3}) {
		t.Errorf("Shape() = %v, want [2 3]", raw.Shape())
	}
	if raw.DType() != tensor.Float32 {
		t.Errorf("DType() = %v, want float32", raw.DType())
	}
	if raw.NumElements() != 6 {
		t.Errorf("NumElements() = %d, want 6", raw.NumElements())
	}
}

// TestCreationAPI verifies the re-exported constructors.
func TestCreationAPI(t *testing.T) {
	backend := cpu.New()

	x, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2}, backend)
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}
	y := tensor.Cat([]*tensor.Tensor[float32, *cpu.CPUBackend]{x, tensor.Ones[float32](tensor.Shape{1, 2}, backend)}, 0)
	if !y.Shape().Equal(tensor.Shape{3, 2}) {
		t.Errorf("Cat shape = %v, want [3 2]", y.Shape())
	}

	noise := tensor.RandUniform[float32](tensor.Shape{16}, -0.5, 0.5, rand.New(rand.NewSource(1)), backend)
	for _, v := range noise.Data() {
		if v < -0.5 || v > 0.5 {
			t.Errorf("RandUniform value %v outside [-0.5, 0.5]", v)
		}
	}

	if got := tensor.Full[float32](tensor.Shape{}, 2, backend).Item(); got != 2 {
		t.Errorf("Full scalar = %v, want 2", got)
	}
	if got := tensor.Zeros[float64](tensor.Shape{3}, backend).Data(); len(got) != 3 {
		t.Errorf("Zeros length = %d, want 3", len(got))
	}
}
