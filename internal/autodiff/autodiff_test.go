package autodiff_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/gradalign/internal/autodiff"
	"github.com/born-ml/gradalign/internal/backend/cpu"
	"github.com/born-ml/gradalign/internal/tensor"
)

type Backend = *autodiff.AutodiffBackend[*cpu.CPUBackend]

func vec(t *testing.T, backend Backend, values ...float32) *tensor.Tensor[float32, Backend] {
	t.Helper()
	x, err := tensor.FromSlice(values, tensor.Shape{len(values)}, backend)
	require.NoError(t, err)
	return x
}

func TestAutodiffBackend_Metadata(t *testing.T) {
	backend := autodiff.New(cpu.New())
	assert.Equal(t, "Autodiff(CPU)", backend.Name())
	assert.Equal(t, tensor.CPU, backend.Device())
	assert.NotNil(t, backend.Inner())
	assert.Same(t, backend.Tape(), backend.GetTape())
}

func TestTape_Recording(t *testing.T) {
	backend := autodiff.New(cpu.New())
	tape := backend.Tape()
	a := vec(t, backend, 1, 2)
	b := vec(t, backend, 3, 4)

	a.Add(b)
	assert.Equal(t, 0, tape.NumOps(), "nothing is recorded before StartRecording")

	tape.StartRecording()
	a.Add(b).Mul(a)
	assert.Equal(t, 2, tape.NumOps())

	tape.Clear()
	assert.Equal(t, 0, tape.NumOps())
	assert.True(t, tape.IsRecording(), "Clear preserves the recording state")
}

func TestNoGrad_Nested(t *testing.T) {
	backend := autodiff.New(cpu.New())
	tape := backend.Tape()
	tape.StartRecording()

	a := vec(t, backend, 1, 2)
	a.Add(a)
	initial := tape.NumOps()

	backend.NoGrad(func() {
		a.Mul(a)
		backend.NoGrad(func() {
			a.Sub(a)
		})
		assert.False(t, tape.IsRecording())
		a.Div(a)
	})

	assert.Equal(t, initial, tape.NumOps())
	assert.True(t, tape.IsRecording())

	tape.StopRecording()
	backend.NoGrad(func() {})
	assert.False(t, tape.IsRecording())
}

func TestBackward_ChainRule(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	// z = (x + y) * x  ->  dz/dx = 2x + y, dz/dy = x
	x := vec(t, backend, 2, 3)
	y := vec(t, backend, 1, -1)
	z := x.Add(y).Mul(x)

	grads := autodiff.Backward(z, backend)
	assert.Equal(t, []float32{5, 5}, grads[x.Raw()].AsFloat32())
	assert.Equal(t, []float32{2, 3}, grads[y.Raw()].AsFloat32())
}

func TestBackward_PanicsOnEmptyTape(t *testing.T) {
	backend := autodiff.New(cpu.New())
	x := vec(t, backend, 1)
	assert.Panics(t, func() { autodiff.Backward(x, backend) })
}

func TestBackward_DoesNotRecord(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	x := vec(t, backend, 1, 2, 3)
	y := x.Mul(x).Exp().Sum()
	n := backend.Tape().NumOps()

	autodiff.Backward(y, backend)
	assert.Equal(t, n, backend.Tape().NumOps())
	assert.True(t, backend.Tape().IsRecording())
}

func TestGrad_CreateGraphRecordsBackward(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	x := vec(t, backend, 1, 2)
	y := x.Mul(x).Sum()
	n := backend.Tape().NumOps()

	backend.Grad(y.Raw(), []*tensor.RawTensor{x.Raw()}, false)
	assert.Equal(t, n, backend.Tape().NumOps())

	backend.Grad(y.Raw(), []*tensor.RawTensor{x.Raw()}, true)
	assert.Greater(t, backend.Tape().NumOps(), n)
	assert.True(t, backend.Tape().IsRecording())
}

func TestGrad_UnreachedInputGetsZeros(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	x := vec(t, backend, 1, 2)
	unused := vec(t, backend, 5, 6, 7)
	y := x.Mul(x).Sum()

	grads := backend.Grad(y.Raw(), []*tensor.RawTensor{x.Raw(), unused.Raw()}, false)
	assert.Equal(t, []float32{2, 4}, grads[0].AsFloat32())
	assert.Equal(t, []float32{0, 0, 0}, grads[1].AsFloat32())
	assert.Equal(t, unused.Shape(), grads[1].Shape())
}

func TestGrad_OnlyDifferentiatesDependentOps(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	// w is used on a branch that does not depend on x; Grad w.r.t. x must not
	// touch it, yet still see w as a constant factor.
	x := vec(t, backend, 1, 2)
	w := vec(t, backend, 3, 4)
	ww := w.Mul(w)
	y := x.Mul(ww).Sum()

	grads := backend.Grad(y.Raw(), []*tensor.RawTensor{x.Raw()}, false)
	assert.Equal(t, []float32{9, 16}, grads[0].AsFloat32())
}

func TestGrad_SecondDerivativeOfCube(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	// y = sum(x³), dy/dx = 3x², d(sum(dy/dx))/dx = 6x
	x := vec(t, backend, 1, -2, 0.5)
	y := x.Mul(x).Mul(x).Sum()

	dx := tensor.New[float32](backend.Grad(y.Raw(), []*tensor.RawTensor{x.Raw()}, true)[0], backend)
	assert.InDeltaSlice(t, []float32{3, 12, 0.75}, dx.Data(), 1e-6)

	d2 := backend.Grad(dx.Sum().Raw(), []*tensor.RawTensor{x.Raw()}, false)[0]
	assert.InDeltaSlice(t, []float32{6, -12, 3}, d2.AsFloat32(), 1e-5)
}

func TestGrad_DoubleBackpropIntoWeights(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	// y = sum((x * w)²): dy/dx = 2 x w², and d(sum(dy/dx))/dw = 4 x w.
	x := vec(t, backend, 1, 2)
	w := vec(t, backend, 3, -1)
	xw := x.Mul(w)
	y := xw.Mul(xw).Sum()

	dx := tensor.New[float32](backend.Grad(y.Raw(), []*tensor.RawTensor{x.Raw()}, true)[0], backend)
	assert.InDeltaSlice(t, []float32{18, 4}, dx.Data(), 1e-5)

	grads := autodiff.Backward(dx.Sum(), backend)
	assert.InDeltaSlice(t, []float32{12, -8}, grads[w.Raw()].AsFloat32(), 1e-5)
}

func TestDetach(t *testing.T) {
	backend := autodiff.New(cpu.New())
	backend.Tape().StartRecording()

	x := vec(t, backend, 1, 2)
	y := x.Mul(x)
	detached := y.Detach()

	assert.Equal(t, y.Data(), detached.Data())
	assert.NotSame(t, y.Raw(), detached.Raw())

	z := detached.Mul(x).Sum()
	grads := autodiff.Backward(z, backend)

	// Only the direct factor reaches x: dz/dx = detached.
	assert.Equal(t, []float32{1, 4}, grads[x.Raw()].AsFloat32())
}
