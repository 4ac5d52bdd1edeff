package nn_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/gradalign/internal/autodiff"
	"github.com/born-ml/gradalign/internal/backend/cpu"
	"github.com/born-ml/gradalign/internal/nn"
	"github.com/born-ml/gradalign/internal/tensor"
)

type Backend = *autodiff.AutodiffBackend[*cpu.CPUBackend]

func TestParameter(t *testing.T) {
	backend := autodiff.New(cpu.New())
	p := nn.NewParameter("weight", tensor.Ones[float32](tensor.Shape{2}, backend))

	assert.Equal(t, "weight", p.Name())
	assert.Nil(t, p.Grad())

	p.SetGrad(tensor.Full[float32](tensor.Shape{2}, 0.5, backend))
	require.NotNil(t, p.Grad())
	assert.Equal(t, []float32{0.5, 0.5}, p.Grad().Data())

	p.ZeroGrad()
	assert.Nil(t, p.Grad())
}

func TestAssignGrads(t *testing.T) {
	backend := autodiff.New(cpu.New())
	a := nn.NewParameter("a", tensor.Ones[float32](tensor.Shape{2}, backend))
	b := nn.NewParameter("b", tensor.Ones[float32](tensor.Shape{1}, backend))
	b.SetGrad(tensor.Ones[float32](tensor.Shape{1}, backend))

	g := tensor.Full[float32](tensor.Shape{2}, 3, backend)
	params := []*nn.Parameter[Backend]{a, b}
	nn.AssignGrads(params, map[*tensor.RawTensor]*tensor.RawTensor{a.Tensor().Raw(): g.Raw()})

	assert.Equal(t, []float32{3, 3}, a.Grad().Data())
	assert.Nil(t, b.Grad(), "a parameter missing from the map loses its stale gradient")
	assert.Equal(t, []*tensor.RawTensor{a.Tensor().Raw(), b.Tensor().Raw()}, nn.RawParameters(params))
}

func TestXavier_BoundsAndSeed(t *testing.T) {
	backend := cpu.New()
	bound := float32(math.Sqrt(6.0 / 12.0))

	a := nn.Xavier(4, 8, tensor.Shape{8, 4}, rand.New(rand.NewSource(9)), backend)
	b := nn.Xavier(4, 8, tensor.Shape{8, 4}, rand.New(rand.NewSource(9)), backend)

	assert.Equal(t, a.Data(), b.Data())
	for _, v := range a.Data() {
		assert.LessOrEqual(t, v, bound)
		assert.GreaterOrEqual(t, v, -bound)
	}
}

func TestLinear_Forward(t *testing.T) {
	backend := autodiff.New(cpu.New())
	layer := nn.NewLinear(3, 2, backend)
	assert.Equal(t, 3, layer.InFeatures())
	assert.Equal(t, 2, layer.OutFeatures())
	require.Len(t, layer.Parameters(), 2)

	copy(layer.Weight().Tensor().Data(), []float32{1, 0, -1, 0.5, 0.5, 0.5})
	copy(layer.Bias().Tensor().Data(), []float32{0.1, -0.1})

	x, err := tensor.FromSlice([]float32{1, 2, 3, 0, 0, 0}, tensor.Shape{2, 3}, backend)
	require.NoError(t, err)

	y := layer.Forward(x)
	assert.Equal(t, tensor.Shape{2, 2}, y.Shape())
	assert.InDeltaSlice(t, []float32{-1.9, 2.9, 0.1, -0.1}, y.Data(), 1e-6)

	assert.Panics(t, func() { layer.Forward(tensor.Zeros[float32](tensor.Shape{2, 4}, backend)) })
	assert.Panics(t, func() { layer.Forward(tensor.Zeros[float32](tensor.Shape{3}, backend)) })
}

func TestLinear_WithoutBias(t *testing.T) {
	backend := autodiff.New(cpu.New())
	layer := nn.NewLinear(2, 2, backend, nn.WithoutBias())
	assert.Nil(t, layer.Bias())
	assert.Len(t, layer.Parameters(), 1)
	assert.NotContains(t, layer.StateDict(), "bias")
}

func TestLinear_Gradients(t *testing.T) {
	backend := autodiff.New(cpu.New())
	layer := nn.NewLinear(2, 1, backend)
	copy(layer.Weight().Tensor().Data(), []float32{2, -1})

	x, err := tensor.FromSlice([]float32{1, 3, 2, 5}, tensor.Shape{2, 2}, backend)
	require.NoError(t, err)

	backend.Tape().StartRecording()
	out := layer.Forward(x).Sum()
	grads := autodiff.Backward(out, backend)

	// d(sum(xW^T + b))/dW = column sums of x, d/db = batch size.
	assert.InDeltaSlice(t, []float32{3, 8}, grads[layer.Weight().Tensor().Raw()].AsFloat32(), 1e-6)
	assert.InDeltaSlice(t, []float32{2}, grads[layer.Bias().Tensor().Raw()].AsFloat32(), 1e-6)
}

func TestLinear_StateDict(t *testing.T) {
	backend := autodiff.New(cpu.New())
	src := nn.NewLinear(3, 2, backend, nn.WithRand(rand.New(rand.NewSource(1))))
	dst := nn.NewLinear(3, 2, backend, nn.WithRand(rand.New(rand.NewSource(2))))
	require.NotEqual(t, src.Weight().Tensor().Data(), dst.Weight().Tensor().Data())

	state := src.StateDict()
	require.NoError(t, dst.LoadStateDict(state))
	assert.Equal(t, src.Weight().Tensor().Data(), dst.Weight().Tensor().Data())

	// The state dict holds copies, not views.
	state["weight"].AsFloat32()[0] = 100
	assert.NotEqual(t, float32(100), src.Weight().Tensor().Data()[0])

	assert.Error(t, dst.LoadStateDict(map[string]*tensor.RawTensor{}))
	assert.Error(t, dst.LoadStateDict(map[string]*tensor.RawTensor{
		"weight": tensor.MustNewRaw(tensor.Shape{2, 2}, tensor.Float32, tensor.CPU),
	}))
	assert.Error(t, dst.LoadStateDict(map[string]*tensor.RawTensor{
		"weight": tensor.MustNewRaw(tensor.Shape{2, 3}, tensor.Float64, tensor.CPU),
	}))
}

func TestFlatten(t *testing.T) {
	backend := cpu.New()
	flatten := nn.NewFlatten[*cpu.CPUBackend]()

	images := tensor.Zeros[float32](tensor.Shape{2, 1, 3, 4}, backend)
	assert.Equal(t, tensor.Shape{2, 12}, flatten.Forward(images).Shape())

	flat := tensor.Zeros[float32](tensor.Shape{2, 5}, backend)
	assert.Same(t, flat, flatten.Forward(flat))
	assert.Nil(t, flatten.Parameters())
}

func TestReLU(t *testing.T) {
	backend := cpu.New()
	x, err := tensor.FromSlice([]float32{-1, 0, 2}, tensor.Shape{3}, backend)
	require.NoError(t, err)

	relu := nn.NewReLU[*cpu.CPUBackend]()
	assert.Equal(t, []float32{0, 0, 2}, relu.Forward(x).Data())
	assert.Nil(t, relu.Parameters())
}

func TestSequential(t *testing.T) {
	backend := autodiff.New(cpu.New())
	rng := rand.New(rand.NewSource(4))

	model := nn.NewSequential[Backend](
		nn.NewFlatten[Backend](),
		nn.NewLinear(4, 3, backend, nn.WithRand(rng)),
		nn.NewReLU[Backend](),
	)
	model.Add(nn.NewLinear(3, 2, backend, nn.WithRand(rng)))

	assert.Equal(t, 4, model.Len())
	assert.Len(t, model.Parameters(), 4)
	assert.IsType(t, &nn.ReLU[Backend]{}, model.Module(2))
	assert.Panics(t, func() { model.Module(4) })

	x := tensor.Ones[float32](tensor.Shape{5, 1, 2, 2}, backend)
	assert.Equal(t, tensor.Shape{5, 2}, model.Forward(x).Shape())

	state := model.StateDict()
	assert.Len(t, state, 4)
	assert.Contains(t, state, "1.weight")
	assert.Contains(t, state, "3.bias")
}

func TestSequential_StateDictRoundTrip(t *testing.T) {
	backend := autodiff.New(cpu.New())
	newModel := func(seed int64) *nn.Sequential[Backend] {
		rng := rand.New(rand.NewSource(seed))
		return nn.NewSequential[Backend](
			nn.NewLinear(4, 3, backend, nn.WithRand(rng)),
			nn.NewReLU[Backend](),
			nn.NewLinear(3, 2, backend, nn.WithRand(rng)),
		)
	}

	src, dst := newModel(1), newModel(2)
	require.NoError(t, dst.LoadStateDict(src.StateDict()))

	x, err := tensor.FromSlice([]float32{0.1, 0.2, 0.3, 0.4}, tensor.Shape{1, 4}, backend)
	require.NoError(t, err)
	assert.Equal(t, src.Forward(x).Data(), dst.Forward(x).Data())

	err = dst.LoadStateDict(map[string]*tensor.RawTensor{})
	assert.ErrorContains(t, err, "module 0")
}

func TestCrossEntropyLoss(t *testing.T) {
	backend := autodiff.New(cpu.New())
	criterion := nn.NewCrossEntropyLoss(backend)

	logits, err := tensor.FromSlice([]float32{0, 0, 2, 0}, tensor.Shape{2, 2}, backend)
	require.NoError(t, err)
	targets, err := tensor.FromSlice([]int32{1, 0}, tensor.Shape{2}, backend)
	require.NoError(t, err)

	backend.Tape().StartRecording()
	loss := criterion.Forward(logits, targets)
	want := (math.Log(2) + math.Log(1+math.Exp(-2))) / 2
	assert.InDelta(t, want, float64(loss.Item()), 1e-6)
	assert.Equal(t, 1, backend.Tape().NumOps())

	grads := autodiff.Backward(loss, backend)
	g := grads[logits.Raw()].AsFloat32()

	// (softmax - onehot) / N
	p := float32(1 / (1 + math.Exp(-2)))
	assert.InDeltaSlice(t, []float32{0.25, -0.25, (p - 1) / 2, (1 - p) / 2}, g, 1e-6)
	assert.Nil(t, criterion.Parameters())
}

func TestCrossEntropyLoss_PlainCPU(t *testing.T) {
	backend := cpu.New()
	criterion := nn.NewCrossEntropyLoss(backend)

	logits := tensor.Zeros[float32](tensor.Shape{3, 4}, backend)
	targets, err := tensor.FromSlice([]int32{0, 1, 3}, tensor.Shape{3}, backend)
	require.NoError(t, err)

	assert.InDelta(t, math.Log(4), float64(criterion.Forward(logits, targets).Item()), 1e-6)
}

func TestAccuracy(t *testing.T) {
	backend := cpu.New()
	logits, err := tensor.FromSlice([]float32{
		0.9, 0.1,
		0.2, 0.8,
		0.6, 0.4,
		0.3, 0.7,
	}, tensor.Shape{4, 2}, backend)
	require.NoError(t, err)
	targets, err := tensor.FromSlice([]int32{0, 1, 1, 1}, tensor.Shape{4}, backend)
	require.NoError(t, err)

	assert.InDelta(t, 0.75, nn.Accuracy(logits, targets), 1e-12)
	assert.Panics(t, func() { nn.Accuracy(tensor.Zeros[float32](tensor.Shape{4}, backend), targets) })
}
