package gradalign_test

import (
	"bytes"
	"log/slog"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/gradalign/internal/autodiff"
	"github.com/born-ml/gradalign/internal/backend/cpu"
	"github.com/born-ml/gradalign/internal/gradalign"
	"github.com/born-ml/gradalign/internal/nn"
	"github.com/born-ml/gradalign/internal/optim"
	"github.com/born-ml/gradalign/internal/tensor"
)

type Backend = *autodiff.AutodiffBackend[*cpu.CPUBackend]

// linearModel flattens [N, 1, 2, 2] images into a 4 -> 2 linear classifier.
func linearModel(backend Backend, seed int64) *nn.Sequential[Backend] {
	rng := rand.New(rand.NewSource(seed))
	return nn.NewSequential[Backend](
		nn.NewFlatten[Backend](),
		nn.NewLinear(4, 2, backend, nn.WithRand(rng)),
	)
}

// mlpModel is a small ReLU network over [N, 1, 4, 4] images with 3 classes.
func mlpModel(backend Backend, seed int64) *nn.Sequential[Backend] {
	rng := rand.New(rand.NewSource(seed))
	return nn.NewSequential[Backend](
		nn.NewFlatten[Backend](),
		nn.NewLinear(16, 8, backend, nn.WithRand(rng)),
		nn.NewReLU[Backend](),
		nn.NewLinear(8, 3, backend, nn.WithRand(rng)),
	)
}

func constantBatch(t *testing.T, backend Backend) gradalign.Batch[Backend] {
	t.Helper()
	images := tensor.Full[float32](tensor.Shape{4, 1, 2, 2}, 0.5, backend)
	labels, err := tensor.FromSlice([]int32{0, 1, 0, 1}, tensor.Shape{4}, backend)
	require.NoError(t, err)
	return gradalign.Batch[Backend]{Images: images, Labels: labels}
}

func randomBatch(t *testing.T, backend Backend, seed int64) gradalign.Batch[Backend] {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	images := tensor.RandUniform[float32](tensor.Shape{6, 1, 4, 4}, 0, 1, rng, backend)
	labels, err := tensor.FromSlice([]int32{0, 1, 2, 0, 1, 2}, tensor.Shape{6}, backend)
	require.NoError(t, err)
	return gradalign.Batch[Backend]{Images: images, Labels: labels}
}

func newTrainer(t *testing.T, model nn.Module[Backend], backend Backend, cfg gradalign.Config) *gradalign.Trainer[Backend] {
	t.Helper()
	opt := optim.NewSGD(model.Parameters(), optim.SGDConfig{LR: 0.1, Momentum: 0.9}, backend)
	trainer, err := gradalign.New(model, opt, backend, cfg)
	require.NoError(t, err)
	return trainer
}

func paramData(model nn.Module[Backend]) [][]float32 {
	var out [][]float32
	for _, p := range model.Parameters() {
		out = append(out, append([]float32(nil), p.Tensor().Data()...))
	}
	return out
}

func TestConfig_Validate(t *testing.T) {
	valid := gradalign.Config{Eps: 0.03, Alpha: 0.05, Lambda: 1}

	tests := []struct {
		name   string
		mutate func(c *gradalign.Config)
		err    error
	}{
		{"valid", func(_ *gradalign.Config) {}, nil},
		{"zero lambda", func(c *gradalign.Config) { c.Lambda = 0 }, nil},
		{"zero eps", func(c *gradalign.Config) { c.Eps = 0 }, gradalign.ErrInvalidEps},
		{"negative eps", func(c *gradalign.Config) { c.Eps = -0.1 }, gradalign.ErrInvalidEps},
		{"NaN eps", func(c *gradalign.Config) { c.Eps = math.NaN() }, gradalign.ErrInvalidEps},
		{"zero alpha", func(c *gradalign.Config) { c.Alpha = 0 }, gradalign.ErrInvalidAlpha},
		{"infinite alpha", func(c *gradalign.Config) { c.Alpha = math.Inf(1) }, gradalign.ErrInvalidAlpha},
		{"negative lambda", func(c *gradalign.Config) { c.Lambda = -1 }, gradalign.ErrInvalidLambda},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := gradalign.DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.InDelta(t, 8.0/255.0, cfg.Eps, 1e-12)
	assert.InDelta(t, 1.25*cfg.Eps, cfg.Alpha, 1e-12)
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	backend := autodiff.New(cpu.New())
	model := linearModel(backend, 1)
	opt := optim.NewSGD(model.Parameters(), optim.SGDConfig{LR: 0.1}, backend)

	_, err := gradalign.New[Backend](model, opt, backend, gradalign.Config{Eps: 0, Alpha: 0.05})
	assert.ErrorIs(t, err, gradalign.ErrInvalidEps)
}

func TestStep_EndToEnd(t *testing.T) {
	backend := autodiff.New(cpu.New())
	model := linearModel(backend, 7)
	trainer := newTrainer(t, model, backend, gradalign.Config{Eps: 0.03, Alpha: 0.05, Lambda: 1.0, Seed: 1})

	before := paramData(model)
	res, err := trainer.Step(constantBatch(t, backend))
	require.NoError(t, err)

	for i, v := range res.Values() {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "%s = %v", gradalign.RecordKeys[i], v)
	}
	// A 2-class linear model has collinear input gradients, so the penalty is
	// zero up to float32 rounding.
	assert.InDelta(t, 0, res.GALoss, 1e-5)
	if res.GALoss >= 0 {
		assert.GreaterOrEqual(t, res.Loss, res.CELoss)
	}
	assert.InDelta(t, res.CELoss+res.GALoss, res.Loss, 1e-5)
	assert.Equal(t, 4, res.Aligned)

	assert.NotEqual(t, before, paramData(model), "one optimizer step must update the parameters")
}

func TestStep_LambdaZeroAblatesPenalty(t *testing.T) {
	backend := autodiff.New(cpu.New())
	model := mlpModel(backend, 3)
	trainer := newTrainer(t, model, backend, gradalign.Config{Eps: 0.1, Alpha: 0.125, Lambda: 0, Seed: 5})

	for i := 0; i < 3; i++ {
		res, err := trainer.Step(randomBatch(t, backend, int64(i)))
		require.NoError(t, err)
		assert.Equal(t, res.CELoss, res.Loss)
	}
}

func TestStep_PenaltyChangesUpdate(t *testing.T) {
	run := func(lambda float64) [][]float32 {
		backend := autodiff.New(cpu.New())
		model := mlpModel(backend, 11)
		trainer := newTrainer(t, model, backend, gradalign.Config{Eps: 0.3, Alpha: 0.375, Lambda: lambda, Seed: 2})
		res, err := trainer.Step(randomBatch(t, backend, 9))
		require.NoError(t, err)
		require.Positive(t, res.Aligned)
		return paramData(model)
	}

	// Same seed and data: the updates differ only through the second-order
	// contribution of the penalty.
	assert.NotEqual(t, run(0), run(10))
}

func TestStep_Deterministic(t *testing.T) {
	cfg := gradalign.Config{Eps: 0.1, Alpha: 0.125, Lambda: 0.5, Seed: 42}

	run := func() ([]gradalign.StepResult, [][]float32) {
		backend := autodiff.New(cpu.New())
		model := mlpModel(backend, 13)
		trainer := newTrainer(t, model, backend, cfg)

		var results []gradalign.StepResult
		for i := 0; i < 3; i++ {
			res, err := trainer.Step(randomBatch(t, backend, int64(100+i)))
			require.NoError(t, err)
			results = append(results, res)
		}
		return results, paramData(model)
	}

	resA, paramsA := run()
	resB, paramsB := run()
	assert.Equal(t, resA, resB)
	assert.Equal(t, paramsA, paramsB)
}

func TestStep_ReseedRestartsSampler(t *testing.T) {
	backend := autodiff.New(cpu.New())
	model := mlpModel(backend, 17)
	initial := model.StateDict()
	trainer := newTrainer(t, model, backend, gradalign.Config{Eps: 0.1, Alpha: 0.125, Lambda: 0.5, Seed: 3})
	batch := randomBatch(t, backend, 1)

	first, err := trainer.Step(batch)
	require.NoError(t, err)

	// Fresh model weights and optimizer, same sampler position.
	require.NoError(t, model.LoadStateDict(initial))
	trainer = newTrainer(t, model, backend, gradalign.Config{Eps: 0.1, Alpha: 0.125, Lambda: 0.5, Seed: 99})
	trainer.Reseed(3)

	second, err := trainer.Step(batch)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestStep_BatchShapeErrors(t *testing.T) {
	backend := autodiff.New(cpu.New())
	model := linearModel(backend, 1)
	trainer := newTrainer(t, model, backend, gradalign.Config{Eps: 0.03, Alpha: 0.05, Lambda: 1})

	labels4, err := tensor.FromSlice([]int32{0, 1, 0, 1}, tensor.Shape{4}, backend)
	require.NoError(t, err)
	labels3, err := tensor.FromSlice([]int32{0, 1, 0}, tensor.Shape{3}, backend)
	require.NoError(t, err)

	tests := []struct {
		name  string
		batch gradalign.Batch[Backend]
	}{
		{"missing labels", gradalign.Batch[Backend]{Images: tensor.Zeros[float32](tensor.Shape{4, 1, 2, 2}, backend)}},
		{"3D images", gradalign.Batch[Backend]{Images: tensor.Zeros[float32](tensor.Shape{4, 2, 2}, backend), Labels: labels4}},
		{"count mismatch", gradalign.Batch[Backend]{Images: tensor.Zeros[float32](tensor.Shape{4, 1, 2, 2}, backend), Labels: labels3}},
	}

	before := paramData(model)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := trainer.Step(tt.batch)
			assert.ErrorIs(t, err, gradalign.ErrBatchShape)
		})
	}
	assert.Equal(t, before, paramData(model))
}

func TestStep_LabelOutOfRange(t *testing.T) {
	backend := autodiff.New(cpu.New())
	model := linearModel(backend, 1)
	trainer := newTrainer(t, model, backend, gradalign.Config{Eps: 0.03, Alpha: 0.05, Lambda: 1})

	batch := constantBatch(t, backend)
	batch.Labels.Data()[2] = 2

	before := paramData(model)
	_, err := trainer.Step(batch)
	assert.ErrorIs(t, err, gradalign.ErrLabelRange)
	assert.Equal(t, before, paramData(model))
	assert.Equal(t, 0, backend.Tape().NumOps())
}

func TestStep_RestoresTapeState(t *testing.T) {
	backend := autodiff.New(cpu.New())
	model := linearModel(backend, 1)
	trainer := newTrainer(t, model, backend, gradalign.Config{Eps: 0.03, Alpha: 0.05, Lambda: 1})

	_, err := trainer.Step(constantBatch(t, backend))
	require.NoError(t, err)
	assert.False(t, backend.Tape().IsRecording())
	assert.Equal(t, 0, backend.Tape().NumOps())

	backend.Tape().StartRecording()
	_, err = trainer.Step(constantBatch(t, backend))
	require.NoError(t, err)
	assert.True(t, backend.Tape().IsRecording())
	assert.Equal(t, 0, backend.Tape().NumOps())
}

func TestStep_RandomStart(t *testing.T) {
	backend := autodiff.New(cpu.New())
	model := mlpModel(backend, 23)
	trainer := newTrainer(t, model, backend, gradalign.Config{Eps: 0.1, Alpha: 0.125, Lambda: 0.5, RandomStart: true, Seed: 8})

	res, err := trainer.Step(randomBatch(t, backend, 4))
	require.NoError(t, err)
	assert.False(t, math.IsNaN(res.Loss))
	assert.InDelta(t, res.CELoss+0.5*res.GALoss, res.Loss, 1e-5)
}

func TestStep_LogsAtDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	backend := autodiff.New(cpu.New())
	model := linearModel(backend, 1)
	trainer := newTrainer(t, model, backend, gradalign.Config{Eps: 0.03, Alpha: 0.05, Lambda: 1, Logger: logger})

	_, err := trainer.Step(constantBatch(t, backend))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "gradalign step")
	assert.Contains(t, buf.String(), "ga_loss=")
}

func TestRecorder(t *testing.T) {
	rec := gradalign.NewRecorder()
	assert.Equal(t, map[string]float64{"Loss": 0, "CELoss": 0, "GALoss": 0}, rec.Means())

	rec.Record(gradalign.StepResult{Loss: 1.0, CELoss: 0.8, GALoss: 0.2})
	rec.Record(gradalign.StepResult{Loss: 3.0, CELoss: 2.4, GALoss: 0.6})

	assert.Equal(t, 2, rec.Count())
	means := rec.Means()
	assert.InDelta(t, 2.0, means["Loss"], 1e-12)
	assert.InDelta(t, 1.6, means["CELoss"], 1e-12)
	assert.InDelta(t, 0.4, means["GALoss"], 1e-12)
	assert.Equal(t, "Loss=2.0000 CELoss=1.6000 GALoss=0.4000", rec.String())

	rec.Reset()
	assert.Equal(t, 0, rec.Count())
}

func TestStepResult_Values(t *testing.T) {
	res := gradalign.StepResult{Loss: 1, CELoss: 2, GALoss: 3}
	assert.Equal(t, []float64{1, 2, 3}, res.Values())
	assert.Equal(t, []string{"Loss", "CELoss", "GALoss"}, gradalign.RecordKeys)
}
