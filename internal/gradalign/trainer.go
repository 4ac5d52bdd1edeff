// Package gradalign implements one step of GradAlign fast adversarial training.
//
// A step perturbs the batch twice with independent uniform noise, computes the
// input gradients at both points with a retained graph, builds a single-step
// FGSM adversarial example from the first gradient and minimizes
//
//	cost = CE(model(X_adv), Y) + lambda * (1 - mean_i cos(grad1_i, grad2_i))
//
// with one optimizer update. The penalty is differentiated through the input
// gradients themselves, so the update carries second-order terms in the model
// weights.
//
// Reference: "Understanding and Improving Fast Adversarial Training"
// (Andriushchenko & Flammarion, 2020).
package gradalign

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/born-ml/gradalign/internal/autodiff"
	"github.com/born-ml/gradalign/internal/nn"
	"github.com/born-ml/gradalign/internal/optim"
	"github.com/born-ml/gradalign/internal/tensor"
)

// Backend is what a trainer needs from its compute backend: recorded
// operations, gradients with graph retention and a recording pause.
//
// *autodiff.AutodiffBackend[*cpu.CPUBackend] satisfies it.
type Backend interface {
	autodiff.BackwardCapable
	tensor.CrossEntropyBackend
	Grad(output *tensor.RawTensor, inputs []*tensor.RawTensor, createGraph bool) []*tensor.RawTensor
	NoGrad(fn func())
}

// Trainer runs GradAlign steps against a model and its optimizer.
//
// A Trainer is not safe for concurrent use. Steps against the same model and
// optimizer must be serialized by the caller.
type Trainer[B Backend] struct {
	model     nn.Module[B]
	optimizer optim.Optimizer
	backend   B
	criterion *nn.CrossEntropyLoss[B]

	eps, alpha, lambda float64
	randomStart        bool

	rng    *rand.Rand
	logger *slog.Logger
}

// New creates a trainer. The optimizer must be bound to model's parameters.
func New[B Backend](model nn.Module[B], optimizer optim.Optimizer, backend B, cfg Config) (*Trainer[B], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if model == nil || optimizer == nil {
		return nil, fmt.Errorf("gradalign: model and optimizer are required")
	}

	return &Trainer[B]{
		model:       model,
		optimizer:   optimizer,
		backend:     backend,
		criterion:   nn.NewCrossEntropyLoss(backend),
		eps:         cfg.Eps,
		alpha:       cfg.Alpha,
		lambda:      cfg.Lambda,
		randomStart: cfg.RandomStart,
		//nolint:gosec // Perturbation sampling is not security-critical
		rng:    rand.New(rand.NewSource(cfg.Seed)),
		logger: cfg.logger(),
	}, nil
}

// Reseed restarts the perturbation sampler from seed.
func (t *Trainer[B]) Reseed(seed int64) {
	t.rng.Seed(seed)
}

// Step runs one GradAlign iteration on batch and applies one optimizer update.
//
// The model parameters and the optimizer state are mutated exactly once, by
// ZeroGrad followed by Step. The gradient tape is cleared before returning and
// its recording state is restored.
func (t *Trainer[B]) Step(batch Batch[B]) (StepResult, error) {
	if err := batch.Validate(); err != nil {
		return StepResult{}, err
	}

	tape := t.backend.GetTape()
	wasRecording := tape.IsRecording()
	tape.Clear()
	tape.StartRecording()
	defer func() {
		tape.Clear()
		if !wasRecording {
			tape.StopRecording()
		}
	}()

	p := t.perturb(batch.Images)
	logits := t.model.Forward(p.images)
	if err := checkLabels(batch.Labels.Data(), logits.Shape()[1]); err != nil {
		return StepResult{}, err
	}

	grad1, grad2 := t.jointGradients(p, logits, batch.Labels)
	xAdv := t.fastAdversarial(batch.Images, p, grad1)
	ga, aligned := t.alignmentLoss(grad1, grad2)

	ce := t.criterion.Forward(t.model.Forward(xAdv), batch.Labels)
	cost := ce
	gaValue := 0.0
	if ga != nil {
		cost = ce.Add(ga.MulScalar(t.lambda))
		gaValue = float64(ga.Item())
	}

	t.optimizer.ZeroGrad()
	grads := autodiff.Backward(cost, t.backend)
	nn.AssignGrads(t.model.Parameters(), grads)
	t.optimizer.Step(grads)

	res := StepResult{
		Loss:    float64(cost.Item()),
		CELoss:  float64(ce.Item()),
		GALoss:  gaValue,
		Aligned: aligned,
	}
	t.logger.Debug("gradalign step",
		"batch", batch.Size(),
		"loss", res.Loss,
		"ce_loss", res.CELoss,
		"ga_loss", res.GALoss,
		"aligned", res.Aligned,
		"tape_ops", tape.NumOps(),
	)
	return res, nil
}
