// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package gradalign provides GradAlign fast adversarial training.
//
// A Trainer runs one training step per call: it perturbs the batch twice
// with uniform noise, aligns the input gradients at both points through a
// cosine-similarity penalty and updates the model on a single-step FGSM
// adversarial example:
//
//	cost = CE(model(X_adv), Y) + lambda * (1 - mean cos(grad1, grad2))
//
// Example:
//
//	type Backend = *autodiff.Backend[*cpu.Backend]
//
//	backend := autodiff.New(cpu.New())
//	model := nn.NewSequential[Backend](
//	    nn.NewFlatten[Backend](),
//	    nn.NewLinear(784, 10, backend),
//	)
//	optimizer := optim.NewSGD(model.Parameters(), optim.SGDConfig{LR: 0.1, Momentum: 0.9}, backend)
//
//	trainer, err := gradalign.New(model, optimizer, backend, gradalign.DefaultConfig())
//	if err != nil { ... }
//
//	res, err := trainer.Step(gradalign.Batch[Backend]{Images: images, Labels: labels})
//	fmt.Println(res.Loss, res.CELoss, res.GALoss)
package gradalign

import (
	"github.com/born-ml/gradalign/internal/gradalign"
	"github.com/born-ml/gradalign/internal/nn"
	"github.com/born-ml/gradalign/internal/optim"
	"github.com/born-ml/gradalign/internal/tensor"
)

// Backend is what a trainer needs from its compute backend.
// *autodiff.Backend[*cpu.Backend] satisfies it.
type Backend = gradalign.Backend

// Trainer runs GradAlign steps against a model and its optimizer.
type Trainer[B Backend] = gradalign.Trainer[B]

// Config holds the trainer hyperparameters.
type Config = gradalign.Config

// DefaultConfig returns eps = 8/255, alpha = 1.25 * eps, lambda = 0.2.
func DefaultConfig() Config {
	return gradalign.DefaultConfig()
}

// New creates a trainer. The optimizer must be bound to model's parameters.
func New[B Backend](model nn.Module[B], optimizer optim.Optimizer, backend B, cfg Config) (*Trainer[B], error) {
	return gradalign.New(model, optimizer, backend, cfg)
}

// Batch is one minibatch of [N, C, H, W] images in [0, 1] and [N] labels.
type Batch[B tensor.Backend] = gradalign.Batch[B]

// StepResult holds Loss, CELoss and GALoss of one step.
type StepResult = gradalign.StepResult

// RecordKeys names the StepResult values in Values order.
var RecordKeys = gradalign.RecordKeys

// Recorder accumulates step results and reports running means.
type Recorder = gradalign.Recorder

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return gradalign.NewRecorder()
}

// Errors returned by New and Trainer.Step.
var (
	ErrInvalidEps    = gradalign.ErrInvalidEps
	ErrInvalidAlpha  = gradalign.ErrInvalidAlpha
	ErrInvalidLambda = gradalign.ErrInvalidLambda
	ErrBatchShape    = gradalign.ErrBatchShape
	ErrLabelRange    = gradalign.ErrLabelRange
)
