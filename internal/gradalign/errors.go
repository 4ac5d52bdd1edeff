package gradalign

import "errors"

var (
	// ErrInvalidEps is returned when the perturbation radius is not a positive finite number.
	ErrInvalidEps = errors.New("gradalign: eps must be positive")
	// ErrInvalidAlpha is returned when the adversarial step size is not a positive finite number.
	ErrInvalidAlpha = errors.New("gradalign: alpha must be positive")
	// ErrInvalidLambda is returned when the penalty weight is negative or not finite.
	ErrInvalidLambda = errors.New("gradalign: lambda must be non-negative")
	// ErrBatchShape is returned when images and labels do not describe the same batch.
	ErrBatchShape = errors.New("gradalign: invalid batch shape")
	// ErrLabelRange is returned when a label is not a valid class index for the model.
	ErrLabelRange = errors.New("gradalign: label out of range")
)
