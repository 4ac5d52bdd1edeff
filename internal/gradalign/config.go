package gradalign

import (
	"fmt"
	"io"
	"log/slog"
	"math"
)

// Config holds the hyperparameters of a GradAlign trainer.
type Config struct {
	Eps    float64 // Radius of the L∞ perturbation ball (must be > 0)
	Alpha  float64 // Step size of the fast adversarial step (must be > 0)
	Lambda float64 // Weight of the gradient alignment penalty (must be >= 0)

	// RandomStart takes the fast adversarial step from the randomly perturbed
	// copy of the batch instead of from the clean batch. The eps-ball and pixel
	// clamps are the same in both modes.
	RandomStart bool

	Seed   int64        // Seed of the perturbation sampler
	Logger *slog.Logger // Step logger (default: discards everything)
}

// DefaultConfig returns the CIFAR-10 setting of the GradAlign paper:
// eps = 8/255, alpha = 1.25 * eps, lambda = 0.2.
func DefaultConfig() Config {
	eps := 8.0 / 255.0
	return Config{
		Eps:    eps,
		Alpha:  1.25 * eps,
		Lambda: 0.2,
	}
}

// Validate checks the hyperparameters.
func (c Config) Validate() error {
	if !(c.Eps > 0) || math.IsInf(c.Eps, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidEps, c.Eps)
	}
	if !(c.Alpha > 0) || math.IsInf(c.Alpha, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidAlpha, c.Alpha)
	}
	if !(c.Lambda >= 0) || math.IsInf(c.Lambda, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidLambda, c.Lambda)
	}
	return nil
}

func (c Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
