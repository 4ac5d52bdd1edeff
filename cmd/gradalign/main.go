// Package main trains a small classifier with GradAlign fast adversarial
// training on synthetic data.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/rand"
	"os"

	"github.com/born-ml/gradalign/autodiff"
	"github.com/born-ml/gradalign/backend/cpu"
	"github.com/born-ml/gradalign/gradalign"
	"github.com/born-ml/gradalign/nn"
	"github.com/born-ml/gradalign/optim"
)

const version = "v0.1.0-dev"

// Backend is the autodiff CPU backend the demo trains on.
type Backend = *autodiff.Backend[*cpu.Backend]

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("gradalign %s\n", version)
		return
	}

	defaults := gradalign.DefaultConfig()
	eps := flag.Float64("eps", defaults.Eps, "Radius of the L-inf perturbation ball")
	alpha := flag.Float64("alpha", defaults.Alpha, "Step size of the fast adversarial step")
	lambda := flag.Float64("lambda", defaults.Lambda, "Weight of the gradient alignment penalty")
	lr := flag.Float64("lr", 0.05, "Learning rate for SGD")
	batchSize := flag.Int("batch", 32, "Batch size for training")
	epochs := flag.Int("epochs", 5, "Number of training epochs")
	samples := flag.Int("samples", 512, "Number of synthetic samples")
	size := flag.Int("size", 8, "Side length of the synthetic images")
	seed := flag.Int64("seed", 0, "Seed for data, weights and perturbations")
	randomStart := flag.Bool("random-start", false, "Take the adversarial step from the perturbed batch")
	verbose := flag.Bool("v", false, "Log every step at debug level")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	//nolint:gosec // Synthetic data and initialization are not security-critical
	rng := rand.New(rand.NewSource(*seed))
	backend := autodiff.New(cpu.New())

	data := NewSyntheticDataset(*samples, *size, 0.25, rng)
	trainData, valData := data.Split(0.2)
	fmt.Printf("Data: %d train, %d validation samples of %dx%d\n",
		trainData.NumSamples(), valData.NumSamples(), *size, *size)

	features := *size * *size
	model := nn.NewSequential[Backend](
		nn.NewFlatten[Backend](),
		nn.NewLinear(features, 32, backend, nn.WithRand(rng)),
		nn.NewReLU[Backend](),
		nn.NewLinear(32, 2, backend, nn.WithRand(rng)),
	)
	optimizer := optim.NewSGD(model.Parameters(), optim.SGDConfig{
		LR:       float32(*lr),
		Momentum: 0.9,
	}, backend)

	trainer, err := gradalign.New(model, optimizer, backend, gradalign.Config{
		Eps:         *eps,
		Alpha:       *alpha,
		Lambda:      *lambda,
		RandomStart: *randomStart,
		Seed:        *seed,
		Logger:      logger,
	})
	if err != nil {
		log.Fatalf("Failed to create trainer: %v", err)
	}

	valBatches, err := CreateBatches(valData, 256, nil, backend)
	if err != nil {
		log.Fatalf("Failed to create validation batches: %v", err)
	}

	fmt.Printf("GradAlign: eps=%.4f alpha=%.4f lambda=%.3f random-start=%t\n",
		*eps, *alpha, *lambda, *randomStart)

	recorder := gradalign.NewRecorder()
	for epoch := 0; epoch < *epochs; epoch++ {
		batches, err := CreateBatches(trainData, *batchSize, rng, backend)
		if err != nil {
			log.Fatalf("Failed to create train batches: %v", err)
		}

		recorder.Reset()
		for _, batch := range batches {
			res, err := trainer.Step(batch)
			if err != nil {
				log.Fatalf("Training step failed: %v", err)
			}
			recorder.Record(res)
		}

		fmt.Printf("Epoch %2d/%d: %s, Val Acc=%.2f%%\n",
			epoch+1, *epochs, recorder, validate(model, valBatches)*100)
	}
}

// validate returns the clean accuracy of model over batches.
func validate(model nn.Module[Backend], batches []gradalign.Batch[Backend]) float64 {
	correct, total := 0.0, 0
	for _, batch := range batches {
		acc := nn.Accuracy(model.Forward(batch.Images), batch.Labels)
		correct += acc * float64(batch.Size())
		total += batch.Size()
	}
	if total == 0 {
		return 0
	}
	return correct / float64(total)
}
