package trainer

import (
	"context"

	"PriceOracle/internal/tensor"
)

// EpochFunc is called after each completed epoch with the zero-based epoch
// index and its mean loss. Returning false asks the model to stop training.
type EpochFunc func(epoch int, loss float64) bool

// FitOptions controls one Fit call.
type FitOptions struct {
	Epochs     int
	BatchSize  int
	OnEpochEnd EpochFunc
}

// Model is a trainable sequence regressor over windows of shape steps x features.
type Model interface {
	// Fit trains on xs/ys in place. It must call OnEpochEnd once per completed
	// epoch, in epoch order, before starting the next one.
	Fit(ctx context.Context, xs *tensor.Tensor3, ys *tensor.Vector, opts FitOptions) error
	// Predict returns one normalized value per sample of xs.
	Predict(xs *tensor.Tensor3) ([]float64, error)
	Close() error
}

// ArchConfig describes a model architecture as data.
type ArchConfig struct {
	Layers       []int   `yaml:"layers" default:"[64,32]" validate:"min=1,dive,gt=0"`
	Dropout      float64 `yaml:"dropout" default:"0.2" validate:"gte=0,lt=1"`
	LearningRate float64 `yaml:"learning_rate" default:"0.001" validate:"gt=0"`
	Seed         int64   `yaml:"seed" default:"42"`
}

// Factory constructs a fresh model for the given window shape.
type Factory func(cfg ArchConfig, steps, features int) (Model, error)
