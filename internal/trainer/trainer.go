// Package trainer drives a Model through training and next-day inference.
package trainer

import (
	"context"
	"errors"
	"fmt"

	"PriceOracle/internal/model"
	"PriceOracle/internal/tensor"
)

var (
	// ErrTraining wraps every failure raised by a model's Fit.
	ErrTraining = errors.New("model training failed")
	// ErrNoSamples means Train was called with an empty training set.
	ErrNoSamples = errors.New("no training samples")
)

// TrainConfig holds the fit knobs.
type TrainConfig struct {
	Epochs    int `yaml:"epochs" default:"50" validate:"gt=0"`
	BatchSize int `yaml:"batch_size" default:"32" validate:"gt=0"`
}

// Progress is reported after every completed epoch.
type Progress struct {
	Epoch   int
	Epochs  int
	Percent int
	Loss    float64
}

// ProgressFunc receives training progress. Returning false stops training
// after the current epoch.
type ProgressFunc func(Progress) bool

// Outcome summarizes a finished Train call.
type Outcome struct {
	EpochsRun int
	FinalLoss float64
	Stopped   bool
}

// Percent returns the completion percentage after epoch (zero based),
// rounded up so the first epoch never reports 0.
func Percent(epoch, epochs int) int {
	return ((epoch+1)*100 + epochs - 1) / epochs
}

// Train packs samples and fits m on them. The packed buffers are released
// before Train returns on every path.
func Train(ctx context.Context, m Model, samples []model.Sample, steps, features int, cfg TrainConfig, onProgress ProgressFunc) (Outcome, error) {
	var out Outcome
	if len(samples) == 0 {
		return out, ErrNoSamples
	}
	if cfg.Epochs <= 0 || cfg.BatchSize <= 0 {
		return out, fmt.Errorf("invalid training config: epochs=%d batch_size=%d", cfg.Epochs, cfg.BatchSize)
	}

	xs, ys, err := tensor.PackSamples(samples, steps, features)
	if err != nil {
		return out, fmt.Errorf("pack samples: %w", err)
	}
	defer xs.Release()
	defer ys.Release()

	opts := FitOptions{
		Epochs:    cfg.Epochs,
		BatchSize: cfg.BatchSize,
		OnEpochEnd: func(epoch int, loss float64) bool {
			out.EpochsRun = epoch + 1
			out.FinalLoss = loss
			keepGoing := true
			if onProgress != nil {
				keepGoing = onProgress(Progress{
					Epoch:   epoch,
					Epochs:  cfg.Epochs,
					Percent: Percent(epoch, cfg.Epochs),
					Loss:    loss,
				})
			}
			if ctx.Err() != nil {
				keepGoing = false
			}
			if !keepGoing && epoch+1 < cfg.Epochs {
				out.Stopped = true
			}
			return keepGoing
		},
	}

	if err := m.Fit(ctx, xs, ys, opts); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return out, ctxErr
		}
		return out, fmt.Errorf("%w: %w", ErrTraining, err)
	}
	if err := ctx.Err(); err != nil {
		return out, err
	}
	return out, nil
}
