package trainer

import (
	"fmt"
	"math"

	"PriceOracle/internal/calculator"
	"PriceOracle/internal/model"
	"PriceOracle/internal/tensor"
)

// PredictNext runs one forward pass on window and maps the normalized output
// back to price units using bounds.
func PredictNext(m Model, window []model.FeatureVector, steps, features int, bounds model.Bounds) (float64, error) {
	xs, err := tensor.PackWindow(window, steps, features)
	if err != nil {
		return 0, fmt.Errorf("pack window: %w", err)
	}
	defer xs.Release()

	out, err := m.Predict(xs)
	if err != nil {
		return 0, fmt.Errorf("predict: %w", err)
	}
	if len(out) != 1 {
		return 0, fmt.Errorf("predict: expected 1 output, got %d", len(out))
	}
	if math.IsNaN(out[0]) || math.IsInf(out[0], 0) {
		return 0, fmt.Errorf("predict: non-finite output %v", out[0])
	}
	return calculator.Denormalize(out[0], bounds), nil
}
