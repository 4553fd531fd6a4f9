package calculator

import (
	"errors"
	"math"

	"PriceOracle/internal/model"
)

// FindBounds scans values for their min and max.
func FindBounds(values []float64) (model.Bounds, error) {
	if len(values) == 0 {
		return model.Bounds{}, errors.New("no values provided")
	}
	b := model.Bounds{Min: math.Inf(1), Max: math.Inf(-1)}
	for _, v := range values {
		if v < b.Min {
			b.Min = v
		}
		if v > b.Max {
			b.Max = v
		}
	}
	return b, nil
}

// Normalize maps v into the unit range defined by b.
func Normalize(v float64, b model.Bounds) float64 {
	return (v - b.Min) / b.Range()
}

// Denormalize is the inverse of Normalize for a non-degenerate range.
func Denormalize(n float64, b model.Bounds) float64 {
	return n*(b.Max-b.Min) + b.Min
}

// NormalizeRSI maps an RSI value from [0,100] into [0,1].
func NormalizeRSI(rsi float64) float64 {
	return rsi / 100
}

// NormalizeSentiment maps a sentiment score from [-1,1] into [0,1].
func NormalizeSentiment(s float64) float64 {
	return (s + 1) / 2
}
