package calculator

import "errors"

var errBadPeriod = errors.New("period must be positive")

// SimpleMovingAverage returns one value per input price. Indices with fewer than
// period prices of history carry the raw price through instead of a mean.
func SimpleMovingAverage(prices []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, errBadPeriod
	}
	out := make([]float64, len(prices))
	sum := 0.0
	for i, p := range prices {
		sum += p
		if i >= period {
			sum -= prices[i-period]
		}
		if i < period-1 {
			out[i] = p
			continue
		}
		out[i] = sum / float64(period)
	}
	return out, nil
}
