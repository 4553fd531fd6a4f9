package calculator

// NeutralRSI is emitted while the RSI period is still calibrating.
const NeutralRSI = 50.0

// zeroLossRS is substituted for RS when a window contains no losses. This pins
// RSI at 100-100/101 rather than 100.
const zeroLossRS = 100.0

// RelativeStrengthIndex returns one value per input price. Indices below period
// are NeutralRSI. From index period on, the value covers the trailing period
// day-over-day differences ending at that index, maintained as running sums.
func RelativeStrengthIndex(prices []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, errBadPeriod
	}
	out := make([]float64, len(prices))
	var gains, losses float64
	// losing days inside the window, kept exactly so float drift in losses
	// cannot hide a zero-loss window
	lossDays := 0

	for i := range prices {
		if i == 0 {
			out[i] = NeutralRSI
			continue
		}
		d := prices[i] - prices[i-1]
		if d >= 0 {
			gains += d
		} else {
			losses -= d
			lossDays++
		}
		if i > period {
			old := prices[i-period] - prices[i-period-1]
			if old >= 0 {
				gains -= old
			} else {
				losses += old
				lossDays--
			}
		}
		if i < period {
			out[i] = NeutralRSI
			continue
		}
		if lossDays == 0 {
			losses = 0
		}
		if gains < 0 {
			gains = 0
		}
		out[i] = rsiValue(gains/float64(period), losses/float64(period))
	}
	return out, nil
}

func rsiValue(avgGain, avgLoss float64) float64 {
	rs := zeroLossRS
	if avgLoss != 0 {
		rs = avgGain / avgLoss
	}
	return 100 - 100/(1+rs)
}
