package features

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"PriceOracle/internal/calculator"
	"PriceOracle/internal/model"
)

// ErrInsufficientHistory is matched by every HistoryError.
var ErrInsufficientHistory = errors.New("insufficient history")

// HistoryError reports a history too short to yield one window plus a label.
type HistoryError struct {
	Days   int
	Window int
}

func (e *HistoryError) Error() string {
	return fmt.Sprintf("insufficient history: have %d days, need at least %d", e.Days, e.Window+1)
}

func (e *HistoryError) Is(target error) bool { return target == ErrInsufficientHistory }

// Input is one aligned, oldest-first history plus the run's sentiment score.
type Input struct {
	Dates     []string
	Prices    []float64
	Volumes   []float64
	SMA       []float64
	RSI       []float64
	Sentiment float64
	Window    int
}

// Result is everything derived from one synthesis call.
type Result struct {
	Samples      []model.Sample
	Display      []model.DisplayRecord
	PriceBounds  model.Bounds
	VolumeBounds model.Bounds
	Summary      model.Summary
	// LastWindow is the feature vectors of the final Window days, the model
	// input for the next-day prediction.
	LastWindow []model.FeatureVector
	// BoundsToken identifies the bounds issued by this call.
	BoundsToken string
	Window      int
}

// Synthesize normalizes every feature dimension and slices the series into
// (window, label) samples with label at day i+Window for each start i.
func Synthesize(in Input) (*Result, error) {
	n := len(in.Prices)
	if in.Window <= 0 {
		return nil, fmt.Errorf("window must be positive, got %d", in.Window)
	}
	if len(in.Volumes) != n || len(in.SMA) != n || len(in.RSI) != n || len(in.Dates) != n {
		return nil, fmt.Errorf("misaligned series: prices=%d volumes=%d sma=%d rsi=%d dates=%d",
			n, len(in.Volumes), len(in.SMA), len(in.RSI), len(in.Dates))
	}
	if n <= in.Window {
		return nil, &HistoryError{Days: n, Window: in.Window}
	}

	priceBounds, err := calculator.FindBounds(in.Prices)
	if err != nil {
		return nil, err
	}
	volumeBounds, err := calculator.FindBounds(in.Volumes)
	if err != nil {
		return nil, err
	}

	sentiment := calculator.NormalizeSentiment(in.Sentiment)
	days := make([]model.FeatureVector, n)
	for i := 0; i < n; i++ {
		days[i] = model.FeatureVector{
			Price:     calculator.Normalize(in.Prices[i], priceBounds),
			Volume:    calculator.Normalize(in.Volumes[i], volumeBounds),
			SMA:       calculator.Normalize(in.SMA[i], priceBounds),
			RSI:       calculator.NormalizeRSI(in.RSI[i]),
			Sentiment: sentiment,
		}
	}

	count := n - in.Window
	res := &Result{
		Samples:      make([]model.Sample, 0, count),
		Display:      make([]model.DisplayRecord, 0, count),
		PriceBounds:  priceBounds,
		VolumeBounds: volumeBounds,
		BoundsToken:  uuid.NewString(),
		Window:       in.Window,
	}
	for i := 0; i < count; i++ {
		next := i + in.Window
		res.Samples = append(res.Samples, model.Sample{
			Window: days[i:next:next],
			Label:  days[next].Price,
		})
		res.Display = append(res.Display, model.DisplayRecord{
			Date:  in.Dates[next],
			Price: in.Prices[next],
			RSI:   in.RSI[next],
			SMA:   in.SMA[next],
		})
	}

	last := n - 1
	res.LastWindow = days[n-in.Window:]
	res.Summary = model.Summary{
		LastClose:    in.Prices[last],
		RecentVolume: in.Volumes[last],
		RecentRSI:    in.RSI[last],
		RecentSMA:    in.SMA[last],
		Sentiment:    in.Sentiment,
	}
	return res, nil
}

// FromBars computes the indicator series for bars and synthesizes them.
func FromBars(bars []model.PriceBar, sentiment float64, window, smaPeriod, rsiPeriod int) (*Result, error) {
	prices := model.Closes(bars)
	sma, err := calculator.SimpleMovingAverage(prices, smaPeriod)
	if err != nil {
		return nil, fmt.Errorf("sma: %w", err)
	}
	rsi, err := calculator.RelativeStrengthIndex(prices, rsiPeriod)
	if err != nil {
		return nil, fmt.Errorf("rsi: %w", err)
	}
	return Synthesize(Input{
		Dates:     model.Dates(bars),
		Prices:    prices,
		Volumes:   model.Volumes(bars),
		SMA:       sma,
		RSI:       rsi,
		Sentiment: sentiment,
		Window:    window,
	})
}
