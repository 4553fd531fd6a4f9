package features

import (
	"errors"
	"math"
	"testing"
	"time"

	"PriceOracle/internal/calculator"
	"PriceOracle/internal/model"
)

func series(prices []float64) Input {
	n := len(prices)
	in := Input{
		Dates:   make([]string, n),
		Prices:  prices,
		Volumes: make([]float64, n),
		SMA:     make([]float64, n),
		RSI:     make([]float64, n),
		Window:  10,
	}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range prices {
		in.Dates[i] = start.AddDate(0, 0, i).Format(model.DateLayout)
		in.Volumes[i] = float64(1000 + 10*i)
		in.SMA[i] = prices[i]
		in.RSI[i] = 50
	}
	return in
}

func TestSynthesize_TwelveDays(t *testing.T) {
	prices := []float64{10, 12, 11, 13, 14, 12, 15, 16, 14, 17, 18, 19}
	res, err := Synthesize(series(prices))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Samples) != len(prices)-10 {
		t.Fatalf("expected %d samples, got %d", len(prices)-10, len(res.Samples))
	}
	first := res.Samples[0]
	if len(first.Window) != 10 {
		t.Fatalf("expected window of 10, got %d", len(first.Window))
	}
	// bounds 10..19
	if want := (18.0 - 10) / 9; math.Abs(first.Label-want) > 1e-12 {
		t.Errorf("expected label %v, got %v", want, first.Label)
	}
	if res.Display[0].Date != "2024-01-11" || res.Display[0].Price != 18 {
		t.Errorf("unexpected display record %+v", res.Display[0])
	}
	if res.PriceBounds.Min != 10 || res.PriceBounds.Max != 19 {
		t.Errorf("unexpected bounds %+v", res.PriceBounds)
	}
	if res.Summary.LastClose != 19 || res.Summary.RecentVolume != 1110 {
		t.Errorf("unexpected summary %+v", res.Summary)
	}
	if len(res.LastWindow) != 10 || res.LastWindow[9].Price != 1 {
		t.Errorf("last window should end on the newest normalized price, got %+v", res.LastWindow)
	}
	if res.BoundsToken == "" {
		t.Error("expected a bounds token")
	}
}

func TestSynthesize_InsufficientHistory(t *testing.T) {
	for _, n := range []int{1, 5, 10} {
		prices := make([]float64, n)
		for i := range prices {
			prices[i] = float64(10 + i)
		}
		_, err := Synthesize(series(prices))
		if !errors.Is(err, ErrInsufficientHistory) {
			t.Errorf("n=%d: expected ErrInsufficientHistory, got %v", n, err)
		}
	}
}

func TestSynthesize_SentimentCenter(t *testing.T) {
	in := series([]float64{10, 12, 11, 13, 14, 12, 15, 16, 14, 17, 18, 19})
	in.Sentiment = 0
	res, err := Synthesize(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, s := range res.Samples {
		for _, day := range s.Window {
			if day.Sentiment != 0.5 {
				t.Fatalf("expected sentiment 0.5, got %v", day.Sentiment)
			}
		}
	}
	if res.Summary.Sentiment != 0 {
		t.Errorf("summary should carry the raw score, got %v", res.Summary.Sentiment)
	}
}

func TestSynthesize_FlatSeries(t *testing.T) {
	prices := make([]float64, 15)
	for i := range prices {
		prices[i] = 42
	}
	in := series(prices)
	for i := range in.Volumes {
		in.Volumes[i] = 7
	}
	res, err := Synthesize(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, s := range res.Samples {
		if s.Label != 0 {
			t.Errorf("flat series should normalize to 0, got %v", s.Label)
		}
		for _, day := range s.Window {
			if day.Price != 0 || day.Volume != 0 || day.SMA != 0 {
				t.Errorf("expected zeroed dims, got %+v", day)
			}
			if math.IsNaN(day.Price) || math.IsInf(day.Price, 0) {
				t.Errorf("non-finite feature %+v", day)
			}
		}
	}
}

func TestSynthesize_Misaligned(t *testing.T) {
	in := series([]float64{10, 12, 11, 13, 14, 12, 15, 16, 14, 17, 18, 19})
	in.RSI = in.RSI[:5]
	if _, err := Synthesize(in); err == nil {
		t.Error("expected error for misaligned series")
	}
}

func TestSynthesize_AlignmentAndRoundTrip(t *testing.T) {
	prices := make([]float64, 60)
	for i := range prices {
		prices[i] = 100 + 10*math.Sin(float64(i)/4) + float64(i)*0.3
	}
	in := series(prices)
	in.Window = 7
	res, err := Synthesize(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, s := range res.Samples {
		raw := calculator.Denormalize(s.Label, res.PriceBounds)
		if math.Abs(raw-prices[i+7]) > 1e-9 {
			t.Errorf("sample %d: label %v does not round-trip to %v", i, raw, prices[i+7])
		}
		if res.Display[i].Date != in.Dates[i+7] {
			t.Errorf("sample %d: display date %s, expected %s", i, res.Display[i].Date, in.Dates[i+7])
		}
		if s.Window[0].Price != calculator.Normalize(prices[i], res.PriceBounds) {
			t.Errorf("sample %d: window starts on the wrong day", i)
		}
	}
}

func TestFromBars(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]model.PriceBar, 40)
	for i := range bars {
		bars[i] = model.PriceBar{Date: start.AddDate(0, 0, i), Close: float64(50 + i%9), Volume: 1e6}
	}
	res, err := FromBars(bars, 0.2, 10, 20, 14)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Samples) != 30 {
		t.Errorf("expected 30 samples, got %d", len(res.Samples))
	}
	for i, s := range res.Samples {
		for _, day := range s.Window {
			if day.RSI < 0 || day.RSI > 1 {
				t.Fatalf("sample %d: rsi out of range %v", i, day.RSI)
			}
		}
	}
}

func TestHistoryError_ReportsCounts(t *testing.T) {
	in := series([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
	_, err := Synthesize(in)
	var he *HistoryError
	if !errors.As(err, &he) {
		t.Fatalf("expected HistoryError, got %v", err)
	}
	if he.Days != 10 || he.Window != 10 {
		t.Errorf("unexpected counts %+v", he)
	}
	if he.Error() != "insufficient history: have 10 days, need at least 11" {
		t.Errorf("unexpected message %q", he.Error())
	}
}
