package model

import "time"

// PriceBar is one trading day of the retrieved history.
type PriceBar struct {
	Date   time.Time
	Close  float64
	Volume float64
}

// DateLayout is the calendar-day format used by the market data source.
const DateLayout = "2006-01-02"

// Closes extracts closing prices in bar order.
func Closes(bars []PriceBar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// Volumes extracts volumes in bar order.
func Volumes(bars []PriceBar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Volume
	}
	return out
}

// Dates extracts bar dates formatted with DateLayout.
func Dates(bars []PriceBar) []string {
	out := make([]string, len(bars))
	for i, b := range bars {
		out[i] = b.Date.Format(DateLayout)
	}
	return out
}
