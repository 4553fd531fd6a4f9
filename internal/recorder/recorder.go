package recorder

import (
	"context"

	"PriceOracle/internal/model"
)

// Failure describes a run that ended without a forecast.
type Failure struct {
	RunID   string
	Symbol  string
	Reason  string
	Message string
}

// Recorder persists forecast history for later review.
type Recorder interface {
	RecordForecast(ctx context.Context, f *model.Forecast) error
	RecordFailure(ctx context.Context, f *Failure) error
	// ListForecasts returns the newest forecasts first. An empty symbol matches all.
	ListForecasts(ctx context.Context, symbol string, limit int) ([]model.Forecast, error)
	Close() error
}
