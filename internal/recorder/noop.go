package recorder

import (
	"context"

	"PriceOracle/internal/model"
)

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordForecast(_ context.Context, _ *model.Forecast) error { return nil }
func (n *NoopRecorder) RecordFailure(_ context.Context, _ *Failure) error         { return nil }
func (n *NoopRecorder) ListForecasts(_ context.Context, _ string, _ int) ([]model.Forecast, error) {
	return nil, nil
}
func (n *NoopRecorder) Close() error { return nil }
