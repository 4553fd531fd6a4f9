package pipeline

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"PriceOracle/internal/features"
	"PriceOracle/internal/model"
	"PriceOracle/internal/trainer"
)

// ErrBoundsMismatch is returned when a prediction is asked to use
// normalization bounds that were not issued for the run.
var ErrBoundsMismatch = errors.New("normalization bounds do not belong to this run")

// Run is the state owned by a single forecast run. It is never shared
// between runs.
type Run struct {
	ID        string
	Ticker    string
	Symbol    string
	StartedAt time.Time

	result      *features.Result
	boundsToken string
	model       trainer.Model
}

func newRun(ticker string, now time.Time) *Run {
	return &Run{ID: uuid.NewString(), Ticker: ticker, StartedAt: now}
}

// Adopt binds a synthesis result to the run. Its bounds are the only ones the
// run will denormalize with.
func (r *Run) Adopt(res *features.Result) {
	r.result = res
	r.boundsToken = res.BoundsToken
}

// Result returns the adopted synthesis result, or nil.
func (r *Run) Result() *features.Result { return r.result }

// Attach hands a freshly constructed model to the run. Any model attached
// earlier is closed.
func (r *Run) Attach(m trainer.Model) {
	if r.model != nil && r.model != m {
		r.model.Close()
	}
	r.model = m
}

// Predict forecasts the next price from res's last window. res must be the
// result adopted by this run.
func (r *Run) Predict(res *features.Result) (float64, error) {
	if r.model == nil {
		return 0, errors.New("run has no model")
	}
	if res == nil || r.boundsToken == "" || res.BoundsToken != r.boundsToken {
		return 0, ErrBoundsMismatch
	}
	return trainer.PredictNext(r.model, res.LastWindow, res.Window, model.FeatureCount, res.PriceBounds)
}

// Close releases the run's model.
func (r *Run) Close() error {
	if r.model == nil {
		return nil
	}
	err := r.model.Close()
	r.model = nil
	return err
}
