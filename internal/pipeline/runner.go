// Package pipeline drives one forecast run end to end: collect, synthesize,
// train, predict and record.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"PriceOracle/internal/collector"
	"PriceOracle/internal/features"
	"PriceOracle/internal/metrics"
	"PriceOracle/internal/model"
	"PriceOracle/internal/recorder"
	"PriceOracle/internal/trace"
	"PriceOracle/internal/trainer"
)

// Source supplies the joined market and sentiment data for a ticker.
type Source interface {
	Collect(ctx context.Context, ticker string) (*collector.Snapshot, error)
}

// ProgressSink receives per-epoch progress. Returning false stops training
// after the current epoch.
type ProgressSink func(model.Progress) bool

// Tee fans progress out to every non-nil sink. Training continues only while
// all of them agree.
func Tee(sinks ...ProgressSink) ProgressSink {
	return func(p model.Progress) bool {
		keep := true
		for _, s := range sinks {
			if s != nil && !s(p) {
				keep = false
			}
		}
		return keep
	}
}

// Options are the per-run knobs.
type Options struct {
	Window    int
	SMAPeriod int
	RSIPeriod int
	Train     trainer.TrainConfig
	Arch      trainer.ArchConfig
}

// Runner executes forecast runs one at a time.
type Runner struct {
	source   Source
	factory  trainer.Factory
	recorder recorder.Recorder
	opts     Options
	now      func() time.Time

	mu sync.Mutex
}

// NewRunner creates a Runner. A nil recorder disables history.
func NewRunner(source Source, factory trainer.Factory, rec recorder.Recorder, opts Options) *Runner {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Runner{
		source:   source,
		factory:  factory,
		recorder: rec,
		opts:     opts,
		now:      time.Now,
	}
}

// Execute runs a forecast for ticker, waiting for any run in progress.
func (r *Runner) Execute(ctx context.Context, ticker string, sink ProgressSink) (*model.Forecast, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.execute(ctx, ticker, sink)
}

// TryExecute is Execute that fails with ErrBusy instead of waiting.
func (r *Runner) TryExecute(ctx context.Context, ticker string, sink ProgressSink) (*model.Forecast, error) {
	if !r.mu.TryLock() {
		return nil, ErrBusy
	}
	defer r.mu.Unlock()
	return r.execute(ctx, ticker, sink)
}

func (r *Runner) execute(ctx context.Context, ticker string, sink ProgressSink) (*model.Forecast, error) {
	run := newRun(ticker, r.now())
	run.Symbol = collector.MarketSymbol(ticker)
	defer run.Close()

	logger := log.With().Str("run_id", run.ID).Str("symbol", run.Symbol).Logger()
	ctx, span := trace.StartSpan(ctx, "pipeline.run",
		attribute.String("run_id", run.ID), attribute.String("symbol", run.Symbol))

	logger.Info().Msg("forecast run started")
	f, err := r.steps(ctx, run, sink)
	trace.End(span, err)

	elapsed := r.now().Sub(run.StartedAt)
	metrics.RunDuration.Observe(elapsed.Seconds())
	if err != nil {
		metrics.RunsTotal.WithLabelValues("failed").Inc()
		logger.Error().Err(err).Str("reason", Reason(err)).Dur("elapsed", elapsed).Msg("forecast run failed")
		if rerr := r.recorder.RecordFailure(context.WithoutCancel(ctx), &recorder.Failure{
			RunID: run.ID, Symbol: run.Symbol, Reason: Reason(err), Message: err.Error(),
		}); rerr != nil {
			logger.Warn().Err(rerr).Msg("record failure")
		}
		return nil, err
	}

	metrics.RunsTotal.WithLabelValues("success").Inc()
	metrics.ForecastPrice.WithLabelValues(f.Symbol).Set(f.Predicted)
	if rerr := r.recorder.RecordForecast(context.WithoutCancel(ctx), f); rerr != nil {
		logger.Warn().Err(rerr).Msg("record forecast")
	}
	logger.Info().
		Float64("last_close", f.LastClose).
		Float64("predicted", f.Predicted).
		Int("epochs", f.Epochs).
		Dur("elapsed", elapsed).
		Msg("forecast run complete")
	return f, nil
}

func (r *Runner) steps(ctx context.Context, run *Run, sink ProgressSink) (*model.Forecast, error) {
	sctx, span := trace.StartSpan(ctx, "pipeline.collect")
	snap, err := r.source.Collect(sctx, run.Ticker)
	trace.End(span, err)
	if err != nil {
		return nil, err
	}
	run.Symbol = snap.Symbol

	_, span = trace.StartSpan(ctx, "pipeline.features", attribute.Int("bars", len(snap.Bars)))
	res, err := features.FromBars(snap.Bars, snap.Sentiment, r.opts.Window, r.opts.SMAPeriod, r.opts.RSIPeriod)
	trace.End(span, err)
	if err != nil {
		return nil, err
	}
	run.Adopt(res)
	log.Debug().Str("run_id", run.ID).Int("samples", len(res.Samples)).
		Float64("sentiment", snap.Sentiment).Msg("features synthesized")

	m, err := r.factory(r.opts.Arch, r.opts.Window, model.FeatureCount)
	if err != nil {
		return nil, err
	}
	run.Attach(m)

	tctx, span := trace.StartSpan(ctx, "pipeline.train", attribute.Int("epochs", r.opts.Train.Epochs))
	out, err := trainer.Train(tctx, m, res.Samples, r.opts.Window, model.FeatureCount, r.opts.Train,
		func(p trainer.Progress) bool {
			metrics.EpochLoss.WithLabelValues(run.Symbol).Set(p.Loss)
			log.Debug().Str("run_id", run.ID).Int("epoch", p.Epoch+1).Int("percent", p.Percent).
				Float64("loss", p.Loss).Msg("epoch complete")
			if sink == nil {
				return true
			}
			return sink(model.Progress{
				RunID:   run.ID,
				Symbol:  run.Symbol,
				Epoch:   p.Epoch + 1,
				Epochs:  p.Epochs,
				Percent: p.Percent,
				Loss:    p.Loss,
			})
		})
	trace.End(span, err)
	if err != nil {
		return nil, err
	}
	if out.Stopped {
		log.Info().Str("run_id", run.ID).Int("epochs", out.EpochsRun).Msg("training stopped early")
	}

	_, span = trace.StartSpan(ctx, "pipeline.predict")
	price, err := run.Predict(res)
	trace.End(span, err)
	if err != nil {
		return nil, err
	}
	return buildForecast(run, res, price, out, r.now()), nil
}
