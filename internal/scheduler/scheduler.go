package scheduler

import (
	"context"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"PriceOracle/internal/model"
	"PriceOracle/internal/notifier"
	"PriceOracle/internal/pipeline"
)

// Scheduler runs forecasts for a watchlist on a cron schedule.
type Scheduler struct {
	Cron      *cron.Cron
	Runner    notifier.Forecaster
	Notifier  notifier.Notifier
	Watchlist []string
	// Sink receives training progress of scheduled runs; may be nil.
	Sink pipeline.ProgressSink
	// OnResult is called with every successful forecast; may be nil.
	OnResult func(*model.Forecast)
	Ctx      context.Context
}

// NewScheduler creates a new Scheduler. Empty watchlist entries are dropped.
func NewScheduler(ctx context.Context, runner notifier.Forecaster, n notifier.Notifier, watchlist []string) *Scheduler {
	if n == nil {
		n = notifier.NoopNotifier{}
	}
	var tickers []string
	for _, t := range watchlist {
		if t = strings.TrimSpace(t); t != "" {
			tickers = append(tickers, t)
		}
	}
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Runner:    runner,
		Notifier:  n,
		Watchlist: tickers,
		Ctx:       ctx,
	}
}

// Register adds the watchlist task under a six-field cron spec.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, s.watchlistTask); err != nil {
		return fmt.Errorf("register watchlist task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Info().Int("tickers", len(s.Watchlist)).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running task to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// RunNow executes the watchlist task immediately (for RUN_ON_START).
func (s *Scheduler) RunNow() {
	s.watchlistTask()
}

func (s *Scheduler) watchlistTask() {
	log.Info().Strs("watchlist", s.Watchlist).Msg("running scheduled forecasts")
	var failed int
	for _, ticker := range s.Watchlist {
		if s.Ctx.Err() != nil {
			log.Info().Msg("scheduled forecasts interrupted")
			return
		}
		f, err := s.Runner.Execute(s.Ctx, ticker, s.Sink)
		if err != nil {
			failed++
			s.trySend(notifier.FormatFailure(ticker, pipeline.UserMessage(err)))
			continue
		}
		if s.OnResult != nil {
			s.OnResult(f)
		}
		s.trySend(notifier.FormatForecast(f))
	}
	log.Info().Int("total", len(s.Watchlist)).Int("failed", failed).Msg("scheduled forecasts finished")
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.Send(s.Ctx, text); err != nil {
		log.Error().Err(err).Msg("send notification")
	}
}
