package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"PriceOracle/internal/api"
	"PriceOracle/internal/cache"
	"PriceOracle/internal/collector"
	"PriceOracle/internal/config"
	"PriceOracle/internal/logger"
	"PriceOracle/internal/metrics"
	"PriceOracle/internal/network"
	"PriceOracle/internal/notifier"
	"PriceOracle/internal/pipeline"
	"PriceOracle/internal/recorder"
	"PriceOracle/internal/scheduler"
	"PriceOracle/internal/trace"
)

func main() {
	_ = godotenv.Load()

	// Load config
	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}

	logCloser, err := logger.Setup(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output})
	if err != nil {
		log.Fatal().Err(err).Msg("init logger")
	}
	defer logCloser.Close()
	log.Info().Msg("PriceOracle starting...")

	metrics.Register()
	if err := trace.Init(cfg.Tracing.Enabled, cfg.Tracing.ServiceName, os.Stdout); err != nil {
		log.Warn().Err(err).Msg("init tracing failed, continuing without spans")
	}
	defer trace.Shutdown(context.Background())

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := newStore(cfg.Cache)
	defer store.Close()

	// Init fetchers
	var (
		market collector.MarketFetcher
		news   collector.NewsFetcher
	)
	switch cfg.DataSource.Provider {
	case "mock":
		m := &collector.MockFetcher{Price: 2500}
		market, news = m, m
	default:
		av := collector.NewAlphaVantageClient(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy, cfg.DataSource.Timeout)
		market, news = av, av
	}
	log.Info().Str("source", market.Name()).Msg("data source ready")
	col := collector.NewCollector(market, news, store, cfg.Cache.TTL)

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	runner := pipeline.NewRunner(col, network.Factory, rec, pipeline.Options{
		Window:    cfg.Training.Window,
		SMAPeriod: cfg.Indicators.SMAPeriod,
		RSIPeriod: cfg.Indicators.RSIPeriod,
		Train:     cfg.Training.TrainConfig,
		Arch:      cfg.Model,
	})

	hub := notifier.NewHub()
	go hub.Run(ctx)

	// Init Telegram notifier
	var out notifier.Notifier = notifier.NoopNotifier{}
	if cfg.Telegram.Enabled {
		tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		out = notifier.Retrying{TelegramNotifier: tn, MaxRetries: 3}
		go tn.StartPolling(ctx, cfg.Telegram.PollTimeout, notifier.NewCommandHandler(runner, rec))
		log.Info().Msg("telegram polling started")
	}

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, runner, out, cfg.Schedule.Watchlist)
	sched.Sink = hub.Progress
	sched.OnResult = hub.Result
	if cfg.Schedule.Enabled {
		if err := sched.Register(cfg.Schedule.Cron); err != nil {
			log.Fatal().Err(err).Msg("register cron task")
		}
		sched.Start()
		defer sched.Stop()
	}

	// Init HTTP API
	var srv interface{ Shutdown(context.Context) error }
	if cfg.Server.Enabled {
		e := api.New(api.NewHandler(runner, rec, hub))
		srv = e
		go func() {
			log.Info().Str("addr", cfg.Server.Addr).Msg("http api listening")
			if err := e.Start(cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("http api stopped")
			}
		}()
	}

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" && len(sched.Watchlist) > 0 {
		log.Info().Msg("RUN_ON_START enabled, forecasting the watchlist now")
		go sched.RunNow()
	}

	log.Info().Msg("PriceOracle is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received, stopping...")
	if srv != nil {
		sctx, scancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		if err := srv.Shutdown(sctx); err != nil {
			log.Warn().Err(err).Msg("http api shutdown")
		}
		scancel()
	}
	cancel()
	log.Info().Msg("PriceOracle stopped")
}

func newStore(cfg config.Cache) cache.Store {
	switch cfg.Backend {
	case "none":
		return cache.NoopStore{}
	case "redis":
		rs, err := cache.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Prefix)
		if err == nil {
			log.Info().Str("addr", cfg.Redis.Addr).Msg("redis payload cache ready")
			return rs
		}
		log.Warn().Err(err).Msg("redis unavailable, using in-memory payload cache")
	}
	return cache.NewMemoryStore(cfg.MaxEntries)
}
