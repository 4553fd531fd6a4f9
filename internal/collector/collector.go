package collector

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"PriceOracle/internal/cache"
	"PriceOracle/internal/metrics"
	"PriceOracle/internal/model"
)

// Snapshot is the joined result of both upstream retrievals for one ticker.
type Snapshot struct {
	Symbol     string
	BaseSymbol string
	Bars       []model.PriceBar
	Sentiment  float64
}

// Collector issues market and sentiment retrieval and joins the results.
type Collector struct {
	Market   MarketFetcher
	News     NewsFetcher
	Cache    cache.Store
	CacheTTL time.Duration
}

// NewCollector creates a Collector. A nil store disables payload caching.
func NewCollector(market MarketFetcher, news NewsFetcher, store cache.Store, ttl time.Duration) *Collector {
	if store == nil {
		store = cache.NoopStore{}
	}
	return &Collector{Market: market, News: news, Cache: store, CacheTTL: ttl}
}

// Collect fetches market data and sentiment concurrently. Only market data
// failures are returned; sentiment always degrades to NeutralSentiment.
func (c *Collector) Collect(ctx context.Context, ticker string) (*Snapshot, error) {
	symbol := MarketSymbol(ticker)
	base := BaseSymbol(ticker)
	if symbol == "" {
		return nil, &DataError{Symbol: ticker, Reason: ReasonBadSymbol, Detail: "empty ticker"}
	}

	var (
		wg        sync.WaitGroup
		bars      []model.PriceBar
		marketErr error
		sentiment float64
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		bars, marketErr = c.Bars(ctx, symbol)
	}()
	go func() {
		defer wg.Done()
		sentiment = c.Sentiment(ctx, base)
	}()
	wg.Wait()

	if marketErr != nil {
		return nil, marketErr
	}
	return &Snapshot{Symbol: symbol, BaseSymbol: base, Bars: bars, Sentiment: sentiment}, nil
}

// Bars returns the chronological daily series for a market symbol, using the
// payload cache when possible.
func (c *Collector) Bars(ctx context.Context, symbol string) ([]model.PriceBar, error) {
	key := "daily:" + symbol
	if raw, err := c.Cache.Get(ctx, key); err == nil {
		var p DailyPayload
		if err := json.Unmarshal(raw, &p); err == nil {
			if bars, err := ParseDailySeries(symbol, &p); err == nil {
				log.Debug().Str("symbol", symbol).Int("bars", len(bars)).Msg("daily series served from cache")
				return bars, nil
			}
		}
		log.Warn().Str("symbol", symbol).Msg("discarding unreadable cached payload")
	} else if !errors.Is(err, cache.ErrMiss) {
		log.Warn().Err(err).Str("symbol", symbol).Msg("payload cache read failed")
	}

	log.Info().Str("symbol", symbol).Str("source", c.Market.Name()).Msg("fetching market data")
	p, err := c.Market.FetchDaily(ctx, symbol)
	if err != nil {
		metrics.FetchErrors.WithLabelValues("market").Inc()
		var de *DataError
		if errors.As(err, &de) {
			return nil, de
		}
		return nil, &DataError{Symbol: symbol, Reason: ReasonTransport, Err: err}
	}
	bars, err := ParseDailySeries(symbol, p)
	if err != nil {
		metrics.FetchErrors.WithLabelValues("market").Inc()
		return nil, err
	}

	if raw, err := json.Marshal(p); err == nil {
		if err := c.Cache.Set(ctx, key, raw, c.CacheTTL); err != nil {
			log.Warn().Err(err).Str("symbol", symbol).Msg("payload cache write failed")
		}
	}
	return bars, nil
}

// Sentiment returns the aggregated score for a bare ticker. Every failure is
// logged and replaced with NeutralSentiment.
func (c *Collector) Sentiment(ctx context.Context, baseSymbol string) float64 {
	if c.News == nil {
		return NeutralSentiment
	}
	log.Info().Str("symbol", baseSymbol).Msg("analyzing news sentiment")
	articles, err := c.News.FetchNews(ctx, baseSymbol)
	if err != nil {
		metrics.FetchErrors.WithLabelValues("news").Inc()
		log.Warn().Err(err).Str("symbol", baseSymbol).Msg("news source failed, defaulting to neutral sentiment")
		return NeutralSentiment
	}
	return AggregateSentiment(articles, baseSymbol)
}
