package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"PriceOracle/internal/cache"
)

func TestParseDailySeries_SortsOldestFirst(t *testing.T) {
	p := &DailyPayload{Series: map[string]DailyBar{
		"2024-01-04": {Close: "12.5", Volume: "300"},
		"2024-01-02": {Close: "10", Volume: "100"},
		"2024-01-03": {Close: "11", Volume: "200"},
	}}
	bars, err := ParseDailySeries("TEST.BSE", p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bars) != 3 {
		t.Fatalf("expected 3 bars, got %d", len(bars))
	}
	want := []float64{10, 11, 12.5}
	for i, b := range bars {
		if b.Close != want[i] {
			t.Errorf("bar %d: expected close %.1f, got %.1f", i, want[i], b.Close)
		}
		if i > 0 && !bars[i-1].Date.Before(b.Date) {
			t.Errorf("bars not ascending at %d", i)
		}
	}
}

func TestParseDailySeries_ClassifiesEmptyPayloads(t *testing.T) {
	tests := []struct {
		name    string
		payload *DailyPayload
		reason  Reason
	}{
		{"nil", nil, ReasonEmpty},
		{"empty", &DailyPayload{}, ReasonEmpty},
		{"note", &DailyPayload{Note: "Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute"}, ReasonRateLimited},
		{"information", &DailyPayload{Information: "daily rate limit reached"}, ReasonRateLimited},
		{"error message", &DailyPayload{ErrorMessage: "Invalid API call."}, ReasonBadSymbol},
	}
	for _, tt := range tests {
		_, err := ParseDailySeries("X.BSE", tt.payload)
		if !errors.Is(err, ErrDataUnavailable) {
			t.Errorf("%s: expected ErrDataUnavailable, got %v", tt.name, err)
			continue
		}
		var de *DataError
		if !errors.As(err, &de) || de.Reason != tt.reason {
			t.Errorf("%s: expected reason %s, got %v", tt.name, tt.reason, err)
		}
	}
}

func TestParseDailySeries_Malformed(t *testing.T) {
	cases := []map[string]DailyBar{
		{"2024-13-45": {Close: "10", Volume: "1"}},
		{"2024-01-02": {Close: "abc", Volume: "1"}},
		{"2024-01-02": {Close: "-3", Volume: "1"}},
		{"2024-01-02": {Close: "10", Volume: "-1"}},
	}
	for i, series := range cases {
		_, err := ParseDailySeries("X.BSE", &DailyPayload{Series: series})
		var de *DataError
		if !errors.As(err, &de) || de.Reason != ReasonMalformed {
			t.Errorf("case %d: expected malformed, got %v", i, err)
		}
	}
}

func TestSymbols(t *testing.T) {
	tests := []struct{ in, market, base string }{
		{"reliance", "RELIANCE.BSE", "RELIANCE"},
		{" tcs.nse ", "TCS.NSE", "TCS"},
		{"^GSPC", "^GSPC", "^GSPC"},
		{"ibm.bse", "IBM.BSE", "IBM"},
	}
	for _, tt := range tests {
		if got := MarketSymbol(tt.in); got != tt.market {
			t.Errorf("MarketSymbol(%q) = %q, want %q", tt.in, got, tt.market)
		}
		if got := BaseSymbol(tt.in); got != tt.base {
			t.Errorf("BaseSymbol(%q) = %q, want %q", tt.in, got, tt.base)
		}
	}
}

func TestAggregateSentiment(t *testing.T) {
	articles := []Article{
		{TickerSentiment: []TickerSentiment{{Ticker: "RELIANCE", Score: "0.4"}, {Ticker: "TCS", Score: "-0.9"}}},
		{TickerSentiment: []TickerSentiment{{Ticker: "RELIANCE", Score: "0.2"}}},
		{TickerSentiment: []TickerSentiment{{Ticker: "RELIANCE", Score: "not-a-number"}}},
		{TickerSentiment: nil},
	}
	got := AggregateSentiment(articles, "RELIANCE")
	if diff := got - 0.3; diff > 1e-12 || diff < -1e-12 {
		t.Errorf("expected 0.3, got %v", got)
	}
}

func TestAggregateSentiment_SkipsNonFinite(t *testing.T) {
	articles := []Article{
		{TickerSentiment: []TickerSentiment{{Ticker: "RELIANCE", Score: "NaN"}}},
		{TickerSentiment: []TickerSentiment{{Ticker: "RELIANCE", Score: "+Inf"}}},
		{TickerSentiment: []TickerSentiment{{Ticker: "RELIANCE", Score: "-inf"}}},
		{TickerSentiment: []TickerSentiment{{Ticker: "RELIANCE", Score: "0.5"}}},
	}
	if got := AggregateSentiment(articles, "RELIANCE"); got != 0.5 {
		t.Errorf("expected 0.5, got %v", got)
	}
	onlyNaN := []Article{{TickerSentiment: []TickerSentiment{{Ticker: "RELIANCE", Score: "nan"}}}}
	if got := AggregateSentiment(onlyNaN, "RELIANCE"); got != NeutralSentiment {
		t.Errorf("expected neutral fallback, got %v", got)
	}
}

func TestAggregateSentiment_Fallback(t *testing.T) {
	if got := AggregateSentiment(nil, "RELIANCE"); got != 0.15 {
		t.Errorf("empty set: expected 0.15, got %v", got)
	}
	other := []Article{{TickerSentiment: []TickerSentiment{{Ticker: "TCS", Score: "0.9"}}}}
	if got := AggregateSentiment(other, "RELIANCE"); got != 0.15 {
		t.Errorf("non-matching set: expected 0.15, got %v", got)
	}
}

func TestCollector_SentimentFailureDegrades(t *testing.T) {
	m := &MockFetcher{Price: 100, Days: 30, NewsErr: errors.New("timeout")}
	c := NewCollector(m, m, nil, time.Hour)
	snap, err := c.Collect(context.Background(), "reliance")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Sentiment != NeutralSentiment {
		t.Errorf("expected neutral sentiment, got %v", snap.Sentiment)
	}
	if snap.Symbol != "RELIANCE.BSE" || snap.BaseSymbol != "RELIANCE" {
		t.Errorf("unexpected symbols %s / %s", snap.Symbol, snap.BaseSymbol)
	}
	if len(snap.Bars) != 30 {
		t.Errorf("expected 30 bars, got %d", len(snap.Bars))
	}
}

func TestCollector_MarketFailureIsFatal(t *testing.T) {
	m := &MockFetcher{DailyErr: errors.New("connection refused")}
	c := NewCollector(m, m, nil, time.Hour)
	_, err := c.Collect(context.Background(), "reliance")
	if !errors.Is(err, ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
}

type countingFetcher struct {
	MockFetcher
	calls int
}

func (c *countingFetcher) FetchDaily(ctx context.Context, symbol string) (*DailyPayload, error) {
	c.calls++
	return c.MockFetcher.FetchDaily(ctx, symbol)
}

func TestCollector_CachesPayload(t *testing.T) {
	f := &countingFetcher{MockFetcher: MockFetcher{Price: 50, Days: 20}}
	c := NewCollector(f, nil, cache.NewMemoryStore(8), time.Hour)
	for i := 0; i < 3; i++ {
		bars, err := c.Bars(context.Background(), "ABC.BSE")
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if len(bars) != 20 {
			t.Fatalf("call %d: expected 20 bars, got %d", i, len(bars))
		}
	}
	if f.calls != 1 {
		t.Errorf("expected 1 upstream call, got %d", f.calls)
	}
}

func TestAlphaVantageClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("apikey") != "k" {
			t.Errorf("missing api key")
		}
		switch r.URL.Query().Get("function") {
		case "TIME_SERIES_DAILY":
			if r.URL.Query().Get("symbol") != "IBM.BSE" {
				w.Write([]byte(`{"Error Message":"Invalid API call."}`))
				return
			}
			w.Write([]byte(`{"Meta Data":{},"Time Series (Daily)":{
				"2024-01-03":{"1. open":"1","2. high":"1","3. low":"1","4. close":"11.0","5. volume":"20"},
				"2024-01-02":{"1. open":"1","2. high":"1","3. low":"1","4. close":"10.0","5. volume":"10"}}}`))
		case "NEWS_SENTIMENT":
			w.Write([]byte(`{"feed":[{"title":"a","ticker_sentiment":[{"ticker":"IBM","ticker_sentiment_score":"0.5"}]}]}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer srv.Close()

	c := NewAlphaVantageClient(srv.URL, "k", "", time.Second)
	p, err := c.FetchDaily(context.Background(), "IBM.BSE")
	if err != nil {
		t.Fatalf("fetch daily: %v", err)
	}
	bars, err := ParseDailySeries("IBM.BSE", p)
	if err != nil || len(bars) != 2 || bars[0].Close != 10 {
		t.Fatalf("unexpected bars %+v err %v", bars, err)
	}

	p, err = c.FetchDaily(context.Background(), "NOPE.BSE")
	if err != nil {
		t.Fatalf("fetch daily: %v", err)
	}
	if _, err := ParseDailySeries("NOPE.BSE", p); err == nil {
		t.Error("expected bad symbol error")
	}

	articles, err := c.FetchNews(context.Background(), "IBM")
	if err != nil {
		t.Fatalf("fetch news: %v", err)
	}
	if got := AggregateSentiment(articles, "IBM"); got != 0.5 {
		t.Errorf("expected 0.5, got %v", got)
	}
}

func TestAlphaVantageClient_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewAlphaVantageClient(srv.URL, "k", "", time.Second)
	_, err := c.FetchDaily(context.Background(), "IBM.BSE")
	var de *DataError
	if !errors.As(err, &de) || de.Reason != ReasonTransport {
		t.Errorf("expected transport error, got %v", err)
	}
	if _, err := c.FetchNews(context.Background(), "IBM"); err == nil {
		t.Error("expected news error")
	}
}
