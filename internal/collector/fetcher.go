package collector

import "context"

// DailyBar is one entry of a TIME_SERIES_DAILY payload. Values arrive as strings.
type DailyBar struct {
	Open   string `json:"1. open"`
	High   string `json:"2. high"`
	Low    string `json:"3. low"`
	Close  string `json:"4. close"`
	Volume string `json:"5. volume"`
}

// DailyPayload is the decoded daily series document. Exactly one of Series or
// the message fields is normally populated.
type DailyPayload struct {
	Series       map[string]DailyBar `json:"Time Series (Daily)"`
	Note         string              `json:"Note,omitempty"`
	Information  string              `json:"Information,omitempty"`
	ErrorMessage string              `json:"Error Message,omitempty"`
}

// TickerSentiment is one per-instrument score attached to an article.
type TickerSentiment struct {
	Ticker string `json:"ticker"`
	Score  string `json:"ticker_sentiment_score"`
}

// Article is one news item from the sentiment source.
type Article struct {
	Title           string            `json:"title"`
	Published       string            `json:"time_published"`
	TickerSentiment []TickerSentiment `json:"ticker_sentiment"`
}

// MarketFetcher retrieves the raw daily series for a market symbol.
type MarketFetcher interface {
	FetchDaily(ctx context.Context, symbol string) (*DailyPayload, error)
	Name() string
}

// NewsFetcher retrieves scored news articles for a bare ticker.
type NewsFetcher interface {
	FetchNews(ctx context.Context, baseSymbol string) ([]Article, error)
}
