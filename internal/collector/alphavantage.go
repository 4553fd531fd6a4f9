package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultAlphaVantageURL is the provider's query endpoint.
const DefaultAlphaVantageURL = "https://www.alphavantage.co/query"

// AlphaVantageClient implements MarketFetcher and NewsFetcher over the Alpha Vantage REST API.
type AlphaVantageClient struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewAlphaVantageClient creates a client with optional proxy support.
func NewAlphaVantageClient(baseURL, apiKey, proxyURL string, timeout time.Duration) *AlphaVantageClient {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if baseURL == "" {
		baseURL = DefaultAlphaVantageURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &AlphaVantageClient{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

func (c *AlphaVantageClient) Name() string { return "alphavantage" }

// FetchDaily requests the compact daily series for symbol.
func (c *AlphaVantageClient) FetchDaily(ctx context.Context, symbol string) (*DailyPayload, error) {
	q := url.Values{}
	q.Set("function", "TIME_SERIES_DAILY")
	q.Set("symbol", symbol)
	q.Set("outputsize", "compact")

	var p DailyPayload
	if err := c.query(ctx, q, &p); err != nil {
		return nil, &DataError{Symbol: symbol, Reason: ReasonTransport, Err: err}
	}
	return &p, nil
}

// FetchNews requests scored news for a bare ticker.
func (c *AlphaVantageClient) FetchNews(ctx context.Context, baseSymbol string) ([]Article, error) {
	q := url.Values{}
	q.Set("function", "NEWS_SENTIMENT")
	q.Set("tickers", baseSymbol)

	var result struct {
		Feed        []Article `json:"feed"`
		Note        string    `json:"Note"`
		Information string    `json:"Information"`
	}
	if err := c.query(ctx, q, &result); err != nil {
		return nil, fmt.Errorf("fetch news: %w", err)
	}
	if len(result.Feed) == 0 && (result.Note != "" || result.Information != "") {
		return nil, fmt.Errorf("fetch news: %s%s", result.Note, result.Information)
	}
	return result.Feed, nil
}

func (c *AlphaVantageClient) query(ctx context.Context, q url.Values, dest interface{}) error {
	q.Set("apikey", c.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("alphavantage request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("alphavantage read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("alphavantage: status %d, body: %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("alphavantage decode: %w", err)
	}
	return nil
}
