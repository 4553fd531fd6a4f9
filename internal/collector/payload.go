package collector

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"PriceOracle/internal/model"
)

// ParseDailySeries converts a daily payload into bars ordered oldest first.
func ParseDailySeries(symbol string, p *DailyPayload) ([]model.PriceBar, error) {
	if p == nil {
		return nil, &DataError{Symbol: symbol, Reason: ReasonEmpty, Detail: "no payload"}
	}
	if len(p.Series) == 0 {
		return nil, classifyEmpty(symbol, p)
	}

	bars := make([]model.PriceBar, 0, len(p.Series))
	for day, raw := range p.Series {
		date, err := time.Parse(model.DateLayout, strings.TrimSpace(day))
		if err != nil {
			return nil, &DataError{Symbol: symbol, Reason: ReasonMalformed, Detail: fmt.Sprintf("date %q", day), Err: err}
		}
		closePrice, err := strconv.ParseFloat(strings.TrimSpace(raw.Close), 64)
		if err != nil || closePrice <= 0 {
			return nil, &DataError{Symbol: symbol, Reason: ReasonMalformed, Detail: fmt.Sprintf("close %q on %s", raw.Close, day)}
		}
		volume, err := strconv.ParseFloat(strings.TrimSpace(raw.Volume), 64)
		if err != nil || volume < 0 {
			return nil, &DataError{Symbol: symbol, Reason: ReasonMalformed, Detail: fmt.Sprintf("volume %q on %s", raw.Volume, day)}
		}
		bars = append(bars, model.PriceBar{Date: date, Close: closePrice, Volume: volume})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

func classifyEmpty(symbol string, p *DailyPayload) *DataError {
	switch {
	case p.Note != "":
		return &DataError{Symbol: symbol, Reason: ReasonRateLimited, Detail: p.Note}
	case p.Information != "":
		return &DataError{Symbol: symbol, Reason: ReasonRateLimited, Detail: p.Information}
	case p.ErrorMessage != "":
		return &DataError{Symbol: symbol, Reason: ReasonBadSymbol, Detail: p.ErrorMessage}
	default:
		return &DataError{Symbol: symbol, Reason: ReasonEmpty, Detail: "empty market data returned"}
	}
}

// MarketSymbol upper-cases a user ticker and appends the default exchange
// suffix when the ticker carries none. Index symbols (^...) are left alone.
func MarketSymbol(ticker string) string {
	s := strings.ToUpper(strings.TrimSpace(ticker))
	if s == "" {
		return s
	}
	if !strings.Contains(s, ".") && !strings.HasPrefix(s, "^") {
		s += DefaultExchangeSuffix
	}
	return s
}

// BaseSymbol strips any exchange suffix. News sources key sentiment by bare ticker.
func BaseSymbol(ticker string) string {
	s := strings.ToUpper(strings.TrimSpace(ticker))
	if i := strings.Index(s, "."); i >= 0 {
		s = s[:i]
	}
	return s
}

// DefaultExchangeSuffix is appended to tickers given without an exchange.
const DefaultExchangeSuffix = ".BSE"
