package collector

import (
	"math"
	"strconv"
	"strings"
)

// NeutralSentiment is used whenever no attributable sentiment exists. It encodes
// a mild positive market drift rather than zero.
const NeutralSentiment = 0.15

// AggregateSentiment averages the scores tagged with baseSymbol across articles.
func AggregateSentiment(articles []Article, baseSymbol string) float64 {
	base := strings.ToUpper(baseSymbol)
	total := 0.0
	count := 0
	for _, a := range articles {
		for _, ts := range a.TickerSentiment {
			if !strings.EqualFold(ts.Ticker, base) {
				continue
			}
			score, err := strconv.ParseFloat(strings.TrimSpace(ts.Score), 64)
			if err != nil || math.IsNaN(score) || math.IsInf(score, 0) {
				continue
			}
			total += score
			count++
			// one score per article
			break
		}
	}
	if count == 0 {
		return NeutralSentiment
	}
	return total / float64(count)
}
