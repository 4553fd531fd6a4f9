package pipeline

import (
	"time"

	"github.com/shopspring/decimal"

	"PriceOracle/internal/features"
	"PriceOracle/internal/model"
	"PriceOracle/internal/trainer"
)

func round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// buildForecast assembles the reported forecast. Prices are rounded to cents.
func buildForecast(run *Run, res *features.Result, predicted float64, out trainer.Outcome, at time.Time) *model.Forecast {
	last := decimal.NewFromFloat(res.Summary.LastClose).Round(2)
	next := decimal.NewFromFloat(predicted).Round(2)
	change := next.Sub(last)
	pct := decimal.Zero
	if !last.IsZero() {
		pct = change.Div(last).Mul(decimal.NewFromInt(100)).Round(2)
	}

	display := make([]model.DisplayRecord, len(res.Display))
	for i, d := range res.Display {
		display[i] = model.DisplayRecord{
			Date:  d.Date,
			Price: round(d.Price, 2),
			RSI:   round(d.RSI, 2),
			SMA:   round(d.SMA, 2),
		}
	}

	return &model.Forecast{
		RunID:     run.ID,
		Symbol:    run.Symbol,
		LastClose: last.InexactFloat64(),
		Predicted: next.InexactFloat64(),
		Change:    change.InexactFloat64(),
		ChangePct: pct.InexactFloat64(),
		Epochs:    out.EpochsRun,
		FinalLoss: out.FinalLoss,
		Summary: model.Summary{
			LastClose:    last.InexactFloat64(),
			RecentVolume: res.Summary.RecentVolume,
			RecentRSI:    round(res.Summary.RecentRSI, 2),
			RecentSMA:    round(res.Summary.RecentSMA, 2),
			Sentiment:    round(res.Summary.Sentiment, 3),
		},
		Display:   display,
		CreatedAt: at,
	}
}
