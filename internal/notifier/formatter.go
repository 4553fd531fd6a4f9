package notifier

import (
	"fmt"
	"html"
	"strings"

	"PriceOracle/internal/model"
)

// FormatForecast formats a finished forecast into a Telegram message.
func FormatForecast(f *model.Forecast) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("🔮 <b>PriceOracle</b> | %s\n\n", html.EscapeString(f.Symbol)))
	b.WriteString(fmt.Sprintf("Last close: %.2f\n", f.LastClose))
	b.WriteString(fmt.Sprintf("<b>Predicted next close: %.2f</b> (%s)\n\n", f.Predicted, signed(f.Change, f.ChangePct)))

	b.WriteString("📈 <b>Signals:</b>\n")
	b.WriteString(fmt.Sprintf("  RSI(14): %.2f\n", f.Summary.RecentRSI))
	b.WriteString(fmt.Sprintf("  SMA(20): %.2f\n", f.Summary.RecentSMA))
	b.WriteString(fmt.Sprintf("  Volume: %.0f\n", f.Summary.RecentVolume))
	b.WriteString(fmt.Sprintf("  News sentiment: %+.3f\n\n", f.Summary.Sentiment))

	b.WriteString(fmt.Sprintf("Trained %d epochs, final loss %.4f\n", f.Epochs, f.FinalLoss))
	b.WriteString(fmt.Sprintf("Run %s | %s", shortID(f.RunID), f.CreatedAt.Format("2006-01-02 15:04")))
	return b.String()
}

// FormatFailure formats a user-facing failure for ticker.
func FormatFailure(ticker, message string) string {
	return fmt.Sprintf("⚠️ <b>Forecast failed</b> | %s\n\n%s", html.EscapeString(strings.ToUpper(ticker)), html.EscapeString(message))
}

// FormatHistory lists recent forecasts, newest first.
func FormatHistory(forecasts []model.Forecast) string {
	if len(forecasts) == 0 {
		return "No forecasts recorded yet."
	}
	var b strings.Builder
	b.WriteString("📜 <b>Recent forecasts</b>\n\n")
	for _, f := range forecasts {
		b.WriteString(fmt.Sprintf("%s %s: %.2f → %.2f (%s)\n",
			f.CreatedAt.Format("01-02 15:04"), html.EscapeString(f.Symbol), f.LastClose, f.Predicted, signed(f.Change, f.ChangePct)))
	}
	return b.String()
}

// FormatHelp lists the supported commands.
func FormatHelp() string {
	return "<b>PriceOracle commands</b>\n\n" +
		"/forecast &lt;TICKER&gt; - train on recent history and predict the next close\n" +
		"/history [TICKER] - show recent forecasts\n" +
		"/help - show this message"
}

func signed(change, pct float64) string {
	return fmt.Sprintf("%+.2f, %+.2f%%", change, pct)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
