package notifier

import (
	"context"
	"strings"

	"PriceOracle/internal/collector"
	"PriceOracle/internal/model"
	"PriceOracle/internal/pipeline"
	"PriceOracle/internal/recorder"
)

// Forecaster runs one forecast.
type Forecaster interface {
	Execute(ctx context.Context, ticker string, sink pipeline.ProgressSink) (*model.Forecast, error)
}

// NewCommandHandler routes bot commands to the forecaster and the history store.
func NewCommandHandler(f Forecaster, rec recorder.Recorder) CommandHandler {
	return func(ctx context.Context, command string) string {
		fields := strings.Fields(command)
		if len(fields) == 0 {
			return ""
		}
		// "/forecast@SomeBot TCS" addresses a specific bot in group chats
		name := strings.ToLower(strings.SplitN(fields[0], "@", 2)[0])
		args := fields[1:]

		switch name {
		case "/forecast", "/predict":
			if len(args) != 1 {
				return "Usage: /forecast &lt;TICKER&gt;"
			}
			fc, err := f.Execute(ctx, args[0], nil)
			if err != nil {
				return FormatFailure(args[0], pipeline.UserMessage(err))
			}
			return FormatForecast(fc)
		case "/history":
			symbol := ""
			if len(args) > 0 {
				symbol = collector.MarketSymbol(args[0])
			}
			list, err := rec.ListForecasts(ctx, symbol, 10)
			if err != nil {
				return "Could not read forecast history."
			}
			return FormatHistory(list)
		case "/help", "/start":
			return FormatHelp()
		default:
			return "Unknown command. Send /help for the list of commands."
		}
	}
}
