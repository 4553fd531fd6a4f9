package pipeline

import (
	"context"
	"errors"
	"fmt"

	"PriceOracle/internal/collector"
	"PriceOracle/internal/features"
	"PriceOracle/internal/trainer"
)

// ErrBusy is returned by TryExecute while another run is in progress.
var ErrBusy = errors.New("another forecast is in progress")

// Reason returns a short, stable label for the failure class of err.
func Reason(err error) string {
	var de *collector.DataError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &de):
		return string(de.Reason)
	case errors.Is(err, features.ErrInsufficientHistory):
		return "insufficient_history"
	case errors.Is(err, trainer.ErrTraining):
		return "training"
	case errors.Is(err, ErrBoundsMismatch):
		return "bounds_mismatch"
	case errors.Is(err, ErrBusy):
		return "busy"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "internal"
	}
}

// UserMessage turns a run error into text suitable for an end user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var de *collector.DataError
	if errors.As(err, &de) {
		switch de.Reason {
		case collector.ReasonBadSymbol:
			return fmt.Sprintf("Unknown ticker %q. Check the symbol and its exchange suffix (for example RELIANCE.BSE).", de.Symbol)
		case collector.ReasonRateLimited:
			return "The market data provider's request limit was reached. Please try again later."
		case collector.ReasonTransport:
			return "The market data provider could not be reached. Please try again later."
		default:
			return fmt.Sprintf("No usable market data was returned for %s.", de.Symbol)
		}
	}
	var he *features.HistoryError
	if errors.As(err, &he) {
		return fmt.Sprintf("Not enough trading history: %d days available, at least %d are needed.", he.Days, he.Window+1)
	}
	switch Reason(err) {
	case "training":
		return "Model training failed. Please try again."
	case "bounds_mismatch":
		return "Internal error: the forecast could not be scaled back to prices."
	case "busy":
		return "Another forecast is already running. Please wait for it to finish."
	case "canceled":
		return "The forecast was cancelled."
	case "timeout":
		return "The forecast took too long and was stopped."
	}
	return "Unexpected error: " + err.Error()
}
