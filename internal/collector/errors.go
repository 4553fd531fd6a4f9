package collector

import (
	"errors"
	"fmt"
)

// ErrDataUnavailable is matched by every DataError.
var ErrDataUnavailable = errors.New("market data unavailable")

// Reason classifies why no usable series was returned.
type Reason string

const (
	ReasonBadSymbol   Reason = "bad_symbol"
	ReasonRateLimited Reason = "rate_limited"
	ReasonEmpty       Reason = "empty"
	ReasonMalformed   Reason = "malformed"
	ReasonTransport   Reason = "transport"
)

// DataError reports a market payload that cannot feed the pipeline.
type DataError struct {
	Symbol string
	Reason Reason
	Detail string
	Err    error
}

func (e *DataError) Error() string {
	msg := fmt.Sprintf("market data unavailable for %s (%s)", e.Symbol, e.Reason)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DataError) Is(target error) bool { return target == ErrDataUnavailable }

func (e *DataError) Unwrap() error { return e.Err }
