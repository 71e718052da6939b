package valuation

import (
	"errors"
	"fmt"
)

// Reason is the reportable cause of a company being skipped.
type Reason string

const (
	ReasonIncompleteFilings  Reason = "incomplete CVM historical data"
	ReasonIncompleteMarket   Reason = "incomplete market data"
	ReasonMarketFetch        Reason = "failed to fetch market data"
	ReasonInsufficientProfit Reason = "insufficient profit/EBIT data"
	ReasonMissingBalance     Reason = "missing or incomplete balance sheet data"
	ReasonInvestedCapital    Reason = "invested capital negative or zero"
	ReasonAverage            Reason = "could not compute average NOPAT or FCO"
	ReasonWACC               Reason = "WACC invalid or ≤ perpetuity growth rate"
	ReasonUnexpected         Reason = "unexpected error"
)

var (
	ErrIncompleteFilings  = errors.New("valuation: " + string(ReasonIncompleteFilings))
	ErrIncompleteMarket   = errors.New("valuation: " + string(ReasonIncompleteMarket))
	ErrMarketFetch        = errors.New("valuation: " + string(ReasonMarketFetch))
	ErrInsufficientProfit = errors.New("valuation: " + string(ReasonInsufficientProfit))
	ErrMissingBalance     = errors.New("valuation: " + string(ReasonMissingBalance))
	ErrInvestedCapital    = errors.New("valuation: " + string(ReasonInvestedCapital))
	ErrAverage            = errors.New("valuation: " + string(ReasonAverage))
	ErrWACCBelowGrowth    = errors.New("valuation: " + string(ReasonWACC))
	ErrUnexpected         = errors.New("valuation: " + string(ReasonUnexpected))
)

var sentinels = map[Reason]error{
	ReasonIncompleteFilings:  ErrIncompleteFilings,
	ReasonIncompleteMarket:   ErrIncompleteMarket,
	ReasonMarketFetch:        ErrMarketFetch,
	ReasonInsufficientProfit: ErrInsufficientProfit,
	ReasonMissingBalance:     ErrMissingBalance,
	ReasonInvestedCapital:    ErrInvestedCapital,
	ReasonAverage:            ErrAverage,
	ReasonWACC:               ErrWACCBelowGrowth,
	ReasonUnexpected:         ErrUnexpected,
}

// Failure is a per-company soft failure. It matches both the reason
// sentinel and the underlying cause under errors.Is.
type Failure struct {
	Ticker string
	Reason Reason
	Err    error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.Ticker, f.Reason, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Ticker, f.Reason)
}

func (f *Failure) Unwrap() []error {
	out := make([]error, 0, 2)
	if s, ok := sentinels[f.Reason]; ok {
		out = append(out, s)
	}
	if f.Err != nil {
		out = append(out, f.Err)
	}
	return out
}

func fail(ticker string, reason Reason, err error) *Failure {
	return &Failure{Ticker: ticker, Reason: reason, Err: err}
}

// AsFailure extracts a *Failure from an error chain.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}
