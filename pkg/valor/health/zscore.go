package health

import (
	"errors"
	"fmt"

	"github.com/komsit37/valor/pkg/valor/history"
	"github.com/komsit37/valor/pkg/valor/types"
)

const (
	RiskHigh    = "High Risk"
	RiskGrey    = "Grey Zone"
	RiskHealthy = "Healthy"
	RiskError   = "calculation error"
)

var (
	ErrMissingLineItem  = errors.New("health: missing line item")
	ErrMissingMarketCap = errors.New("health: missing market cap")
)

// ZInputs are the five Prado ratios.
type ZInputs struct {
	X1 float64 // CDG / total assets
	X2 float64 // retained earnings proxy / total assets
	X3 float64 // EBIT / total assets
	X4 float64 // market cap / total liabilities
	X5 float64 // net revenue / total assets
}

// ZScore applies the Prado coefficients.
func ZScore(in ZInputs) float64 {
	return 0.038*in.X1 + 1.253*in.X2 + 2.331*in.X3 + 0.511*in.X4 + 0.824*in.X5
}

// ClassifyZ maps a score to its risk tier; each lower bound is inclusive.
func ClassifyZ(z float64) string {
	switch {
	case z < 1.81:
		return RiskHigh
	case z < 2.99:
		return RiskGrey
	default:
		return RiskHealthy
	}
}

// PradoInputs reads the latest-year figures. The retained earnings proxy is
// the change in equity across the window.
func PradoInputs(fin *history.Financials, cdg history.Series, marketCap *float64) (ZInputs, error) {
	if marketCap == nil {
		return ZInputs{}, ErrMissingMarketCap
	}
	last := func(code types.AccountCode) (float64, error) {
		v, ok := fin.History(code).Last()
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrMissingLineItem, code)
		}
		return v, nil
	}
	assets, err := last(types.TotalAssets)
	if err != nil {
		return ZInputs{}, err
	}
	if assets == 0 {
		return ZInputs{}, fmt.Errorf("%w: total assets are zero", ErrMissingLineItem)
	}
	liabilities, err := last(types.TotalLiabilities)
	if err != nil {
		return ZInputs{}, err
	}
	ebit, err := last(types.EBIT)
	if err != nil {
		return ZInputs{}, err
	}
	revenue, err := last(types.NetRevenue)
	if err != nil {
		return ZInputs{}, err
	}
	eq := fin.History(types.Equity)
	eqLast, ok1 := eq.Last()
	eqFirst, ok2 := eq.First()
	cdgLast, ok3 := cdg.Last()
	if !ok1 || !ok2 || !ok3 {
		return ZInputs{}, fmt.Errorf("%w: equity or CDG", ErrMissingLineItem)
	}

	in := ZInputs{
		X1: cdgLast / assets,
		X2: (eqLast - eqFirst) / assets,
		X3: ebit / assets,
		X5: revenue / assets,
	}
	if liabilities > 0 {
		in.X4 = *marketCap / liabilities
	}
	return in, nil
}
