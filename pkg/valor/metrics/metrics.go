// Package metrics derives operating figures (tax rate, NOPAT, operating cash
// flow, working-capital need, invested capital) from account histories.
package metrics

import (
	"errors"
	"fmt"
	"math"

	"github.com/komsit37/valor/pkg/valor/history"
	"github.com/komsit37/valor/pkg/valor/types"
)

var (
	ErrInsufficientProfit     = errors.New("metrics: insufficient profit/EBIT data")
	ErrMissingBalance         = errors.New("metrics: missing balance sheet data")
	ErrInvalidInvestedCapital = errors.New("metrics: invested capital negative or zero")
	ErrUndefinedAverage       = errors.New("metrics: undefined average")
)

// EffectiveTaxRate is |Σtax| / |Σpretax| over the whole window.
func EffectiveTaxRate(tax, pretax, ebit history.Series) (float64, error) {
	sum := pretax.Sum()
	if sum == 0 || ebit.Empty() {
		return 0, ErrInsufficientProfit
	}
	return math.Abs(tax.Sum()) / math.Abs(sum), nil
}

// TaxRateSuspicious flags rates above 100%, which usually mean a sign or
// scale problem in the filings.
func TaxRateSuspicious(rate float64) bool { return rate > 1 }

// NOPAT is ebit × (1 − rate) for every EBIT year.
func NOPAT(ebit history.Series, rate float64) history.Series {
	return ebit.Scale(1 - rate)
}

// FCO adds depreciation and amortization to NOPAT, zero-filling gaps.
func FCO(nopat, da history.Series) history.Series {
	return nopat.Add(da)
}

// WorkingCapitalNeed is receivables + inventories − payables at one date.
func WorkingCapitalNeed(receivables, inventories, payables float64) float64 {
	return receivables + inventories - payables
}

// InvestedCapital is NCG + fixed assets + intangibles; it must be positive.
func InvestedCapital(ncg, fixed, intangible float64) (float64, error) {
	ic := ncg + fixed + intangible
	if ic <= 0 || math.IsNaN(ic) {
		return ic, ErrInvalidInvestedCapital
	}
	return ic, nil
}

// AverageLast is the mean of the last k entries.
func AverageLast(s history.Series, k int) (float64, error) {
	if k < 1 {
		return math.NaN(), fmt.Errorf("%w: window %d", ErrUndefinedAverage, k)
	}
	m := s.Tail(k).Mean()
	if math.IsNaN(m) {
		return m, ErrUndefinedAverage
	}
	return m, nil
}

// BalanceSheet are the latest-year point values the valuation needs.
type BalanceSheet struct {
	Receivables     float64
	Inventories     float64
	Payables        float64
	FixedAssets     float64
	Intangibles     float64
	ShortTermDebt   float64
	LongTermDebt    float64
	InterestExpense float64 // absolute value of 3.07
}

func (b BalanceSheet) TotalDebt() float64 { return b.ShortTermDebt + b.LongTermDebt }

func (b BalanceSheet) WorkingCapitalNeed() float64 {
	return WorkingCapitalNeed(b.Receivables, b.Inventories, b.Payables)
}

// ExtractBalanceSheet reads the latest value of every balance line. Each
// line uses its own latest year.
func ExtractBalanceSheet(f *history.Financials) (BalanceSheet, error) {
	var b BalanceSheet
	lines := []struct {
		code types.AccountCode
		dst  *float64
	}{
		{types.Receivables, &b.Receivables},
		{types.Inventories, &b.Inventories},
		{types.Suppliers, &b.Payables},
		{types.FixedAssets, &b.FixedAssets},
		{types.Intangibles, &b.Intangibles},
		{types.ShortTermDebt, &b.ShortTermDebt},
		{types.LongTermDebt, &b.LongTermDebt},
		{types.FinancialExpenses, &b.InterestExpense},
	}
	for _, l := range lines {
		v, ok := f.History(l.code).Last()
		if !ok {
			return BalanceSheet{}, fmt.Errorf("%w: account %s", ErrMissingBalance, l.code)
		}
		*l.dst = v
	}
	b.InterestExpense = math.Abs(b.InterestExpense)
	return b, nil
}
