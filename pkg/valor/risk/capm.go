package risk

import (
	"math"

	"github.com/komsit37/valor/pkg/valor/types"
)

const (
	// DefaultMarketReturn is used when the index history is unavailable.
	DefaultMarketReturn = 0.12
	// TradingDays annualizes the mean daily index return.
	TradingDays = 252
)

// CostOfEquity is the CAPM rate rf + β·ERP.
func CostOfEquity(riskFree, beta, premium float64) float64 {
	return riskFree + beta*premium
}

// ExpectedMarketReturn compounds the mean daily index return over a year.
func ExpectedMarketReturn(index []types.PricePoint) float64 {
	var sum float64
	n := 0
	for i := 1; i < len(index); i++ {
		r := index[i].Close/index[i-1].Close - 1
		if math.IsNaN(r) || math.IsInf(r, 0) {
			continue
		}
		sum += r
		n++
	}
	if n == 0 {
		return DefaultMarketReturn
	}
	return math.Pow(1+sum/float64(n), TradingDays) - 1
}

// AfterTaxCostOfDebt is (interest / debt)(1 − t), zero without debt.
func AfterTaxCostOfDebt(interest, debt, taxRate float64) float64 {
	if debt <= 0 {
		return 0
	}
	return interest / debt * (1 - taxRate)
}
