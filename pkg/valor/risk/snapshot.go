package risk

import (
	"github.com/komsit37/valor/pkg/valor/types"
)

// NewSnapshot derives the expected market return and equity premium from
// the index history. The index slice is copied so the snapshot owns it.
func NewSnapshot(riskFree float64, index []types.PricePoint) types.MarketSnapshot {
	mr := ExpectedMarketReturn(index)
	return types.MarketSnapshot{
		RiskFree:      riskFree,
		MarketReturn:  mr,
		EquityPremium: mr - riskFree,
		Index:         append([]types.PricePoint(nil), index...),
	}
}
