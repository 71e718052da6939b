package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParamsValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(p *Params)
		ok     bool
	}{
		{"defaults", func(p *Params) {}, true},
		{"negative growth", func(p *Params) { p.GrowthRate = -0.01 }, false},
		{"growth of one", func(p *Params) { p.GrowthRate = 1 }, false},
		{"zero averaging", func(p *Params) { p.AveragingYears = 0 }, false},
		{"averaging beyond history", func(p *Params) { p.AveragingYears = 6 }, false},
		{"averaging equal to history", func(p *Params) { p.AveragingYears = 5 }, true},
		{"lookback 3", func(p *Params) { p.BetaLookbackYears = 3 }, false},
		{"lookback 10", func(p *Params) { p.BetaLookbackYears = 10 }, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := DefaultParams()
			tc.mutate(&p)
			err := p.Validate()
			if tc.ok {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}

func TestAccountStatement(t *testing.T) {
	require.Equal(t, Income, EBIT.Statement())
	require.Equal(t, Assets, Receivables.Statement())
	require.Equal(t, Assets, TotalAssets.Statement())
	require.Equal(t, Liabilities, Equity.Statement())
	require.Equal(t, CashFlow, DepreciationAmortization.Statement())
}

func TestQuoteCurrentPriceFallsBackToPreviousClose(t *testing.T) {
	prev := 9.5
	q := Quote{PrevClose: &prev}
	require.Equal(t, 9.5, *q.CurrentPrice())

	px := 10.0
	q.Price = &px
	require.Equal(t, 10.0, *q.CurrentPrice())

	require.Nil(t, Quote{}.CurrentPrice())
}
