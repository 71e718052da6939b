package valuation

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/komsit37/valor/pkg/valor/history"
	"github.com/komsit37/valor/pkg/valor/risk"
	"github.com/komsit37/valor/pkg/valor/types"
)

type stubMarket struct {
	quote types.Quote
	err   error
}

func (s stubMarket) Quote(context.Context, string) (types.Quote, error) { return s.quote, s.err }

type stubHistory struct {
	points []types.PricePoint
	err    error
}

func (s stubHistory) Daily(context.Context, string, int) ([]types.PricePoint, error) {
	return s.points, s.err
}

func ptr(v float64) *float64 { return &v }

func goodQuote() types.Quote {
	return types.Quote{Name: "Acme SA", Price: ptr(10), MarketCap: ptr(1000), Shares: ptr(100)}
}

func final(code types.AccountCode, year int, v float64) types.FilingRow {
	return types.FilingRow{
		Company: "9999",
		Account: code,
		RefDate: time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC),
		Order:   types.OrderFinal,
		Value:   v,
	}
}

func yearly(code types.AccountCode, vals ...float64) []types.FilingRow {
	out := make([]types.FilingRow, len(vals))
	for i, v := range vals {
		out[i] = final(code, 2021+i, v)
	}
	return out
}

func concat(parts ...[]types.FilingRow) []types.FilingRow {
	var out []types.FilingRow
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// scenarioRows is a company with EBIT 100/110/120, a 30% tax rate and the
// balance sheet of the reference worked example.
func scenarioRows() map[types.StatementKind][]types.FilingRow {
	return map[types.StatementKind][]types.FilingRow{
		types.Income: concat(
			yearly(types.EBIT, 100, 110, 120),
			yearly(types.IncomeTax, -30, -33, -36),
			yearly(types.PreTaxIncome, 100, 110, 120),
			yearly(types.FinancialExpenses, -8, -9, -10),
		),
		types.Assets: {
			final(types.Receivables, 2023, 50),
			final(types.Inventories, 2023, 30),
			final(types.FixedAssets, 2023, 200),
			final(types.Intangibles, 2023, 0),
		},
		types.Liabilities: {
			final(types.Suppliers, 2023, 40),
			final(types.ShortTermDebt, 2023, 20),
			final(types.LongTermDebt, 2023, 80),
		},
		types.CashFlow: yearly(types.DepreciationAmortization, 10, 10, 10),
	}
}

func scenarioSnapshot() types.MarketSnapshot {
	return types.MarketSnapshot{RiskFree: 0.10, MarketReturn: 0.15, EquityPremium: 0.05}
}

func newEngine(q types.Quote) *Engine {
	return &Engine{Market: stubMarket{quote: q}, History: stubHistory{}, Suffix: ".SA"}
}

var entry = types.TickerEntry{Company: "9999", Ticker: "ACME3"}

func TestEvaluateWorkedExample(t *testing.T) {
	fin := history.NewFinancials("9999", scenarioRows())
	res, err := newEngine(goodQuote()).Evaluate(context.Background(), entry, fin, scenarioSnapshot(), types.DefaultParams())
	require.NoError(t, err)

	const tol = 1e-9
	require.InDelta(t, 0.30, res.TaxRate, tol)
	require.InDelta(t, 240.0, res.InvestedCap, tol)
	require.InDelta(t, 77.0, res.NOPATAvg, tol)
	require.InDelta(t, 87.0, res.FCOAvg, tol)
	require.InDelta(t, 77.0/240, res.ROIC, tol)
	require.InDelta(t, 1.0, res.Beta, tol)
	require.InDelta(t, 0.15, res.Ke, tol)
	require.InDelta(t, 0.07, res.Kd, tol)
	require.InDelta(t, 100.0, res.TotalDebt, tol)

	wacc := 1000.0/1100*0.15 + 100.0/1100*0.07
	require.InDelta(t, wacc, res.WACC, tol)
	require.InDelta(t, 0.1427, res.WACC, 1e-4)

	rv := 87 * 1.04 / (wacc - 0.04)
	require.InDelta(t, rv, res.ResidualValue, 1e-6)
	require.InDelta(t, 878, res.ResidualValue, 5)
	require.InDelta(t, rv-100, res.EquityValue, 1e-6)
	require.InDelta(t, (rv-100)/100, res.FairPrice, 1e-8)
	require.InDelta(t, 7.78, res.FairPrice, 0.05)
	require.InDelta(t, (rv-100)/100/10-1, res.MarginOfSafety, 1e-8)
	require.InDelta(t, -0.222, res.MarginOfSafety, 0.005)

	eva := (77.0/240 - wacc) * 240
	require.InDelta(t, eva, res.EVA, 1e-8)
	require.InDelta(t, 860.0, res.FutureWealth, tol)
	require.InDelta(t, 860-eva/wacc, res.EFV, 1e-6)

	require.Equal(t, "Acme SA", res.Name)
	require.Equal(t, []int{2021, 2022, 2023}, history.Series(res.NOPATSeries).Years())
	require.InDeltaSlice(t, []float64{70, 77, 84}, history.Series(res.NOPATSeries).Values(), tol)
	require.InDeltaSlice(t, []float64{80, 87, 94}, history.Series(res.FCOSeries).Values(), tol)
	require.InDelta(t, 84.0/240, res.ROICSeries[2].Value, tol)
	for _, p := range res.WACCSeries {
		require.Equal(t, res.WACC, p.Value)
	}
}

func TestEvaluateIsIdempotent(t *testing.T) {
	fin := history.NewFinancials("9999", scenarioRows())
	e := newEngine(goodQuote())
	a, err := e.Evaluate(context.Background(), entry, fin, scenarioSnapshot(), types.DefaultParams())
	require.NoError(t, err)
	b, err := e.Evaluate(context.Background(), entry, fin, scenarioSnapshot(), types.DefaultParams())
	require.NoError(t, err)
	require.Equal(t, a, b)
	require.Equal(t, math.Float64bits(a.FairPrice), math.Float64bits(b.FairPrice))
}

func TestEvaluateFailureReasons(t *testing.T) {
	transport := errors.New("dial tcp: timeout")
	cases := []struct {
		name   string
		quote  types.Quote
		qerr   error
		mutate func(rows map[types.StatementKind][]types.FilingRow)
		params func(p *types.Params)
		reason Reason
		is     error
	}{
		{
			name:   "missing cash flow table",
			mutate: func(r map[types.StatementKind][]types.FilingRow) { delete(r, types.CashFlow) },
			reason: ReasonIncompleteFilings, is: ErrIncompleteFilings,
		},
		{
			name:   "quote transport error",
			qerr:   transport,
			reason: ReasonMarketFetch, is: ErrMarketFetch,
		},
		{
			name:   "quote without shares",
			quote:  types.Quote{Name: "X", Price: ptr(10), MarketCap: ptr(1000)},
			reason: ReasonIncompleteMarket, is: ErrIncompleteMarket,
		},
		{
			name: "zero pretax income",
			mutate: func(r map[types.StatementKind][]types.FilingRow) {
				r[types.Income] = concat(yearly(types.EBIT, 100), yearly(types.PreTaxIncome, 50, -50), yearly(types.FinancialExpenses, -1))
			},
			reason: ReasonInsufficientProfit, is: ErrInsufficientProfit,
		},
		{
			name: "missing suppliers",
			mutate: func(r map[types.StatementKind][]types.FilingRow) {
				r[types.Liabilities] = r[types.Liabilities][1:]
			},
			reason: ReasonMissingBalance, is: ErrMissingBalance,
		},
		{
			name: "negative invested capital",
			mutate: func(r map[types.StatementKind][]types.FilingRow) {
				r[types.Assets] = append(r[types.Assets], final(types.FixedAssets, 2023, -500))
			},
			reason: ReasonInvestedCapital, is: ErrInvestedCapital,
		},
		{
			name:   "undefined average",
			params: func(p *types.Params) { p.AveragingYears = 0 },
			reason: ReasonAverage, is: ErrAverage,
		},
		{
			name:   "growth above wacc",
			params: func(p *types.Params) { p.GrowthRate = 0.2 },
			reason: ReasonWACC, is: ErrWACCBelowGrowth,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rows := scenarioRows()
			if tc.mutate != nil {
				tc.mutate(rows)
			}
			p := types.DefaultParams()
			if tc.params != nil {
				tc.params(&p)
			}
			q := tc.quote
			if q == (types.Quote{}) && tc.qerr == nil {
				q = goodQuote()
			}
			e := &Engine{Market: stubMarket{quote: q, err: tc.qerr}, History: stubHistory{}}
			res, err := e.Evaluate(context.Background(), entry, history.NewFinancials("9999", rows), scenarioSnapshot(), p)
			require.Nil(t, res)
			require.Error(t, err)
			f, ok := AsFailure(err)
			require.True(t, ok)
			require.Equal(t, tc.reason, f.Reason)
			require.Equal(t, "ACME3", f.Ticker)
			require.ErrorIs(t, err, tc.is)
			if tc.qerr != nil {
				require.ErrorIs(t, err, tc.qerr)
			}
		})
	}
}

func TestEvaluatePriceFallsBackToPreviousClose(t *testing.T) {
	q := goodQuote()
	q.Price = nil
	q.PrevClose = ptr(8)
	res, err := newEngine(q).Evaluate(context.Background(), entry, history.NewFinancials("9999", scenarioRows()), scenarioSnapshot(), types.DefaultParams())
	require.NoError(t, err)
	require.Equal(t, 8.0, res.Price)
}

func TestEvaluateFairPriceUsesReportedShares(t *testing.T) {
	// Market cap covers every share class; the quote reports 50 shares for
	// this class, so fair price is not equity over cap/price.
	q := goodQuote()
	q.Shares = ptr(50)
	res, err := newEngine(q).Evaluate(context.Background(), entry, history.NewFinancials("9999", scenarioRows()), scenarioSnapshot(), types.DefaultParams())
	require.NoError(t, err)

	base, err := newEngine(goodQuote()).Evaluate(context.Background(), entry, history.NewFinancials("9999", scenarioRows()), scenarioSnapshot(), types.DefaultParams())
	require.NoError(t, err)
	require.InDelta(t, base.EquityValue, res.EquityValue, 1e-9)
	require.InDelta(t, base.WACC, res.WACC, 1e-12)

	require.InDelta(t, res.EquityValue/50, res.FairPrice, 1e-9)
	require.InDelta(t, 2*base.FairPrice, res.FairPrice, 1e-9)
	require.InDelta(t, res.EquityValue/50/10-1, res.MarginOfSafety, 1e-9)
	require.Equal(t, 50.0, res.Shares)
}

func TestEvaluateHistoryErrorGivesNeutralBeta(t *testing.T) {
	e := newEngine(goodQuote())
	e.History = stubHistory{err: errors.New("rate limited")}
	res, err := e.Evaluate(context.Background(), entry, history.NewFinancials("9999", scenarioRows()), scenarioSnapshot(), types.DefaultParams())
	require.NoError(t, err)
	require.InDelta(t, 1.0, res.Beta, 1e-12)
}

func TestEvaluatePeerLeverage(t *testing.T) {
	e := newEngine(goodQuote())
	e.Leverage = risk.PeerRelever{PeerDebtToEquity: 0.5}
	res, err := e.Evaluate(context.Background(), entry, history.NewFinancials("9999", scenarioRows()), scenarioSnapshot(), types.DefaultParams())
	require.NoError(t, err)
	want := 1.0 / (1 + 0.7*0.5) * (1 + 0.7*0.1)
	require.InDelta(t, want, res.Beta, 1e-9)
	require.InDelta(t, 0.10+want*0.05, res.Ke, 1e-9)
}

func TestRank(t *testing.T) {
	rs := []*types.ValuationResult{
		{Ticker: "A", MarginOfSafety: 0.1, ROIC: 0.3, EVA: 5, EFV: -1},
		{Ticker: "B", MarginOfSafety: 0.5, ROIC: 0.1, EVA: 1, EFV: 9},
		{Ticker: "C", MarginOfSafety: -0.2, ROIC: 0.2, EVA: 9, EFV: 3},
	}
	tickers := func(in []*types.ValuationResult) []string {
		out := make([]string, len(in))
		for i, r := range in {
			out[i] = r.Ticker
		}
		return out
	}
	require.Equal(t, []string{"B", "A", "C"}, tickers(Rank(rs, ByMarginOfSafety, 0)))
	require.Equal(t, []string{"A", "C"}, tickers(Rank(rs, ByROIC, 2)))
	require.Equal(t, []string{"C"}, tickers(Rank(rs, ByEVA, 1)))
	require.Equal(t, []string{"B", "C", "A"}, tickers(Rank(rs, ByEFV, 20)))
	require.Equal(t, "A", rs[0].Ticker)

	k, err := ParseRankKey("ROIC")
	require.NoError(t, err)
	require.Equal(t, ByROIC, k)
	_, err = ParseRankKey("pe")
	require.Error(t, err)
}
