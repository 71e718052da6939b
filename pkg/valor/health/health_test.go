package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/komsit37/valor/pkg/valor/history"
	"github.com/komsit37/valor/pkg/valor/types"
)

type stubMarket struct {
	quote types.Quote
	err   error
}

func (s stubMarket) Quote(context.Context, string) (types.Quote, error) { return s.quote, s.err }

func ptr(v float64) *float64 { return &v }

func yearly(code types.AccountCode, vals ...float64) []types.FilingRow {
	out := make([]types.FilingRow, len(vals))
	for i, v := range vals {
		out[i] = types.FilingRow{
			Company: "1",
			Account: code,
			RefDate: time.Date(2022+i, 12, 31, 0, 0, 0, 0, time.UTC),
			Order:   types.OrderFinal,
			Value:   v,
		}
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

// company builds two years where NCG grows 50% and CDG grows 10%.
func company(equity2 float64) map[types.StatementKind][]types.FilingRow {
	return map[types.StatementKind][]types.FilingRow{
		types.Assets: concat(
			yearly(types.Inventories, 60, 90),
			yearly(types.Receivables, 60, 90),
			yearly(types.NonCurrentAssets, 500, 500),
			yearly(types.TotalAssets, 1000, 1000),
		),
		types.Liabilities: concat(
			yearly(types.Suppliers, 20, 30),
			yearly(types.Equity, 400, equity2),
			yearly(types.NonCurrentLiabilities, 200, 200),
			yearly(types.TotalLiabilities, 1000, 1000),
		),
		types.Income: concat(
			yearly(types.EBIT, 80, 100),
			yearly(types.NetRevenue, 900, 1000),
		),
	}
}

func TestClassifySeries(t *testing.T) {
	f, err := Classify(history.NewFinancials("1", company(510)))
	require.NoError(t, err)
	require.Equal(t, history.Of(2022, 100, 150), f.NCG)
	require.Equal(t, history.Of(2022, 100, 210), f.CDG)
	require.Equal(t, history.Of(2022, 0, 60), f.Treasury)
	require.Equal(t, 2023, f.Year())
}

func TestScissorEffectBothBranches(t *testing.T) {
	ncg := history.Of(2022, 100, 150) // +50%
	cdgSlow := history.Of(2022, 100, 110)
	cdgFast := history.Of(2022, 100, 200)

	require.True(t, ScissorEffect(ncg, cdgSlow, cdgSlow.Sub(ncg)))

	// CDG growing at least as fast never triggers, whatever the treasury sign.
	require.False(t, ScissorEffect(ncg, cdgFast, history.Of(2022, -10, -10)))
	require.False(t, ScissorEffect(ncg, history.Of(2022, 100, 150), history.Of(2022, -10, -10)))

	// Faster NCG growth with a positive treasury is not a scissor.
	require.False(t, ScissorEffect(ncg, cdgSlow, history.Of(2022, 10, 10)))

	// Undefined growth rates or a single year.
	require.False(t, ScissorEffect(history.Of(2022, 0, 0), cdgSlow, history.Of(2022, -1, -1)))
	require.False(t, ScissorEffect(history.Of(2023, 1), history.Of(2023, 1), history.Of(2023, -1)))
}

func TestClassifyIncomplete(t *testing.T) {
	rows := company(510)
	delete(rows, types.Income)
	_, err := Classify(history.NewFinancials("1", rows))
	require.ErrorIs(t, err, ErrIncompleteFilings)

	rows = company(510)
	rows[types.Liabilities] = yearly(types.Equity, 1, 2)
	_, err = Classify(history.NewFinancials("1", rows))
	require.ErrorIs(t, err, ErrEmptySeries)
}

func TestClassifyZBoundaries(t *testing.T) {
	require.Equal(t, RiskHigh, ClassifyZ(1.80999))
	require.Equal(t, RiskGrey, ClassifyZ(1.81))
	require.Equal(t, RiskGrey, ClassifyZ(2.98999))
	require.Equal(t, RiskHealthy, ClassifyZ(2.99))
	require.Equal(t, RiskHigh, ClassifyZ(-3))
}

func TestZScoreCoefficients(t *testing.T) {
	require.InDelta(t, 0.038, ZScore(ZInputs{X1: 1}), 1e-15)
	require.InDelta(t, 1.253, ZScore(ZInputs{X2: 1}), 1e-15)
	require.InDelta(t, 2.331, ZScore(ZInputs{X3: 1}), 1e-15)
	require.InDelta(t, 0.511, ZScore(ZInputs{X4: 1}), 1e-15)
	require.InDelta(t, 0.824, ZScore(ZInputs{X5: 1}), 1e-15)
}

func TestAssessScoresCompany(t *testing.T) {
	a := &Assessor{Market: stubMarket{quote: types.Quote{Name: "Acme", MarketCap: ptr(2000)}}, Suffix: ".SA"}
	res, err := a.Assess(context.Background(), types.TickerEntry{Company: "1", Ticker: "ACME3"}, history.NewFinancials("1", company(510)))
	require.NoError(t, err)
	require.Equal(t, "Acme", res.Name)
	require.Equal(t, 2023, res.Year)
	require.Equal(t, 150.0, res.NCG)
	require.Equal(t, 210.0, res.CDG)
	require.Equal(t, 60.0, res.Treasury)
	require.False(t, res.Scissor)

	want := 0.038*0.21 + 1.253*0.11 + 2.331*0.1 + 0.511*2 + 0.824*1
	require.NotNil(t, res.ZScore)
	require.InDelta(t, want, *res.ZScore, 1e-12)
	require.Equal(t, ClassifyZ(want), res.Risk)
}

// A quote failure keeps the record with a null score, unlike valuation
// which drops the company.
func TestAssessQuoteFailureKeepsRecord(t *testing.T) {
	a := &Assessor{Market: stubMarket{err: errors.New("timeout")}}
	res, err := a.Assess(context.Background(), types.TickerEntry{Company: "1", Ticker: "ACME3", Name: "Acme SA"}, history.NewFinancials("1", company(510)))
	require.NoError(t, err)
	require.NotNil(t, res)
	require.Nil(t, res.ZScore)
	require.Equal(t, RiskError, res.Risk)
	require.Equal(t, "Acme SA", res.Name)
	require.Equal(t, 150.0, res.NCG)
}

func TestAssessMissingLineItemKeepsRecord(t *testing.T) {
	rows := company(510)
	rows[types.Income] = yearly(types.EBIT, 80, 100)
	a := &Assessor{Market: stubMarket{quote: types.Quote{MarketCap: ptr(1)}}}
	res, err := a.Assess(context.Background(), types.TickerEntry{Ticker: "X"}, history.NewFinancials("1", rows))
	require.NoError(t, err)
	require.Nil(t, res.ZScore)
	require.Equal(t, RiskError, res.Risk)

	a.Market = stubMarket{quote: types.Quote{}}
	res, err = a.Assess(context.Background(), types.TickerEntry{Ticker: "X"}, history.NewFinancials("1", company(510)))
	require.NoError(t, err)
	require.Nil(t, res.ZScore)
}

func TestPradoInputsZeroLiabilities(t *testing.T) {
	rows := company(510)
	rows[types.Liabilities] = concat(
		yearly(types.Suppliers, 20, 30),
		yearly(types.Equity, 400, 510),
		yearly(types.NonCurrentLiabilities, 200, 200),
		yearly(types.TotalLiabilities, 0, 0),
	)
	fin := history.NewFinancials("1", rows)
	f, err := Classify(fin)
	require.NoError(t, err)
	in, err := PradoInputs(fin, f.CDG, ptr(5000))
	require.NoError(t, err)
	require.Equal(t, 0.0, in.X4)
}

func TestSummarize(t *testing.T) {
	z1, z2 := 1.0, 3.0
	agg := Summarize([]*types.FleurietResult{
		{NCG: 10, Scissor: true, ZScore: &z1, Risk: RiskHigh},
		{NCG: 20, ZScore: &z2, Risk: RiskHealthy},
		{NCG: 30, Risk: RiskError},
	})
	require.Equal(t, Aggregate{Companies: 3, MeanNCG: 20, Scissor: 1, HighRisk: 1, Scored: 2, MeanZ: 2}, agg)
	require.Equal(t, Aggregate{}, Summarize(nil))
}
