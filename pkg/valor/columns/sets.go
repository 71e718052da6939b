package columns

import (
	"strconv"

	"github.com/komsit37/valor/pkg/valor/types"
)

type vr = *types.ValuationResult

func money(get func(vr) float64) func(vr) string {
	return func(r vr) string { return FormatFloat(get(r), 2) }
}

func compact(get func(vr) float64) func(vr) string {
	return func(r vr) string { return FormatCompact(get(r)) }
}

func pct(get func(vr) float64) func(vr) string {
	return func(r vr) string { return FormatPct(get(r)) }
}

// Valuations is the column registry of valuation results.
//
// Sets:
//   - @value: price, fair price and margin of safety
//   - @risk: beta, cost of equity and debt, WACC
//   - @wealth: EVA and the market value added split
//   - @ops: NOPAT, FCO, invested capital and ROIC
var Valuations = NewRegistry(
	Column[vr]{Key: "ticker", Value: func(r vr) string { return r.Ticker }},
	Column[vr]{Key: "cvm", Header: "CVM", Value: func(r vr) string { return r.Company }},
	Column[vr]{Key: "name", Value: func(r vr) string { return r.Name }},
	Column[vr]{Key: "price", Numeric: true, Value: money(func(r vr) float64 { return r.Price })},
	Column[vr]{Key: "fair_price", Header: "FAIR", Numeric: true, Value: money(func(r vr) float64 { return r.FairPrice })},
	Column[vr]{Key: "mos", Header: "MOS", Numeric: true, Value: pct(func(r vr) float64 { return r.MarginOfSafety })},
	Column[vr]{Key: "market_cap", Header: "MCAP", Numeric: true, Value: compact(func(r vr) float64 { return r.MarketCap })},
	Column[vr]{Key: "shares", Numeric: true, Value: compact(func(r vr) float64 { return r.Shares })},
	Column[vr]{Key: "debt", Numeric: true, Value: compact(func(r vr) float64 { return r.TotalDebt })},
	Column[vr]{Key: "ic", Header: "IC", Numeric: true, Value: compact(func(r vr) float64 { return r.InvestedCap })},
	Column[vr]{Key: "nopat", Header: "NOPAT", Numeric: true, Value: compact(func(r vr) float64 { return r.NOPATAvg })},
	Column[vr]{Key: "fco", Header: "FCO", Numeric: true, Value: compact(func(r vr) float64 { return r.FCOAvg })},
	Column[vr]{Key: "tax", Numeric: true, Value: pct(func(r vr) float64 { return r.TaxRate })},
	Column[vr]{Key: "roic", Numeric: true, Value: pct(func(r vr) float64 { return r.ROIC })},
	Column[vr]{Key: "beta", Numeric: true, Value: func(r vr) string { return FormatFloat(r.Beta, 2) }},
	Column[vr]{Key: "ke", Numeric: true, Value: pct(func(r vr) float64 { return r.Ke })},
	Column[vr]{Key: "kd", Numeric: true, Value: pct(func(r vr) float64 { return r.Kd })},
	Column[vr]{Key: "wacc", Numeric: true, Value: pct(func(r vr) float64 { return r.WACC })},
	Column[vr]{Key: "spread", Numeric: true, Value: pct(func(r vr) float64 { return r.Spread })},
	Column[vr]{Key: "eva", Header: "EVA", Numeric: true, Value: compact(func(r vr) float64 { return r.EVA })},
	Column[vr]{Key: "current_wealth", Header: "CUR WEALTH", Numeric: true, Value: compact(func(r vr) float64 { return r.CurrentWealth })},
	Column[vr]{Key: "future_wealth", Header: "FUT WEALTH", Numeric: true, Value: compact(func(r vr) float64 { return r.FutureWealth })},
	Column[vr]{Key: "efv", Header: "EFV", Numeric: true, Value: compact(func(r vr) float64 { return r.EFV })},
	Column[vr]{Key: "residual", Numeric: true, Value: compact(func(r vr) float64 { return r.ResidualValue })},
	Column[vr]{Key: "equity_value", Header: "EQUITY", Numeric: true, Value: compact(func(r vr) float64 { return r.EquityValue })},
).
	Alias("sym", "ticker").
	Alias("fair", "fair_price").
	Alias("margin", "mos").
	Alias("mcap", "market_cap").
	Set("value", "price", "fair_price", "mos").
	Set("risk", "beta", "ke", "kd", "wacc").
	Set("wealth", "eva", "current_wealth", "future_wealth", "efv").
	Set("ops", "nopat", "fco", "ic", "roic", "spread")

type fr = *types.FleurietResult

// Health is the column registry of Fleuriet and Z-score results.
var Health = NewRegistry(
	Column[fr]{Key: "ticker", Value: func(r fr) string { return r.Ticker }},
	Column[fr]{Key: "cvm", Header: "CVM", Value: func(r fr) string { return r.Company }},
	Column[fr]{Key: "name", Value: func(r fr) string { return r.Name }},
	Column[fr]{Key: "year", Numeric: true, Value: func(r fr) string { return strconv.Itoa(r.Year) }},
	Column[fr]{Key: "ncg", Header: "NCG", Numeric: true, Value: func(r fr) string { return FormatCompact(r.NCG) }},
	Column[fr]{Key: "cdg", Header: "CDG", Numeric: true, Value: func(r fr) string { return FormatCompact(r.CDG) }},
	Column[fr]{Key: "treasury", Numeric: true, Value: func(r fr) string { return FormatCompact(r.Treasury) }},
	Column[fr]{Key: "scissor", Value: func(r fr) string { return FormatBool(r.Scissor) }},
	Column[fr]{Key: "z", Header: "Z", Numeric: true, Value: func(r fr) string {
		if r.ZScore == nil {
			return ""
		}
		return FormatFloat(*r.ZScore, 2)
	}},
	Column[fr]{Key: "risk", Value: func(r fr) string { return r.Risk }},
).
	Alias("sym", "ticker").
	Alias("zscore", "z").
	Set("fleuriet", "ncg", "cdg", "treasury", "scissor").
	Set("prado", "z", "risk")

func init() {
	Valuations.Default = []string{"ticker", "name", "price", "@value", "roic", "wacc", "eva", "efv"}
	Health.Default = []string{"ticker", "name", "year", "@fleuriet", "@prado"}
}
