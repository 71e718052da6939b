// Package valuation runs the per-company DCF and EVA/EFV model.
package valuation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/komsit37/valor/pkg/valor/enrich"
	"github.com/komsit37/valor/pkg/valor/history"
	"github.com/komsit37/valor/pkg/valor/metrics"
	"github.com/komsit37/valor/pkg/valor/risk"
	"github.com/komsit37/valor/pkg/valor/types"
)

// Engine evaluates one company at a time. It holds no per-company state, so
// a single Engine can serve concurrent callers.
type Engine struct {
	Market   enrich.MarketData
	History  enrich.PriceHistory
	Leverage risk.LeverageAdjuster
	Suffix   string
	Logger   *slog.Logger
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

func (e *Engine) leverage() risk.LeverageAdjuster {
	if e.Leverage != nil {
		return e.Leverage
	}
	return risk.SelfRelever{}
}

// Evaluate values one company, stopping at the first failed step. The
// returned error is always a *Failure.
func (e *Engine) Evaluate(ctx context.Context, entry types.TickerEntry, fin *history.Financials, snap types.MarketSnapshot, p types.Params) (*types.ValuationResult, error) {
	ticker := entry.Ticker
	sym := enrich.Symbol(ticker, e.Suffix)
	log := e.logger().With("ticker", ticker)

	if fin == nil || !fin.HasRows(types.Statements...) {
		return nil, fail(ticker, ReasonIncompleteFilings, nil)
	}

	q, err := e.Market.Quote(ctx, sym)
	if err != nil {
		return nil, fail(ticker, ReasonMarketFetch, err)
	}
	pp, mp, sp := q.CurrentPrice(), q.MarketCap, q.Shares
	if pp == nil || mp == nil || sp == nil || *pp == 0 || *mp == 0 || *sp == 0 {
		return nil, fail(ticker, ReasonIncompleteMarket, nil)
	}
	price, mcap, shares := *pp, *mp, *sp
	name := q.Name
	if name == "" {
		name = entry.Name
	}
	if name == "" {
		name = sym
	}

	ebit := fin.History(types.EBIT)
	taxRate, err := metrics.EffectiveTaxRate(fin.History(types.IncomeTax), fin.History(types.PreTaxIncome), ebit)
	if err != nil {
		return nil, fail(ticker, ReasonInsufficientProfit, err)
	}
	if metrics.TaxRateSuspicious(taxRate) {
		log.Warn("effective tax rate above 100%", "rate", taxRate)
	}
	nopat := metrics.NOPAT(ebit, taxRate)
	fco := metrics.FCO(nopat, fin.History(types.DepreciationAmortization))

	bs, err := metrics.ExtractBalanceSheet(fin)
	if err != nil {
		return nil, fail(ticker, ReasonMissingBalance, err)
	}

	ic, err := metrics.InvestedCapital(bs.WorkingCapitalNeed(), bs.FixedAssets, bs.Intangibles)
	if err != nil {
		return nil, fail(ticker, ReasonInvestedCapital, err)
	}

	nopatAvg, errN := metrics.AverageLast(nopat, p.AveragingYears)
	fcoAvg, errF := metrics.AverageLast(fco, p.AveragingYears)
	if err := errors.Join(errN, errF); err != nil {
		return nil, fail(ticker, ReasonAverage, err)
	}

	roic := nopatAvg / ic
	debt := bs.TotalDebt()

	beta := risk.Beta(e.stockHistory(ctx, log, sym, p.BetaLookbackYears), snap.Index)
	beta = e.leverage().Adjust(beta, taxRate, debt, mcap)
	ke := risk.CostOfEquity(snap.RiskFree, beta, snap.EquityPremium)
	kd := risk.AfterTaxCostOfDebt(bs.InterestExpense, debt, taxRate)
	wacc := risk.WACC(mcap, debt, ke, kd)

	eva := (roic - wacc) * ic
	current := 0.0
	if wacc > 0 {
		current = eva / wacc
	}
	future := (mcap + debt) - ic
	efv := future - current

	g := p.GrowthRate
	if math.IsNaN(wacc) || wacc <= g {
		return nil, fail(ticker, ReasonWACC, fmt.Errorf("wacc %.4f, growth %.4f", wacc, g))
	}

	residual := fcoAvg * (1 + g) / (wacc - g)
	equity := residual - debt
	fair := 0.0
	if shares > 0 {
		fair = equity / shares
	}
	mos := 0.0
	if price > 0 {
		mos = fair/price - 1
	}

	return &types.ValuationResult{
		Ticker:         ticker,
		Company:        entry.Company,
		Name:           name,
		Price:          price,
		FairPrice:      fair,
		MarginOfSafety: mos,
		MarketCap:      mcap,
		Shares:         shares,
		TotalDebt:      debt,
		InvestedCap:    ic,
		NOPATAvg:       nopatAvg,
		FCOAvg:         fcoAvg,
		TaxRate:        taxRate,
		ROIC:           roic,
		Beta:           beta,
		Ke:             ke,
		Kd:             kd,
		WACC:           wacc,
		Spread:         roic - wacc,
		EVA:            eva,
		CurrentWealth:  current,
		FutureWealth:   future,
		EFV:            efv,
		ResidualValue:  residual,
		EquityValue:    equity,
		NOPATSeries:    nopat.Points(),
		FCOSeries:      fco.Points(),
		ROICSeries:     nopat.Div(ic).Points(),
		WACCSeries:     nopat.Fill(wacc).Points(),
	}, nil
}

// stockHistory treats a failed download like an empty one, which makes the
// beta neutral.
func (e *Engine) stockHistory(ctx context.Context, log *slog.Logger, sym string, years int) []types.PricePoint {
	if e.History == nil {
		return nil
	}
	pts, err := e.History.Daily(ctx, sym, years)
	if err != nil {
		log.Warn("price history unavailable, using neutral beta", "err", err)
		return nil
	}
	return pts
}
