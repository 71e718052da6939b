// Package health screens companies with the Fleuriet working-capital model
// and the Prado insolvency Z-score.
package health

import (
	"context"
	"log/slog"

	"github.com/komsit37/valor/pkg/valor/enrich"
	"github.com/komsit37/valor/pkg/valor/history"
	"github.com/komsit37/valor/pkg/valor/types"
)

// Assessor builds FleurietResult records.
type Assessor struct {
	Market enrich.MarketData
	Suffix string
	Logger *slog.Logger
}

func (a *Assessor) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}

// Assess excludes the company when the Fleuriet series cannot be built. A
// Z-score failure does not exclude it: the record is returned with a nil
// score and RiskError.
func (a *Assessor) Assess(ctx context.Context, entry types.TickerEntry, fin *history.Financials) (*types.FleurietResult, error) {
	f, err := Classify(fin)
	if err != nil {
		return nil, err
	}
	sym := enrich.Symbol(entry.Ticker, a.Suffix)
	res := &types.FleurietResult{
		Ticker:   entry.Ticker,
		Company:  entry.Company,
		Name:     entry.Name,
		Year:     f.Year(),
		NCG:      f.latest(f.NCG),
		CDG:      f.latest(f.CDG),
		Treasury: f.latest(f.Treasury),
		Scissor:  f.Scissor,
		Risk:     RiskError,
	}
	if res.Name == "" {
		res.Name = sym
	}

	var mcap *float64
	if a.Market != nil {
		q, qerr := a.Market.Quote(ctx, sym)
		if qerr != nil {
			a.logger().Info("z-score skipped", "ticker", entry.Ticker, "err", qerr)
			return res, nil
		}
		if q.Name != "" {
			res.Name = q.Name
		}
		mcap = q.MarketCap
	}
	in, err := PradoInputs(fin, f.CDG, mcap)
	if err != nil {
		a.logger().Info("z-score skipped", "ticker", entry.Ticker, "err", err)
		return res, nil
	}
	z := ZScore(in)
	res.ZScore = &z
	res.Risk = ClassifyZ(z)
	return res, nil
}
