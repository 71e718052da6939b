// Package pipeline runs the valuation and health models over a ticker map.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/komsit37/valor/pkg/valor/enrich"
	"github.com/komsit37/valor/pkg/valor/filter"
	"github.com/komsit37/valor/pkg/valor/health"
	"github.com/komsit37/valor/pkg/valor/history"
	"github.com/komsit37/valor/pkg/valor/rates"
	"github.com/komsit37/valor/pkg/valor/risk"
	"github.com/komsit37/valor/pkg/valor/types"
	"github.com/komsit37/valor/pkg/valor/valuation"
)

type Runner struct {
	Engine   *valuation.Engine
	Assessor *health.Assessor
	Logger   *slog.Logger
}

type Options struct {
	// Workers bounds concurrent companies; values below 1 run sequentially.
	Workers     int
	ItemTimeout time.Duration
	// Filter selects tickers; nil keeps all.
	Filter filter.Filter
}

// Report collects the outcome of a batch. Results keep the ticker map order.
type Report[T any] struct {
	Results  []T
	Failures []*valuation.Failure
	Total    int
}

func (r *Report[T]) Summary() string {
	return fmt.Sprintf("%d of %d companies succeeded", len(r.Results), r.Total)
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// Valuate runs the valuation engine for every selected entry.
func (r *Runner) Valuate(ctx context.Context, tables *history.Tables, entries []types.TickerEntry, snap types.MarketSnapshot, p types.Params, opts Options) (*Report[*types.ValuationResult], error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return run(ctx, r.logger(), tables, entries, opts, func(ctx context.Context, e types.TickerEntry, fin *history.Financials) (*types.ValuationResult, error) {
		return r.Engine.Evaluate(ctx, e, fin, snap, p)
	})
}

// Assess runs the Fleuriet and Z-score screen for every selected entry.
func (r *Runner) Assess(ctx context.Context, tables *history.Tables, entries []types.TickerEntry, opts Options) (*Report[*types.FleurietResult], error) {
	return run(ctx, r.logger(), tables, entries, opts, func(ctx context.Context, e types.TickerEntry, fin *history.Financials) (*types.FleurietResult, error) {
		res, err := r.Assessor.Assess(ctx, e, fin)
		if err != nil {
			if errors.Is(err, health.ErrIncompleteFilings) || errors.Is(err, health.ErrEmptySeries) {
				return nil, &valuation.Failure{Ticker: e.Ticker, Reason: valuation.ReasonIncompleteFilings, Err: err}
			}
			return nil, err
		}
		return res, nil
	})
}

type outcome[T any] struct {
	res  T
	fail *valuation.Failure
	done bool
}

func run[T any](ctx context.Context, log *slog.Logger, tables *history.Tables, entries []types.TickerEntry, opts Options, fn func(context.Context, types.TickerEntry, *history.Financials) (T, error)) (*Report[T], error) {
	selected := make([]types.TickerEntry, 0, len(entries))
	for _, e := range entries {
		if opts.Filter == nil || opts.Filter.Match(e.Ticker) {
			selected = append(selected, e)
		}
	}
	if tables == nil {
		tables = history.NewTables()
	}

	out := make([]outcome[T], len(selected))
	g, gctx := errgroup.WithContext(ctx)
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)

	for i, e := range selected {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			res, err := runOne(gctx, e, opts.ItemTimeout, func(ctx context.Context) (T, error) {
				return fn(ctx, e, tables.ForCompany(e.Company))
			})
			if err != nil {
				f, ok := valuation.AsFailure(err)
				if !ok {
					f = &valuation.Failure{Ticker: e.Ticker, Reason: valuation.ReasonUnexpected, Err: err}
				}
				log.Info("company skipped", "ticker", e.Ticker, "reason", string(f.Reason), "err", f.Err)
				out[i] = outcome[T]{fail: f}
				return nil
			}
			out[i] = outcome[T]{res: res, done: true}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rep := &Report[T]{Total: len(selected)}
	for _, o := range out {
		switch {
		case o.done:
			rep.Results = append(rep.Results, o.res)
		case o.fail != nil:
			rep.Failures = append(rep.Failures, o.fail)
		}
	}
	log.Info("batch finished", "summary", rep.Summary(), "failures", len(rep.Failures))
	return rep, nil
}

// runOne isolates one company: it applies the item timeout and turns a panic
// into an unexpected-error failure.
func runOne[T any](ctx context.Context, e types.TickerEntry, timeout time.Duration, fn func(context.Context) (T, error)) (res T, err error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	defer func() {
		if p := recover(); p != nil {
			err = &valuation.Failure{
				Ticker: e.Ticker,
				Reason: valuation.ReasonUnexpected,
				Err:    fmt.Errorf("panic: %v\n%s", p, debug.Stack()),
			}
		}
	}()
	return fn(ctx)
}

// SnapshotSource gathers what LoadSnapshot needs.
type SnapshotSource struct {
	Rates       rates.Provider
	RatesSeries int
	History     enrich.PriceHistory
	Index       string
	IndexYears  int
	Logger      *slog.Logger
}

// LoadSnapshot reads the risk-free rate and the market index once per run.
// A missing index history leaves the default market return in place.
func LoadSnapshot(ctx context.Context, s SnapshotSource) (types.MarketSnapshot, error) {
	log := s.Logger
	if log == nil {
		log = slog.Default()
	}
	rf, err := s.Rates.Latest(ctx, s.RatesSeries)
	if err != nil {
		return types.MarketSnapshot{}, fmt.Errorf("pipeline: risk-free rate: %w", err)
	}
	var index []types.PricePoint
	if s.History != nil && s.Index != "" {
		index, err = s.History.Daily(ctx, s.Index, s.IndexYears)
		if err != nil {
			log.Warn("index history unavailable", "index", s.Index, "err", err)
			index = nil
		}
	}
	snap := risk.NewSnapshot(rf, index)
	log.Debug("market snapshot", "rf", snap.RiskFree, "rm", snap.MarketReturn, "erp", snap.EquityPremium, "index_points", len(index))
	return snap, nil
}
