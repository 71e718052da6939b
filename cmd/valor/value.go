package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/komsit37/valor/pkg/valor/columns"
	"github.com/komsit37/valor/pkg/valor/filter"
	"github.com/komsit37/valor/pkg/valor/health"
	"github.com/komsit37/valor/pkg/valor/pipeline"
	"github.com/komsit37/valor/pkg/valor/render"
	"github.com/komsit37/valor/pkg/valor/types"
	"github.com/komsit37/valor/pkg/valor/valuation"
)

func tickerOfValuation(r *types.ValuationResult) string { return r.Ticker }
func tickerOfHealth(r *types.FleurietResult) string     { return r.Ticker }

func newValueCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "value <TICKER>",
		Short: "Value one company",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("requires exactly 1 ticker argument")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(a.format); err != nil {
				return err
			}
			ctx := ctxOf(cmd)
			entries, err := a.tickers(ctx)
			if err != nil {
				return err
			}
			entry, ok := findTicker(entries, args[0], a.cfg.Market.Suffix)
			if !ok {
				return fmt.Errorf("ticker %s is not in the ticker map", args[0])
			}
			tables, err := a.loadTables(ctx)
			if err != nil {
				return err
			}
			m, err := a.market(ctx)
			if err != nil {
				return err
			}
			defer m.close()
			snap, err := a.snapshot(ctx, m)
			if err != nil {
				return err
			}
			eng, err := a.engine(m)
			if err != nil {
				return err
			}
			p := a.cfg.Valuation.Params()
			if err := p.Validate(); err != nil {
				return err
			}
			res, err := eng.Evaluate(ctx, entry, tables.ForCompany(entry.Company), snap, p)
			if err != nil {
				if f, ok := valuation.AsFailure(err); ok {
					return fmt.Errorf("%s skipped: %s", f.Ticker, f.Reason)
				}
				return err
			}
			r := render.Format(a.format, columns.Valuations, tickerOfValuation)
			return r.Render(a.out, []*types.ValuationResult{res}, a.renderOptions())
		},
	}
}

func newRankCmd(a *app) *cobra.Command {
	var (
		by           string
		top          int
		filterExpr   string
		showFailures bool
	)
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Value every company of the ticker map and rank the results",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(a.format); err != nil {
				return err
			}
			key, err := valuation.ParseRankKey(by)
			if err != nil {
				return err
			}
			filt, err := filter.Parse(filterExpr)
			if err != nil {
				return err
			}
			ctx := ctxOf(cmd)
			entries, err := a.tickers(ctx)
			if err != nil {
				return err
			}
			tables, err := a.loadTables(ctx)
			if err != nil {
				return err
			}
			m, err := a.market(ctx)
			if err != nil {
				return err
			}
			defer m.close()
			snap, err := a.snapshot(ctx, m)
			if err != nil {
				return err
			}
			eng, err := a.engine(m)
			if err != nil {
				return err
			}

			runner := &pipeline.Runner{Engine: eng, Logger: a.log}
			opts := a.batchOptions()
			opts.Filter = filt
			rep, err := runner.Valuate(ctx, tables, entries, snap, a.cfg.Valuation.Params(), opts)
			if err != nil {
				return err
			}
			ranked := valuation.Rank(rep.Results, key, top)
			r := render.Format(a.format, columns.Valuations, tickerOfValuation)
			if err := r.Render(a.out, ranked, a.renderOptions()); err != nil {
				return err
			}
			if showFailures {
				render.Failures(a.summaryOut(), rep.Failures, detectTerminalWidth())
			}
			render.Summary(a.summaryOut(), rep.Summary())
			return nil
		},
	}
	cmd.Flags().StringVar(&by, "by", "mos", "rank by mos, roic, eva or efv")
	cmd.Flags().IntVar(&top, "top", 20, "number of results; 0 shows all")
	cmd.Flags().StringVarP(&filterExpr, "filter", "f", "", "ticker filter: list, glob, /regex/ or prefix")
	cmd.Flags().BoolVar(&showFailures, "failures", false, "list skipped companies with their reason")
	return cmd
}

func newHealthCmd(a *app) *cobra.Command {
	var filterExpr string
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Screen companies with the Fleuriet model and the Prado Z-score",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(a.format); err != nil {
				return err
			}
			filt, err := filter.Parse(filterExpr)
			if err != nil {
				return err
			}
			ctx := ctxOf(cmd)
			entries, err := a.tickers(ctx)
			if err != nil {
				return err
			}
			tables, err := a.loadTables(ctx)
			if err != nil {
				return err
			}
			m, err := a.market(ctx)
			if err != nil {
				return err
			}
			defer m.close()

			runner := &pipeline.Runner{Assessor: a.assessor(m), Logger: a.log}
			opts := a.batchOptions()
			opts.Filter = filt
			rep, err := runner.Assess(ctx, tables, entries, opts)
			if err != nil {
				return err
			}
			r := render.Format(a.format, columns.Health, tickerOfHealth)
			if err := r.Render(a.out, rep.Results, a.renderOptions()); err != nil {
				return err
			}
			agg := health.Summarize(rep.Results)
			w := a.summaryOut()
			fmt.Fprintf(w, "mean NCG %s · scissor effect %d · high risk %d of %d scored · mean Z %s\n",
				columns.FormatCompact(agg.MeanNCG), agg.Scissor, agg.HighRisk, agg.Scored, columns.FormatFloat(agg.MeanZ, 2))
			render.Summary(w, rep.Summary())
			return nil
		},
	}
	cmd.Flags().StringVarP(&filterExpr, "filter", "f", "", "ticker filter: list, glob, /regex/ or prefix")
	return cmd
}

func newColumnsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "columns",
		Short: "List the available columns and column sets",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(a.out, "value/rank columns:", columns.Valuations.Keys())
			fmt.Fprintln(a.out, "value/rank sets:", columns.Valuations.SetNames())
			fmt.Fprintln(a.out, "health columns:", columns.Health.Keys())
			fmt.Fprintln(a.out, "health sets:", columns.Health.SetNames())
			return nil
		},
	}
}
