package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/komsit37/valor/pkg/valor/enrich"
	"github.com/komsit37/valor/pkg/valor/health"
	"github.com/komsit37/valor/pkg/valor/history"
	"github.com/komsit37/valor/pkg/valor/pipeline"
	"github.com/komsit37/valor/pkg/valor/rates"
	"github.com/komsit37/valor/pkg/valor/risk"
	"github.com/komsit37/valor/pkg/valor/source"
	"github.com/komsit37/valor/pkg/valor/types"
	"github.com/komsit37/valor/pkg/valor/valuation"
)

// market is the quote and price-history stack: Yahoo behind an optional
// Redis quote cache, an in-process TTL cache and request de-duplication.
type market struct {
	*enrich.Dedup
	close func()
}

func (a *app) market(ctx context.Context) (*market, error) {
	mc := a.cfg.Market
	var quotes enrich.MarketData = enrich.NewYFService(mc.Timeout)
	closeFn := func() {}
	if mc.RedisAddr != "" {
		client, err := enrich.DialRedis(ctx, mc.RedisAddr)
		if err != nil {
			a.log.Warn("redis unavailable, quotes are cached in process only", "addr", mc.RedisAddr, "err", err)
		} else {
			rc := enrich.NewRedisCache(client, quotes, mc.CacheTTL)
			rc.Logger = a.log
			quotes = rc
			closeFn = func() { _ = client.Close() }
		}
	}
	cache := enrich.NewCacheService(quotes, mc.CacheTTL, mc.CacheSize).WithHistory(enrich.NewChartHistory(mc.Timeout))
	return &market{Dedup: enrich.NewDedup(cache, cache), close: closeFn}, nil
}

func (a *app) filings(ctx context.Context) (source.FilingSource, func(), error) {
	if dsn := a.cfg.Data.DSN; dsn != "" {
		pool, err := source.OpenPool(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		return source.PostgresFilings{Pool: pool}, pool.Close, nil
	}
	return source.CVMDir{Dir: a.cfg.Data.Dir, Logger: a.log}, func() {}, nil
}

func (a *app) loadTables(ctx context.Context) (*history.Tables, error) {
	src, closeFn, err := a.filings(ctx)
	if err != nil {
		return nil, err
	}
	defer closeFn()
	tables, err := src.Load(ctx, a.cfg.Valuation.HistoryYears)
	if err != nil {
		return nil, err
	}
	a.log.Debug("filings loaded", "companies", len(tables.Companies()))
	return tables, nil
}

func (a *app) tickers(ctx context.Context) ([]types.TickerEntry, error) {
	entries, err := source.YAMLTickers{Path: a.cfg.Data.Tickers}.Load(ctx)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no tickers in %s", a.cfg.Data.Tickers)
	}
	return entries, nil
}

func findTicker(entries []types.TickerEntry, ticker, suffix string) (types.TickerEntry, bool) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if suffix != "" {
		ticker = strings.TrimSuffix(ticker, strings.ToUpper(suffix))
	}
	for _, e := range entries {
		if e.Ticker == ticker {
			return e, true
		}
	}
	return types.TickerEntry{}, false
}

func (a *app) snapshot(ctx context.Context, m *market) (types.MarketSnapshot, error) {
	return pipeline.LoadSnapshot(ctx, pipeline.SnapshotSource{
		Rates:       rates.WithFallback(rates.NewBCB(a.cfg.Market.Timeout), a.cfg.Rates.Fallback, a.log),
		RatesSeries: a.cfg.Rates.Series,
		History:     m,
		Index:       a.cfg.Market.Index,
		IndexYears:  a.cfg.Valuation.BetaLookback,
		Logger:      a.log,
	})
}

func (a *app) engine(m *market) (*valuation.Engine, error) {
	lev, err := risk.ParseLeverage(a.cfg.Valuation.Leverage, a.cfg.Valuation.PeerDE)
	if err != nil {
		return nil, err
	}
	return &valuation.Engine{
		Market:   m,
		History:  m,
		Leverage: lev,
		Suffix:   a.cfg.Market.Suffix,
		Logger:   a.log,
	}, nil
}

func (a *app) assessor(m *market) *health.Assessor {
	return &health.Assessor{Market: m, Suffix: a.cfg.Market.Suffix, Logger: a.log}
}

func (a *app) batchOptions() pipeline.Options {
	return pipeline.Options{Workers: a.cfg.Batch.Workers, ItemTimeout: a.cfg.Batch.ItemTimeout}
}
