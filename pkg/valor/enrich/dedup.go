package enrich

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/komsit37/valor/pkg/valor/types"
)

// Dedup collapses concurrent fetches of the same symbol into one call.
type Dedup struct {
	market MarketData
	hist   PriceHistory
	group  singleflight.Group
}

func NewDedup(market MarketData, hist PriceHistory) *Dedup {
	return &Dedup{market: market, hist: hist}
}

func (d *Dedup) do(ctx context.Context, key string, fn func() (any, error)) (any, error) {
	ch := d.group.DoChan(key, fn)
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val, res.Err
	}
}

func (d *Dedup) Quote(ctx context.Context, sym string) (types.Quote, error) {
	v, err := d.do(ctx, "q|"+sym, func() (any, error) {
		return d.market.Quote(context.WithoutCancel(ctx), sym)
	})
	if err != nil {
		return types.Quote{}, err
	}
	return v.(types.Quote), nil
}

func (d *Dedup) Daily(ctx context.Context, sym string, years int) ([]types.PricePoint, error) {
	if d.hist == nil {
		return nil, fmt.Errorf("enrich: dedup has no price history source")
	}
	v, err := d.do(ctx, fmt.Sprintf("h|%s|%d", sym, years), func() (any, error) {
		return d.hist.Daily(context.WithoutCancel(ctx), sym, years)
	})
	if err != nil {
		return nil, err
	}
	pts, _ := v.([]types.PricePoint)
	return pts, nil
}
