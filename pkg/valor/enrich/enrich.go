package enrich

import (
	"context"
	"fmt"
	"strings"
	"time"

	yfgo "github.com/komsit37/yf-go"

	"github.com/komsit37/valor/pkg/valor/types"
)

// MarketData fetches the market identity of a symbol.
type MarketData interface {
	Quote(ctx context.Context, sym string) (types.Quote, error)
}

// PriceHistory fetches daily adjusted closes over the last years.
type PriceHistory interface {
	Daily(ctx context.Context, sym string, years int) ([]types.PricePoint, error)
}

// Symbol appends the exchange suffix unless the ticker already carries one
// or is an index (^BVSP).
func Symbol(ticker, suffix string) string {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	if t == "" || suffix == "" || strings.Contains(t, ".") || strings.HasPrefix(t, "^") {
		return t
	}
	return t + suffix
}

// YFService implements MarketData using yf-go.
type YFService struct {
	client  *yfgo.Client
	timeout time.Duration
}

func NewYFService(timeout time.Duration) *YFService {
	return &YFService{client: yfgo.NewClient(), timeout: timeout}
}

func (s *YFService) Quote(ctx context.Context, sym string) (types.Quote, error) {
	if sym == "" {
		return types.Quote{}, fmt.Errorf("enrich: empty symbol")
	}
	mods := []yfgo.QuoteSummaryModule{yfgo.ModulePrice, yfgo.ModuleDefaultKeyStatistics}

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	res, err := s.client.QuoteSummaryTyped(cctx, sym, mods)
	if err != nil {
		return types.Quote{}, fmt.Errorf("enrich: quote %s: %w", sym, err)
	}
	if res.Price == nil {
		return types.Quote{}, fmt.Errorf("enrich: quote %s: no price module", sym)
	}

	name := res.Price.LongName
	if name == "" {
		name = res.Price.ShortName
	}
	var shares *float64
	if res.DefaultKeyStatistics != nil {
		shares = res.DefaultKeyStatistics.SharesOutstanding.Raw
	}
	return newQuote(name,
		res.Price.RegularMarketPrice.Raw,
		res.Price.RegularMarketPreviousClose.Raw,
		res.Price.MarketCap.Raw,
		shares,
	), nil
}

// newQuote keeps only positive provider values. Shares come from the key
// statistics module as reported; a missing count stays nil.
func newQuote(name string, price, prevClose, marketCap, shares *float64) types.Quote {
	return types.Quote{
		Name:      name,
		Price:     positive(price),
		PrevClose: positive(prevClose),
		MarketCap: positive(marketCap),
		Shares:    positive(shares),
	}
}

func positive(v *float64) *float64 {
	if v == nil || *v <= 0 {
		return nil
	}
	out := *v
	return &out
}
