package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/komsit37/valor/pkg/valor/types"
)

const defaultChartURL = "https://query1.finance.yahoo.com/v8/finance/chart/"

// ChartHistory reads daily adjusted closes from the Yahoo chart endpoint.
type ChartHistory struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewChartHistory(timeout time.Duration) *ChartHistory {
	return &ChartHistory{BaseURL: defaultChartURL, HTTPClient: &http.Client{Timeout: timeout}}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (c *ChartHistory) Daily(ctx context.Context, sym string, years int) ([]types.PricePoint, error) {
	base := c.BaseURL
	if base == "" {
		base = defaultChartURL
	}
	q := url.Values{}
	q.Set("range", fmt.Sprintf("%dy", years))
	q.Set("interval", "1d")
	q.Set("events", "div,split")
	u := base + url.PathEscape(sym) + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("enrich: history %s: %w", sym, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0")

	hc := c.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("enrich: history %s: %w", sym, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("enrich: history %s: status %d", sym, resp.StatusCode)
	}

	var body chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("enrich: history %s: decode: %w", sym, err)
	}
	if e := body.Chart.Error; e != nil {
		return nil, fmt.Errorf("enrich: history %s: %s: %s", sym, e.Code, e.Description)
	}
	if len(body.Chart.Result) == 0 {
		return nil, nil
	}
	r := body.Chart.Result[0]
	var closes []*float64
	if len(r.Indicators.AdjClose) > 0 {
		closes = r.Indicators.AdjClose[0].AdjClose
	} else if len(r.Indicators.Quote) > 0 {
		closes = r.Indicators.Quote[0].Close
	}

	out := make([]types.PricePoint, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		out = append(out, types.PricePoint{Date: time.Unix(ts, 0).UTC(), Close: *closes[i]})
	}
	return out, nil
}
