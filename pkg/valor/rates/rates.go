// Package rates reads the risk-free rate from the central bank SGS API.
package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	// SelicSeries is the SGS code of the annualized Selic rate.
	SelicSeries = 1178
	// DefaultRiskFree is used when the series cannot be read.
	DefaultRiskFree = 0.105

	defaultBaseURL = "https://api.bcb.gov.br/dados/serie/"
)

var ErrNoData = errors.New("rates: series has no data")

// Provider returns the latest value of a series as a decimal annual rate.
type Provider interface {
	Latest(ctx context.Context, series int) (float64, error)
}

// BCB queries bcdata.sgs.<series>/dados/ultimos/1.
type BCB struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewBCB(timeout time.Duration) *BCB {
	return &BCB{BaseURL: defaultBaseURL, HTTPClient: &http.Client{Timeout: timeout}}
}

type sgsPoint struct {
	Date  string `json:"data"`
	Value string `json:"valor"`
}

func (b *BCB) Latest(ctx context.Context, series int) (float64, error) {
	base := b.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	u := fmt.Sprintf("%sbcdata.sgs.%d/dados/ultimos/1?formato=json", base, series)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, fmt.Errorf("rates: series %d: %w", series, err)
	}
	req.Header.Set("Accept", "application/json")

	hc := b.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return 0, fmt.Errorf("rates: series %d: %w", series, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("rates: series %d: status %d", series, resp.StatusCode)
	}

	var pts []sgsPoint
	if err := json.NewDecoder(resp.Body).Decode(&pts); err != nil {
		return 0, fmt.Errorf("rates: series %d: decode: %w", series, err)
	}
	if len(pts) == 0 {
		return 0, ErrNoData
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(pts[len(pts)-1].Value, ",", "."), 64)
	if err != nil {
		return 0, fmt.Errorf("rates: series %d: value %q: %w", series, pts[len(pts)-1].Value, err)
	}
	return v / 100, nil
}

type fallback struct {
	next   Provider
	def    float64
	logger *slog.Logger
}

// WithFallback returns def whenever next fails.
func WithFallback(next Provider, def float64, logger *slog.Logger) Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &fallback{next: next, def: def, logger: logger}
}

func (f *fallback) Latest(ctx context.Context, series int) (float64, error) {
	v, err := f.next.Latest(ctx, series)
	if err != nil {
		f.logger.Warn("risk-free rate unavailable, using fallback", "series", series, "fallback", f.def, "err", err)
		return f.def, nil
	}
	return v, nil
}
