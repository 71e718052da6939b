package source

import (
	"context"
	"strings"

	"github.com/komsit37/valor/pkg/valor/history"
	"github.com/komsit37/valor/pkg/valor/types"
)

// FilingSource loads the DFP statement tables for the last years.
type FilingSource interface {
	Load(ctx context.Context, years int) (*history.Tables, error)
}

// TickerSource loads the company-code to ticker map.
type TickerSource interface {
	Load(ctx context.Context) ([]types.TickerEntry, error)
}

// NormalizeCompany strips the zero padding CVM uses in CD_CVM.
func NormalizeCompany(code string) string {
	c := strings.TrimLeft(strings.TrimSpace(code), "0")
	if c == "" && strings.TrimSpace(code) != "" {
		return "0"
	}
	return c
}

// Dedup keeps the first entry of every ticker and drops entries without a
// ticker or company code.
func Dedup(entries []types.TickerEntry) []types.TickerEntry {
	seen := make(map[string]struct{}, len(entries))
	out := make([]types.TickerEntry, 0, len(entries))
	for _, e := range entries {
		e.Ticker = strings.ToUpper(strings.TrimSpace(e.Ticker))
		e.Company = NormalizeCompany(e.Company)
		e.Name = strings.TrimSpace(e.Name)
		if e.Ticker == "" || e.Company == "" {
			continue
		}
		if _, ok := seen[e.Ticker]; ok {
			continue
		}
		seen[e.Ticker] = struct{}{}
		out = append(out, e)
	}
	return out
}

func accountSet() map[types.AccountCode]struct{} {
	m := make(map[types.AccountCode]struct{}, len(types.Accounts))
	for _, c := range types.Accounts {
		m[c] = struct{}{}
	}
	return m
}
