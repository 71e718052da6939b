package valuation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/komsit37/valor/pkg/valor/types"
)

// RankKey selects the figure a ranking sorts by.
type RankKey string

const (
	ByMarginOfSafety RankKey = "mos"
	ByROIC           RankKey = "roic"
	ByEVA            RankKey = "eva"
	ByEFV            RankKey = "efv"
)

func ParseRankKey(s string) (RankKey, error) {
	switch k := RankKey(strings.ToLower(strings.TrimSpace(s))); k {
	case ByMarginOfSafety, ByROIC, ByEVA, ByEFV:
		return k, nil
	case "":
		return ByMarginOfSafety, nil
	}
	return "", fmt.Errorf("valuation: unknown rank key %q (want mos, roic, eva or efv)", s)
}

func (k RankKey) value(r *types.ValuationResult) float64 {
	switch k {
	case ByROIC:
		return r.ROIC
	case ByEVA:
		return r.EVA
	case ByEFV:
		return r.EFV
	default:
		return r.MarginOfSafety
	}
}

// Rank returns a copy sorted descending by key, cut to the first top
// entries (top ≤ 0 keeps all). Ties keep input order.
func Rank(results []*types.ValuationResult, key RankKey, top int) []*types.ValuationResult {
	out := append([]*types.ValuationResult(nil), results...)
	sort.SliceStable(out, func(i, j int) bool { return key.value(out[i]) > key.value(out[j]) })
	if top > 0 && len(out) > top {
		out = out[:top]
	}
	return out
}
