package risk

import (
	"math"
	"sort"
	"time"

	"github.com/komsit37/valor/pkg/valor/types"
)

// NeutralBeta is returned whenever the regression cannot be estimated.
const NeutralBeta = 1.0

// Beta regresses monthly stock returns on monthly index returns.
// The two daily series are inner-joined by date and resampled to month ends
// before taking returns. An empty stock series, fewer than two monthly
// returns or a flat index all give NeutralBeta.
func Beta(stock, index []types.PricePoint) float64 {
	if len(stock) == 0 {
		return NeutralBeta
	}
	joined := join(stock, index)
	monthly := monthEnd(joined)
	rs, rm := returns(monthly)
	if len(rs) < 2 {
		return NeutralBeta
	}
	v := variance(rm)
	if v == 0 || math.IsNaN(v) {
		return NeutralBeta
	}
	return covariance(rs, rm) / v
}

type pair struct {
	date         time.Time
	stock, index float64
}

func dayKey(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}

func join(stock, index []types.PricePoint) []pair {
	idx := make(map[int]float64, len(index))
	for _, p := range index {
		if !math.IsNaN(p.Close) {
			idx[dayKey(p.Date)] = p.Close
		}
	}
	out := make([]pair, 0, len(stock))
	for _, p := range stock {
		if math.IsNaN(p.Close) {
			continue
		}
		if c, ok := idx[dayKey(p.Date)]; ok {
			out = append(out, pair{date: p.Date, stock: p.Close, index: c})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].date.Before(out[j].date) })
	return out
}

// monthEnd keeps one observation per calendar month from the first to the
// last joined month: the last one on or before month end, repeating the
// previous month when a month has none.
func monthEnd(in []pair) []pair {
	if len(in) == 0 {
		return nil
	}
	monthIdx := func(t time.Time) int { return t.Year()*12 + int(t.Month()) - 1 }
	first, last := monthIdx(in[0].date), monthIdx(in[len(in)-1].date)
	out := make([]pair, 0, last-first+1)
	i := 0
	var cur pair
	for m := first; m <= last; m++ {
		for i < len(in) && monthIdx(in[i].date) <= m {
			cur = in[i]
			i++
		}
		out = append(out, cur)
	}
	return out
}

func returns(in []pair) (stock, index []float64) {
	for i := 1; i < len(in); i++ {
		s := in[i].stock/in[i-1].stock - 1
		m := in[i].index/in[i-1].index - 1
		if math.IsNaN(s) || math.IsNaN(m) {
			continue
		}
		stock = append(stock, s)
		index = append(index, m)
	}
	return stock, index
}

func mean(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}

// covariance and variance use the sample (n−1) divisor.
func covariance(a, b []float64) float64 {
	ma, mb := mean(a), mean(b)
	var s float64
	for i := range a {
		s += (a[i] - ma) * (b[i] - mb)
	}
	return s / float64(len(a)-1)
}

func variance(xs []float64) float64 {
	return covariance(xs, xs)
}
