package health

import (
	"errors"
	"fmt"
	"math"

	"github.com/komsit37/valor/pkg/valor/history"
	"github.com/komsit37/valor/pkg/valor/types"
)

var (
	ErrIncompleteFilings = errors.New("health: incomplete CVM historical data")
	ErrEmptySeries       = errors.New("health: empty reclassified series")
)

// Fleuriet is the dynamic working-capital reading of a company.
type Fleuriet struct {
	NCG      history.Series // operational current assets − operational current liabilities
	CDG      history.Series // permanent financing − permanent assets
	Treasury history.Series // CDG − NCG
	Scissor  bool
}

// Year is the latest year of the treasury series.
func (f *Fleuriet) Year() int {
	y, _ := f.Treasury.LastYear()
	return y
}

func (f *Fleuriet) latest(s history.Series) float64 {
	v, _ := s.Last()
	return v
}

// Classify reclassifies the balance sheet into the Fleuriet buckets.
func Classify(fin *history.Financials) (*Fleuriet, error) {
	if fin == nil || !fin.HasRows(types.Assets, types.Liabilities, types.Income) {
		return nil, ErrIncompleteFilings
	}
	buckets := []struct {
		name string
		s    history.Series
	}{
		{"operational current assets", fin.History(types.Inventories).Add(fin.History(types.Receivables))},
		{"operational current liabilities", fin.History(types.Suppliers)},
		{"permanent assets", fin.History(types.NonCurrentAssets)},
		{"equity", fin.History(types.Equity)},
		{"non-current liabilities", fin.History(types.NonCurrentLiabilities)},
	}
	for _, b := range buckets {
		if b.s.Empty() {
			return nil, fmt.Errorf("%w: %s", ErrEmptySeries, b.name)
		}
	}
	aco, pco, ap, pl, pnc := buckets[0].s, buckets[1].s, buckets[2].s, buckets[3].s, buckets[4].s

	ncg := aco.Sub(pco)
	cdg := pl.Add(pnc).Sub(ap)
	t := cdg.Sub(ncg)
	return &Fleuriet{NCG: ncg, CDG: cdg, Treasury: t, Scissor: ScissorEffect(ncg, cdg, t)}, nil
}

// ScissorEffect looks at the latest transition only: NCG grew faster than
// CDG and the treasury balance is negative.
func ScissorEffect(ncg, cdg, treasury history.Series) bool {
	if ncg.Len() < 2 || cdg.Len() < 2 {
		return false
	}
	gn, gc := ncg.PctChangeLast(), cdg.PctChangeLast()
	if math.IsNaN(gn) || math.IsNaN(gc) {
		return false
	}
	t, ok := treasury.Last()
	return ok && gn > gc && t < 0
}
