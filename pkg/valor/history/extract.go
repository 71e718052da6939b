package history

import (
	"time"

	"github.com/komsit37/valor/pkg/valor/types"
)

// Extract returns the yearly history of one account from a company's rows.
// Only final-order rows count. Within a calendar year the row with the latest
// reference date wins; on equal dates the later row in input order wins.
// No match yields an empty series.
func Extract(rows []types.FilingRow, code types.AccountCode) Series {
	type pick struct {
		at    time.Time
		value float64
	}
	byYear := map[int]pick{}
	for _, r := range rows {
		if r.Account != code || r.Order != types.OrderFinal {
			continue
		}
		y := r.RefDate.Year()
		if cur, ok := byYear[y]; ok && r.RefDate.Before(cur.at) {
			continue
		}
		byYear[y] = pick{at: r.RefDate, value: r.Value}
	}
	if len(byYear) == 0 {
		return Series{}
	}
	m := make(map[int]float64, len(byYear))
	for y, p := range byYear {
		m[y] = p.value
	}
	return FromMap(m)
}
