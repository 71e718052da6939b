package history

import (
	"sort"

	"github.com/komsit37/valor/pkg/valor/types"
)

// Book indexes one company's statement once so every account lookup is a
// map hit instead of a rescan of the rows.
type Book struct {
	rows     int
	accounts map[types.AccountCode]Series
}

// NewBook groups rows by account and extracts each history.
func NewBook(rows []types.FilingRow) *Book {
	grouped := map[types.AccountCode][]types.FilingRow{}
	for _, r := range rows {
		grouped[r.Account] = append(grouped[r.Account], r)
	}
	b := &Book{rows: len(rows), accounts: make(map[types.AccountCode]Series, len(grouped))}
	for code, rs := range grouped {
		b.accounts[code] = Extract(rs, code)
	}
	return b
}

// Rows is the number of filing rows the book was built from.
func (b *Book) Rows() int {
	if b == nil {
		return 0
	}
	return b.rows
}

// History returns the account's yearly series; empty when absent.
func (b *Book) History(code types.AccountCode) Series {
	if b == nil {
		return Series{}
	}
	if s, ok := b.accounts[code]; ok {
		return s
	}
	return Series{}
}

// Accounts lists the codes with at least one final row, sorted.
func (b *Book) Accounts() []types.AccountCode {
	if b == nil {
		return nil
	}
	out := make([]types.AccountCode, 0, len(b.accounts))
	for c, s := range b.accounts {
		if !s.Empty() {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
