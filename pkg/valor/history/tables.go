package history

import (
	"sort"

	"github.com/komsit37/valor/pkg/valor/types"
)

// Tables holds the multi-company statement tables of a run, grouped by
// company code. It is filled once by a filing source and then only read.
type Tables struct {
	byKind map[types.StatementKind]map[string][]types.FilingRow
}

func NewTables() *Tables {
	return &Tables{byKind: make(map[types.StatementKind]map[string][]types.FilingRow, len(types.Statements))}
}

// Append adds rows to a statement table.
func (t *Tables) Append(kind types.StatementKind, rows ...types.FilingRow) {
	m, ok := t.byKind[kind]
	if !ok {
		m = map[string][]types.FilingRow{}
		t.byKind[kind] = m
	}
	for _, r := range rows {
		m[r.Company] = append(m[r.Company], r)
	}
}

// Len counts the rows of one statement across all companies.
func (t *Tables) Len(kind types.StatementKind) int {
	n := 0
	for _, rows := range t.byKind[kind] {
		n += len(rows)
	}
	return n
}

// Rows returns the raw rows of one company in one statement. The slice is
// shared and must not be modified.
func (t *Tables) Rows(kind types.StatementKind, company string) []types.FilingRow {
	return t.byKind[kind][company]
}

// Companies lists every company code present in any table, sorted.
func (t *Tables) Companies() []string {
	seen := map[string]struct{}{}
	for _, m := range t.byKind {
		for c := range m {
			seen[c] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// ForCompany builds a fresh indexed view of one company's four statements.
func (t *Tables) ForCompany(company string) *Financials {
	f := &Financials{Company: company}
	for _, k := range types.Statements {
		f.books[k] = NewBook(t.byKind[k][company])
	}
	return f
}

// Financials is the per-company view used by the valuation and health models.
type Financials struct {
	Company string
	books   [4]*Book
}

// NewFinancials builds a view straight from per-statement rows.
func NewFinancials(company string, rows map[types.StatementKind][]types.FilingRow) *Financials {
	f := &Financials{Company: company}
	for _, k := range types.Statements {
		f.books[k] = NewBook(rows[k])
	}
	return f
}

// Book returns the indexed statement.
func (f *Financials) Book(kind types.StatementKind) *Book {
	if f == nil || int(kind) < 0 || int(kind) >= len(f.books) {
		return nil
	}
	return f.books[kind]
}

// HasRows reports whether every given statement has at least one row.
func (f *Financials) HasRows(kinds ...types.StatementKind) bool {
	for _, k := range kinds {
		if f.Book(k).Rows() == 0 {
			return false
		}
	}
	return true
}

// History looks the account up in the statement it belongs to.
func (f *Financials) History(code types.AccountCode) Series {
	return f.Book(code.Statement()).History(code)
}

// Coverage counts, per account, the companies with at least one final row
// for it.
func (t *Tables) Coverage() map[types.AccountCode]int {
	out := map[types.AccountCode]int{}
	for _, c := range t.Companies() {
		f := t.ForCompany(c)
		for _, k := range types.Statements {
			for _, code := range f.Book(k).Accounts() {
				out[code]++
			}
		}
	}
	return out
}
