package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

const (
	GoalEmergency = "Emergency Reserve"
	GoalFreedom   = "Financial Freedom"
)

// DefaultGoals are reported until the user sets their own targets.
func DefaultGoals() []Goal {
	return []Goal{
		{Name: GoalEmergency, Target: decimal.NewFromInt(10_000)},
		{Name: GoalFreedom, Target: decimal.NewFromInt(1_000_000)},
	}
}

type Service struct {
	Store    Store
	Currency string
}

func NewService(store Store) *Service {
	return &Service{Store: store, Currency: money.BRL}
}

type Summary struct {
	Income       decimal.Decimal `json:"income"`
	Expense      decimal.Decimal `json:"expense"`
	Investment   decimal.Decimal `json:"investment"`
	Balance      decimal.Decimal `json:"balance"`
	Distribution []Slice         `json:"distribution"`
	Monthly      []Month         `json:"monthly"`
	Goals        []GoalProgress  `json:"goals"`
	Budgets      []BudgetStatus  `json:"budgets"`
}

// Slice is the invested amount of one ARCA class.
type Slice struct {
	Class  string          `json:"class"`
	Amount decimal.Decimal `json:"amount"`
	Share  float64         `json:"share"`
}

// Month aggregates one calendar month. NetWorth accumulates income minus
// expense from the first month of the range.
type Month struct {
	Month      string          `json:"month"`
	Income     decimal.Decimal `json:"income"`
	Expense    decimal.Decimal `json:"expense"`
	Investment decimal.Decimal `json:"investment"`
	NetWorth   decimal.Decimal `json:"net_worth"`
}

type GoalProgress struct {
	Goal
	Current  decimal.Decimal `json:"current"`
	Progress float64         `json:"progress"`
}

// BudgetStatus compares a budget with the expenses booked under its
// category in Month.
type BudgetStatus struct {
	Budget
	Month     string          `json:"month"`
	Spent     decimal.Decimal `json:"spent"`
	Remaining decimal.Decimal `json:"remaining"`
	Over      bool            `json:"over"`
}

// Summary aggregates the transactions dated in [from, to). Zero bounds are
// open. Budgets are checked against the month of the latest transaction in
// range, or the current month when there is none.
func (s *Service) Summary(ctx context.Context, from, to time.Time) (*Summary, error) {
	txs, err := s.Store.List(ctx, Filter{From: from, To: to})
	if err != nil {
		return nil, err
	}
	sum := &Summary{}
	byClass := map[string]decimal.Decimal{}
	byMonth := map[string]*Month{}
	for _, t := range txs {
		key := t.Date.Format("2006-01")
		m, ok := byMonth[key]
		if !ok {
			m = &Month{Month: key}
			byMonth[key] = m
		}
		switch t.Type {
		case Income:
			sum.Income = sum.Income.Add(t.Amount)
			m.Income = m.Income.Add(t.Amount)
		case Expense:
			sum.Expense = sum.Expense.Add(t.Amount)
			m.Expense = m.Expense.Add(t.Amount)
		case Investment:
			sum.Investment = sum.Investment.Add(t.Amount)
			m.Investment = m.Investment.Add(t.Amount)
			byClass[t.Subcategory] = byClass[t.Subcategory].Add(t.Amount)
		}
	}
	sum.Balance = sum.Income.Sub(sum.Expense).Sub(sum.Investment)

	for _, c := range sortedKeys(byClass) {
		sl := Slice{Class: c, Amount: byClass[c]}
		if sum.Investment.IsPositive() {
			sl.Share = byClass[c].Div(sum.Investment).InexactFloat64()
		}
		sum.Distribution = append(sum.Distribution, sl)
	}

	net := decimal.Zero
	for _, k := range sortedKeys(byMonth) {
		m := byMonth[k]
		net = net.Add(m.Income).Sub(m.Expense)
		m.NetWorth = net
		sum.Monthly = append(sum.Monthly, *m)
	}

	if sum.Goals, err = s.goalProgress(ctx, byClass); err != nil {
		return nil, err
	}

	month := time.Now().UTC().Format("2006-01")
	if len(sum.Monthly) > 0 {
		month = sum.Monthly[len(sum.Monthly)-1].Month
	}
	if sum.Budgets, err = s.budgetStatus(ctx, txs, month); err != nil {
		return nil, err
	}
	return sum, nil
}

// Goals merges the stored goals over the defaults.
func (s *Service) Goals(ctx context.Context) ([]Goal, error) {
	stored, err := s.Store.Goals(ctx)
	if err != nil {
		return nil, err
	}
	byName := map[string]Goal{}
	var order []string
	for _, g := range append(DefaultGoals(), stored...) {
		if _, ok := byName[g.Name]; !ok {
			order = append(order, g.Name)
		}
		byName[g.Name] = g
	}
	out := make([]Goal, len(order))
	for i, n := range order {
		out[i] = byName[n]
	}
	return out, nil
}

func (s *Service) goalProgress(ctx context.Context, byClass map[string]decimal.Decimal) ([]GoalProgress, error) {
	goals, err := s.Goals(ctx)
	if err != nil {
		return nil, err
	}
	productive := decimal.Zero
	for _, c := range Productive {
		productive = productive.Add(byClass[c])
	}
	out := make([]GoalProgress, 0, len(goals))
	for _, g := range goals {
		gp := GoalProgress{Goal: g}
		switch g.Name {
		case GoalEmergency:
			gp.Current = byClass[ClassCash]
		case GoalFreedom:
			gp.Current = productive
		}
		if g.Target.IsPositive() {
			gp.Progress = gp.Current.Div(g.Target).InexactFloat64()
		}
		out = append(out, gp)
	}
	return out, nil
}

func (s *Service) budgetStatus(ctx context.Context, txs []Transaction, month string) ([]BudgetStatus, error) {
	budgets, err := s.Store.Budgets(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		st := BudgetStatus{Budget: b, Month: month}
		f := Filter{Type: Expense, Category: b.Category}
		for _, t := range txs {
			if f.Match(t) && t.Date.Format("2006-01") == month {
				st.Spent = st.Spent.Add(t.Amount)
			}
		}
		st.Remaining = b.Limit.Sub(st.Spent)
		st.Over = st.Spent.GreaterThan(b.Limit)
		out = append(out, st)
	}
	return out, nil
}

// Format renders an amount in the service currency, e.g. R$1.234,56.
func (s *Service) Format(d decimal.Decimal) string {
	return Format(d, s.Currency)
}

func Format(d decimal.Decimal, currency string) string {
	if currency == "" {
		currency = money.BRL
	}
	m := money.New(0, currency)
	cents := d.Shift(int32(m.Currency().Fraction)).Round(0).IntPart()
	return money.New(cents, currency).Display()
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Open picks the store for a driver name: sqlite, postgres or memory.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "", "sqlite":
		return OpenSQLite(dsn)
	case "postgres":
		return OpenPostgres(ctx, dsn)
	case "memory":
		return NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("ledger: unknown driver %q", driver)
}
