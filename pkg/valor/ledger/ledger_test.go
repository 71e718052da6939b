package ledger

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func mustTx(t *testing.T, date time.Time, typ Type, cat, sub, amount string) Transaction {
	t.Helper()
	tx, err := NewTransaction(date, typ, cat, sub, dec(amount), "")
	require.NoError(t, err)
	return tx
}

func stores(t *testing.T) map[string]Store {
	t.Helper()
	sq, err := OpenSQLite(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sq.Close() })
	out := map[string]Store{"memory": NewMemoryStore(), "sqlite": sq}
	if dsn := os.Getenv("VALOR_TEST_POSTGRES_DSN"); dsn != "" {
		pg, err := OpenPostgres(context.Background(), dsn)
		require.NoError(t, err)
		_, err = pg.pool.Exec(context.Background(), `TRUNCATE ledger_transactions, ledger_goals, ledger_budgets`)
		require.NoError(t, err)
		t.Cleanup(func() { _ = pg.Close() })
		out["postgres"] = pg
	}
	return out
}

func TestNewTransactionValidation(t *testing.T) {
	_, err := NewTransaction(day(2024, 1, 1), Expense, "", "", dec("10"), "")
	require.Error(t, err)

	_, err = NewTransaction(day(2024, 1, 1), Expense, "Food", "", dec("0"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "amount")

	_, err = NewTransaction(day(2024, 1, 1), Type("Gift"), "x", "", dec("1"), "")
	require.Error(t, err)

	_, err = NewTransaction(day(2024, 1, 1), Investment, "Crypto", "", dec("1"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "investment class")

	tx, err := NewTransaction(time.Date(2024, 1, 1, 15, 4, 0, 0, time.UTC), Investment, ClassCash, "", dec("100"), " note ")
	require.NoError(t, err)
	assert.Equal(t, ClassCash, tx.Subcategory)
	assert.Equal(t, day(2024, 1, 1), tx.Date)
	assert.Equal(t, "note", tx.Note)
	assert.NotEqual(t, uuid.Nil, tx.ID)
}

func TestParseType(t *testing.T) {
	typ, err := ParseType("income")
	require.NoError(t, err)
	assert.Equal(t, Income, typ)
	_, err = ParseType("gift")
	require.Error(t, err)
}

func TestStores(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			a := mustTx(t, day(2024, 1, 5), Income, "Salary", "", "5000.00")
			b := mustTx(t, day(2024, 2, 3), Expense, "Food", "", "123.45")
			c := mustTx(t, day(2024, 2, 10), Investment, ClassStocks, "", "1000")
			for _, tx := range []Transaction{a, b, c} {
				require.NoError(t, s.Add(ctx, tx))
			}

			got, err := s.Get(ctx, b.ID)
			require.NoError(t, err)
			assert.Equal(t, b.Category, got.Category)
			assert.True(t, b.Amount.Equal(got.Amount))
			assert.True(t, b.Date.Equal(got.Date))

			all, err := s.List(ctx, Filter{})
			require.NoError(t, err)
			require.Len(t, all, 3)
			assert.Equal(t, c.ID, all[0].ID)
			assert.Equal(t, a.ID, all[2].ID)

			feb, err := s.List(ctx, Filter{From: day(2024, 2, 1), To: day(2024, 3, 1)})
			require.NoError(t, err)
			assert.Len(t, feb, 2)

			food, err := s.List(ctx, Filter{Type: Expense, Category: "food"})
			require.NoError(t, err)
			require.Len(t, food, 1)

			require.NoError(t, s.Delete(ctx, a.ID))
			_, err = s.Get(ctx, a.ID)
			require.ErrorIs(t, err, ErrNotFound)
			require.ErrorIs(t, s.Delete(ctx, a.ID), ErrNotFound)

			deadline := day(2030, 1, 1)
			require.NoError(t, s.SaveGoal(ctx, Goal{Name: GoalFreedom, Target: dec("2000000"), Deadline: &deadline}))
			require.NoError(t, s.SaveGoal(ctx, Goal{Name: GoalFreedom, Target: dec("1500000"), Deadline: &deadline}))
			goals, err := s.Goals(ctx)
			require.NoError(t, err)
			require.Len(t, goals, 1)
			assert.True(t, dec("1500000").Equal(goals[0].Target))
			require.NotNil(t, goals[0].Deadline)
			assert.True(t, deadline.Equal(*goals[0].Deadline))

			require.NoError(t, s.SaveBudget(ctx, Budget{Category: "Food", Limit: dec("100")}))
			budgets, err := s.Budgets(ctx)
			require.NoError(t, err)
			require.Len(t, budgets, 1)
			assert.True(t, dec("100").Equal(budgets[0].Limit))

			require.Error(t, s.SaveBudget(ctx, Budget{Category: "Food", Limit: dec("-1")}))
		})
	}
}

func TestSummary(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for _, tx := range []Transaction{
		mustTx(t, day(2024, 1, 5), Income, "Salary", "", "5000"),
		mustTx(t, day(2024, 1, 10), Expense, "Rent", "", "2000"),
		mustTx(t, day(2024, 1, 20), Investment, ClassCash, "", "1000"),
		mustTx(t, day(2024, 2, 5), Income, "Salary", "", "5000"),
		mustTx(t, day(2024, 2, 8), Expense, "Food", "", "600"),
		mustTx(t, day(2024, 2, 9), Expense, "Food", "", "500"),
		mustTx(t, day(2024, 2, 15), Investment, ClassStocks, "", "1500"),
		mustTx(t, day(2024, 2, 16), Investment, ClassInternational, "", "500"),
	} {
		require.NoError(t, s.Add(ctx, tx))
	}
	require.NoError(t, s.SaveBudget(ctx, Budget{Category: "Food", Limit: dec("1000")}))
	require.NoError(t, s.SaveGoal(ctx, Goal{Name: GoalEmergency, Target: dec("4000")}))

	svc := NewService(s)
	sum, err := svc.Summary(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)

	assert.True(t, dec("10000").Equal(sum.Income))
	assert.True(t, dec("3100").Equal(sum.Expense))
	assert.True(t, dec("3000").Equal(sum.Investment))
	assert.True(t, dec("3900").Equal(sum.Balance))

	require.Len(t, sum.Distribution, 3)
	shares := map[string]float64{}
	for _, sl := range sum.Distribution {
		shares[sl.Class] = sl.Share
	}
	assert.InDelta(t, 0.5, shares[ClassStocks], 1e-9)
	assert.InDelta(t, 1.0/3, shares[ClassCash], 1e-9)

	require.Len(t, sum.Monthly, 2)
	assert.Equal(t, "2024-01", sum.Monthly[0].Month)
	assert.True(t, dec("3000").Equal(sum.Monthly[0].NetWorth))
	assert.True(t, dec("6900").Equal(sum.Monthly[1].NetWorth))

	require.Len(t, sum.Goals, 2)
	assert.Equal(t, GoalEmergency, sum.Goals[0].Name)
	assert.True(t, dec("1000").Equal(sum.Goals[0].Current))
	assert.InDelta(t, 0.25, sum.Goals[0].Progress, 1e-9)
	assert.Equal(t, GoalFreedom, sum.Goals[1].Name)
	assert.True(t, dec("2000").Equal(sum.Goals[1].Current))
	assert.InDelta(t, 0.002, sum.Goals[1].Progress, 1e-9)

	require.Len(t, sum.Budgets, 1)
	assert.Equal(t, "2024-02", sum.Budgets[0].Month)
	assert.True(t, dec("1100").Equal(sum.Budgets[0].Spent))
	assert.True(t, dec("-100").Equal(sum.Budgets[0].Remaining))
	assert.True(t, sum.Budgets[0].Over)

	jan, err := svc.Summary(ctx, day(2024, 1, 1), day(2024, 2, 1))
	require.NoError(t, err)
	assert.True(t, dec("2000").Equal(jan.Balance))
	assert.True(t, jan.Budgets[0].Spent.IsZero())
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "R$1.234,56", Format(dec("1234.56"), "BRL"))
	assert.Equal(t, "$10.00", Format(dec("9.999"), "USD"))
}

func TestOpen(t *testing.T) {
	s, err := Open(context.Background(), "memory", "")
	require.NoError(t, err)
	require.NoError(t, s.Close())
	_, err = Open(context.Background(), "oracle", "")
	require.Error(t, err)
}
