package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

// SQLiteStore keeps the ledger in a single sqlite file. Amounts are stored
// as decimal text so no precision is lost.
type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("ledger: sqlite path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("ledger: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS transactions (
			id TEXT PRIMARY KEY,
			date TEXT NOT NULL,
			type TEXT NOT NULL,
			category TEXT NOT NULL,
			subcategory TEXT NOT NULL DEFAULT '',
			amount TEXT NOT NULL,
			note TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE INDEX IF NOT EXISTS transactions_date_idx ON transactions (date);`,
		`CREATE TABLE IF NOT EXISTS goals (
			name TEXT PRIMARY KEY,
			target TEXT NOT NULL,
			deadline TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS budgets (
			category TEXT PRIMARY KEY,
			monthly_limit TEXT NOT NULL
		);`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("ledger: migrate: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Add(ctx context.Context, t Transaction) error {
	if err := Validate(t); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (id, date, type, category, subcategory, amount, note)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID.String(), t.Date.Format(dateLayout), string(t.Type), t.Category, t.Subcategory, t.Amount.String(), t.Note)
	if err != nil {
		return fmt.Errorf("ledger: add: %w", err)
	}
	return nil
}

const selectTx = `SELECT id, date, type, category, subcategory, amount, note FROM transactions`

type scanner interface {
	Scan(dest ...any) error
}

func scanTx(sc scanner) (Transaction, error) {
	var (
		t                Transaction
		id, date, amount string
		typ              string
	)
	if err := sc.Scan(&id, &date, &typ, &t.Category, &t.Subcategory, &amount, &t.Note); err != nil {
		return Transaction{}, err
	}
	var err error
	if t.ID, err = uuid.Parse(id); err != nil {
		return Transaction{}, fmt.Errorf("ledger: bad id %q: %w", id, err)
	}
	if t.Date, err = time.Parse(dateLayout, date); err != nil {
		return Transaction{}, fmt.Errorf("ledger: bad date %q: %w", date, err)
	}
	if t.Amount, err = decimal.NewFromString(amount); err != nil {
		return Transaction{}, fmt.Errorf("ledger: bad amount %q: %w", amount, err)
	}
	t.Type = Type(typ)
	return t, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id uuid.UUID) (Transaction, error) {
	t, err := scanTx(s.db.QueryRowContext(ctx, selectTx+` WHERE id = ?`, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return Transaction{}, ErrNotFound
	}
	if err != nil {
		return Transaction{}, fmt.Errorf("ledger: get: %w", err)
	}
	return t, nil
}

func (s *SQLiteStore) List(ctx context.Context, f Filter) ([]Transaction, error) {
	var (
		where []string
		args  []any
	)
	if !f.From.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, f.From.Format(dateLayout))
	}
	if !f.To.IsZero() {
		where = append(where, "date < ?")
		args = append(args, f.To.Format(dateLayout))
	}
	if f.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(f.Type))
	}
	if f.Category != "" {
		where = append(where, "category = ? COLLATE NOCASE")
		args = append(args, f.Category)
	}
	q := selectTx
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY date DESC, id"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("ledger: list: %w", err)
	}
	defer rows.Close()
	var out []Transaction
	for rows.Next() {
		t, err := scanTx(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("ledger: delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) SaveGoal(ctx context.Context, g Goal) error {
	if err := Validate(g); err != nil {
		return err
	}
	var deadline any
	if g.Deadline != nil {
		deadline = g.Deadline.Format(dateLayout)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO goals (name, target, deadline) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET target = excluded.target, deadline = excluded.deadline`,
		g.Name, g.Target.String(), deadline)
	if err != nil {
		return fmt.Errorf("ledger: save goal: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Goals(ctx context.Context) ([]Goal, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, target, deadline FROM goals ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("ledger: goals: %w", err)
	}
	defer rows.Close()
	var out []Goal
	for rows.Next() {
		var (
			g        Goal
			target   string
			deadline sql.NullString
		)
		if err := rows.Scan(&g.Name, &target, &deadline); err != nil {
			return nil, err
		}
		if g.Target, err = decimal.NewFromString(target); err != nil {
			return nil, fmt.Errorf("ledger: bad target %q: %w", target, err)
		}
		if deadline.Valid {
			d, err := time.Parse(dateLayout, deadline.String)
			if err != nil {
				return nil, fmt.Errorf("ledger: bad deadline %q: %w", deadline.String, err)
			}
			g.Deadline = &d
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SaveBudget(ctx context.Context, b Budget) error {
	if err := Validate(b); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO budgets (category, monthly_limit) VALUES (?, ?)
		ON CONFLICT(category) DO UPDATE SET monthly_limit = excluded.monthly_limit`,
		b.Category, b.Limit.String())
	if err != nil {
		return fmt.Errorf("ledger: save budget: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Budgets(ctx context.Context) ([]Budget, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT category, monthly_limit FROM budgets ORDER BY category`)
	if err != nil {
		return nil, fmt.Errorf("ledger: budgets: %w", err)
	}
	defer rows.Close()
	var out []Budget
	for rows.Next() {
		var (
			b     Budget
			limit string
		)
		if err := rows.Scan(&b.Category, &limit); err != nil {
			return nil, err
		}
		if b.Limit, err = decimal.NewFromString(limit); err != nil {
			return nil, fmt.Errorf("ledger: bad limit %q: %w", limit, err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
