package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS ledger_transactions (
	id          UUID PRIMARY KEY,
	date        DATE NOT NULL,
	type        TEXT NOT NULL,
	category    TEXT NOT NULL,
	subcategory TEXT NOT NULL DEFAULT '',
	amount      NUMERIC(18,2) NOT NULL,
	note        TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS ledger_transactions_date_idx ON ledger_transactions (date);
CREATE TABLE IF NOT EXISTS ledger_goals (
	name     TEXT PRIMARY KEY,
	target   NUMERIC(18,2) NOT NULL,
	deadline DATE
);
CREATE TABLE IF NOT EXISTS ledger_budgets (
	category      TEXT PRIMARY KEY,
	monthly_limit NUMERIC(18,2) NOT NULL
);
`

// PostgresStore keeps the ledger in Postgres. Amounts travel as text and
// are cast to NUMERIC in SQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("ledger: parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ledger: connect: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ledger: migrate: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Add(ctx context.Context, t Transaction) error {
	if err := Validate(t); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO ledger_transactions (id, date, type, category, subcategory, amount, note)
		VALUES ($1, $2, $3, $4, $5, $6::numeric, $7)`,
		t.ID.String(), t.Date, string(t.Type), t.Category, t.Subcategory, t.Amount.String(), t.Note)
	if err != nil {
		return fmt.Errorf("ledger: add: %w", err)
	}
	return nil
}

const pgSelectTx = `SELECT id::text, date, type, category, subcategory, amount::text, note FROM ledger_transactions`

func pgScanTx(row pgx.Row) (Transaction, error) {
	var (
		t          Transaction
		id, amount string
		typ        string
	)
	if err := row.Scan(&id, &t.Date, &typ, &t.Category, &t.Subcategory, &amount, &t.Note); err != nil {
		return Transaction{}, err
	}
	var err error
	if t.ID, err = uuid.Parse(id); err != nil {
		return Transaction{}, fmt.Errorf("ledger: bad id %q: %w", id, err)
	}
	if t.Amount, err = decimal.NewFromString(amount); err != nil {
		return Transaction{}, fmt.Errorf("ledger: bad amount %q: %w", amount, err)
	}
	t.Type = Type(typ)
	t.Date = t.Date.UTC()
	return t, nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (Transaction, error) {
	t, err := pgScanTx(s.pool.QueryRow(ctx, pgSelectTx+` WHERE id = $1`, id.String()))
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, ErrNotFound
	}
	if err != nil {
		return Transaction{}, fmt.Errorf("ledger: get: %w", err)
	}
	return t, nil
}

func (s *PostgresStore) List(ctx context.Context, f Filter) ([]Transaction, error) {
	var (
		where []string
		args  []any
	)
	arg := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if !f.From.IsZero() {
		arg("date >= $%d", f.From)
	}
	if !f.To.IsZero() {
		arg("date < $%d", f.To)
	}
	if f.Type != "" {
		arg("type = $%d", string(f.Type))
	}
	if f.Category != "" {
		arg("lower(category) = lower($%d)", f.Category)
	}
	q := pgSelectTx
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY date DESC, id"

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("ledger: list: %w", err)
	}
	defer rows.Close()
	var out []Transaction
	for rows.Next() {
		t, err := pgScanTx(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM ledger_transactions WHERE id = $1`, id.String())
	if err != nil {
		return fmt.Errorf("ledger: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SaveGoal(ctx context.Context, g Goal) error {
	if err := Validate(g); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO ledger_goals (name, target, deadline) VALUES ($1, $2::numeric, $3)
		ON CONFLICT (name) DO UPDATE SET target = excluded.target, deadline = excluded.deadline`,
		g.Name, g.Target.String(), g.Deadline)
	if err != nil {
		return fmt.Errorf("ledger: save goal: %w", err)
	}
	return nil
}

func (s *PostgresStore) Goals(ctx context.Context) ([]Goal, error) {
	rows, err := s.pool.Query(ctx, `SELECT name, target::text, deadline FROM ledger_goals ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("ledger: goals: %w", err)
	}
	defer rows.Close()
	var out []Goal
	for rows.Next() {
		var (
			g        Goal
			target   string
			deadline *time.Time
		)
		if err := rows.Scan(&g.Name, &target, &deadline); err != nil {
			return nil, err
		}
		if g.Target, err = decimal.NewFromString(target); err != nil {
			return nil, fmt.Errorf("ledger: bad target %q: %w", target, err)
		}
		g.Deadline = deadline
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *PostgresStore) SaveBudget(ctx context.Context, b Budget) error {
	if err := Validate(b); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO ledger_budgets (category, monthly_limit) VALUES ($1, $2::numeric)
		ON CONFLICT (category) DO UPDATE SET monthly_limit = excluded.monthly_limit`,
		b.Category, b.Limit.String())
	if err != nil {
		return fmt.Errorf("ledger: save budget: %w", err)
	}
	return nil
}

func (s *PostgresStore) Budgets(ctx context.Context) ([]Budget, error) {
	rows, err := s.pool.Query(ctx, `SELECT category, monthly_limit::text FROM ledger_budgets ORDER BY category`)
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
