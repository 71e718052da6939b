package source

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/komsit37/valor/pkg/valor/history"
	"github.com/komsit37/valor/pkg/valor/types"
)

// FilingSchema creates the table PostgresFilings reads from.
const FilingSchema = `
CREATE TABLE IF NOT EXISTS dfp_rows (
	statement   TEXT    NOT NULL,
	cd_cvm      TEXT    NOT NULL,
	cd_conta    TEXT    NOT NULL,
	dt_refer    DATE    NOT NULL,
	ordem_exerc TEXT    NOT NULL,
	vl_conta    DOUBLE PRECISION NOT NULL
);
CREATE INDEX IF NOT EXISTS dfp_rows_company_idx ON dfp_rows (cd_cvm, statement);
`

// PostgresFilings serves DFP rows previously imported into Postgres.
type PostgresFilings struct {
	Pool *pgxpool.Pool
	Now  func() time.Time
}

// OpenPool parses the DSN and connects.
func OpenPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("source: parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("source: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("source: ping: %w", err)
	}
	return pool, nil
}

func (s PostgresFilings) Migrate(ctx context.Context) error {
	if _, err := s.Pool.Exec(ctx, FilingSchema); err != nil {
		return fmt.Errorf("source: migrate: %w", err)
	}
	return nil
}

func (s PostgresFilings) Load(ctx context.Context, years int) (*history.Tables, error) {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	from := time.Date(now().Year()-years, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(now().Year(), 1, 1, 0, 0, 0, 0, time.UTC)

	rows, err := s.Pool.Query(ctx, `
		SELECT statement, cd_cvm, cd_conta, dt_refer, ordem_exerc, vl_conta
		FROM dfp_rows
		WHERE dt_refer >= $1 AND dt_refer < $2`, from, to)
	if err != nil {
		return nil, fmt.Errorf("source: query filings: %w", err)
	}
	defer rows.Close()

	kinds := map[string]types.StatementKind{}
	for _, k := range types.Statements {
		kinds[k.Tag()] = k
	}
	tables := history.NewTables()
	n := 0
	for rows.Next() {
		var (
			tag, company, code, order string
			date                      time.Time
			value                     float64
		)
		if err := rows.Scan(&tag, &company, &code, &date, &order, &value); err != nil {
			return nil, fmt.Errorf("source: scan filing: %w", err)
		}
		kind, ok := kinds[tag]
		if !ok {
			continue
		}
		tables.Append(kind, types.FilingRow{
			Company: company,
			Account: types.AccountCode(code),
			RefDate: date,
			Order:   types.Order(order),
			Value:   value,
		})
		n++
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("source: read filings: %w", err)
	}
	if n == 0 {
		return nil, ErrNoFilings
	}
	return tables, nil
}

// Import replaces the stored rows of the given years with the rows of
// tables using COPY.
func (s PostgresFilings) Import(ctx context.Context, tables *history.Tables, years []int) (int64, error) {
	if len(years) == 0 {
		return 0, nil
	}
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("source: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM dfp_rows WHERE EXTRACT(YEAR FROM dt_refer) = ANY($1)`, years); err != nil {
		return 0, fmt.Errorf("source: clear filings: %w", err)
	}

	var src [][]any
	for _, kind := range types.Statements {
		for _, company := range tables.Companies() {
			for _, r := range tables.Rows(kind, company) {
				src = append(src, []any{kind.Tag(), r.Company, string(r.Account), r.RefDate, string(r.Order), r.Value})
			}
		}
	}
	n, err := tx.CopyFrom(ctx,
		pgx.Identifier{"dfp_rows"},
		[]string{"statement", "cd_cvm", "cd_conta", "dt_refer", "ordem_exerc", "vl_conta"},
		pgx.CopyFromRows(src),
	)
	if err != nil {
		return 0, fmt.Errorf("source: copy filings: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("source: commit: %w", err)
	}
	return n, nil
}
