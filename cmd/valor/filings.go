package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/komsit37/valor/pkg/valor/source"
	"github.com/komsit37/valor/pkg/valor/types"
)

func newFilingsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "filings", Short: "Manage the CVM filing store"}

	var years int
	imp := &cobra.Command{
		Use:   "import",
		Short: "Copy the extracted DFP csv files of data.dir into Postgres (data.dsn)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Data.DSN == "" {
				return errors.New("data.dsn is not set")
			}
			if years <= 0 {
				years = a.cfg.Valuation.HistoryYears
			}
			ctx := ctxOf(cmd)
			tables, err := source.CVMDir{Dir: a.cfg.Data.Dir, Logger: a.log}.Load(ctx, years)
			if err != nil {
				return err
			}
			pool, err := source.OpenPool(ctx, a.cfg.Data.DSN)
			if err != nil {
				return err
			}
			defer pool.Close()
			pg := source.PostgresFilings{Pool: pool}
			if err := pg.Migrate(ctx); err != nil {
				return err
			}
			n, err := pg.Import(ctx, tables, source.Years(time.Now(), years))
			if err != nil {
				return err
			}
			a.log.Info("filings imported", "rows", n, "companies", len(tables.Companies()))
			fmt.Fprintf(a.out, "imported %d rows (%d companies)\n", n, len(tables.Companies()))
			return nil
		},
	}
	imp.Flags().IntVar(&years, "years", 0, "years to import (default valuation.history_years)")

	var accounts bool
	stat := &cobra.Command{
		Use:   "stat",
		Short: "Show row counts per statement of the configured filing source",
		RunE: func(cmd *cobra.Command, args []string) error {
			tables, err := a.loadTables(ctxOf(cmd))
			if err != nil {
				return err
			}
			for _, k := range types.Statements {
				fmt.Fprintf(a.out, "%-7s %d rows\n", k, tables.Len(k))
			}
			companies := len(tables.Companies())
			fmt.Fprintf(a.out, "%d companies\n", companies)
			if !accounts {
				return nil
			}
			cov := tables.Coverage()
			for _, code := range types.Accounts {
				fmt.Fprintf(a.out, "%-10s %d of %d companies\n", code, cov[code], companies)
			}
			return nil
		},
	}
	stat.Flags().BoolVar(&accounts, "accounts", false, "also show how many companies report each account")
	cmd.AddCommand(imp, stat)
	return cmd
}
