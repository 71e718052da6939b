package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/komsit37/valor/pkg/valor/ledger"
	"github.com/komsit37/valor/pkg/valor/render"
)

const dateFlagLayout = "2006-01-02"

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateFlagLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}

func (a *app) ledgerService(cmd *cobra.Command) (*ledger.Service, func(), error) {
	store, err := ledger.Open(ctxOf(cmd), a.cfg.Ledger.Driver, a.cfg.Ledger.DSN)
	if err != nil {
		return nil, nil, err
	}
	return ledger.NewService(store), func() { _ = store.Close() }, nil
}

func (a *app) ledgerTable() table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(a.out)
	tw.SetStyle(table.StyleColoredDark)
	tw.Style().Options.DrawBorder = false
	tw.Style().Options.SeparateColumns = false
	return tw
}

var rightAligned = table.ColumnConfig{Align: text.AlignRight, AlignHeader: text.AlignRight}

func numberCols(nums ...int) []table.ColumnConfig {
	out := make([]table.ColumnConfig, len(nums))
	for i, n := range nums {
		c := rightAligned
		c.Number = n
		out[i] = c
	}
	return out
}

func newLedgerCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Record personal transactions, goals and budgets",
	}
	cmd.AddCommand(
		newLedgerAddCmd(a),
		newLedgerListCmd(a),
		newLedgerDeleteCmd(a),
		newLedgerSummaryCmd(a),
		newLedgerGoalCmd(a),
		newLedgerBudgetCmd(a),
	)
	return cmd
}

func newLedgerAddCmd(a *app) *cobra.Command {
	var date, typ, category, sub, amount, note string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a transaction",
		RunE: func(cmd *cobra.Command, args []string) error {
			d := time.Now()
			if date != "" {
				var err error
				if d, err = parseDate(date); err != nil {
					return err
				}
			}
			t, err := ledger.ParseType(typ)
			if err != nil {
				return err
			}
			amt, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("bad amount %q", amount)
			}
			tx, err := ledger.NewTransaction(d, t, category, sub, amt, note)
			if err != nil {
				return err
			}
			svc, closeFn, err := a.ledgerService(cmd)
			if err != nil {
				return err
			}
			defer closeFn()
			if err := svc.Store.Add(ctxOf(cmd), tx); err != nil {
				return err
			}
			fmt.Fprintln(a.out, tx.ID)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&date, "date", "", "transaction date YYYY-MM-DD (default today)")
	f.StringVarP(&typ, "type", "t", "", "Income, Expense or Investment")
	f.StringVar(&category, "category", "", "category; for investments the ARCA class")
	f.StringVar(&sub, "sub", "", "subcategory")
	f.StringVarP(&amount, "amount", "a", "", "positive amount")
	f.StringVar(&note, "note", "", "free text")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newLedgerListCmd(a *app) *cobra.Command {
	var from, to, typ, category string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				f   ledger.Filter
				err error
			)
			if f.From, err = parseDate(from); err != nil {
				return err
			}
			if f.To, err = parseDate(to); err != nil {
				return err
			}
			if typ != "" {
				if f.Type, err = ledger.ParseType(typ); err != nil {
					return err
				}
			}
			f.Category = category

			svc, closeFn, err := a.ledgerService(cmd)
			if err != nil {
				return err
			}
			defer closeFn()
			txs, err := svc.Store.List(ctxOf(cmd), f)
			if err != nil {
				return err
			}
			if a.format == "json" {
				return render.JSON(a.out, txs, a.pretty)
			}
			tw := a.ledgerTable()
			tw.AppendHeader(table.Row{"DATE", "TYPE", "CATEGORY", "SUB", "AMOUNT", "NOTE", "ID"})
			tw.SetColumnConfigs(numberCols(5))
			for _, t := range txs {
				tw.AppendRow(table.Row{t.Date.Format(dateFlagLayout), t.Type, t.Category, t.Subcategory, svc.Format(t.Amount), t.Note, t.ID})
			}
			tw.Render()
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&from, "from", "", "first date, inclusive")
	f.StringVar(&to, "to", "", "last date, exclusive")
	f.StringVarP(&typ, "type", "t", "", "only this type")
	f.StringVar(&category, "category", "", "only this category")
	return cmd
}

func newLedgerDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <ID>",
		Short: "Delete a transaction",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("requires exactly 1 transaction id")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("bad id %q: %w", args[0], err)
			}
			svc, closeFn, err := a.ledgerService(cmd)
			if err != nil {
				return err
			}
			defer closeFn()
			return svc.Store.Delete(ctxOf(cmd), id)
		},
	}
}

func newLedgerSummaryCmd(a *app) *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Totals, ARCA distribution, monthly net worth, goals and budgets",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseDate(from)
			if err != nil {
				return err
			}
			t, err := parseDate(to)
			if err != nil {
				return err
			}
			svc, closeFn, err := a.ledgerService(cmd)
			if err != nil {
				return err
			}
			defer closeFn()
			sum, err := svc.Summary(ctxOf(cmd), f, t)
			if err != nil {
				return err
			}
			if a.format == "json" {
				return render.JSON(a.out, sum, a.pretty)
			}
			a.printSummary(svc, sum)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first date, inclusive")
	cmd.Flags().StringVar(&to, "to", "", "last date, exclusive")
	return cmd
}

func (a *app) printSummary(svc *ledger.Service, sum *ledger.Summary) {
	tw := a.ledgerTable()
	tw.AppendHeader(table.Row{"INCOME", "EXPENSE", "INVESTMENT", "BALANCE"})
	tw.SetColumnConfigs(numberCols(1, 2, 3, 4))
	tw.AppendRow(table.Row{svc.Format(sum.Income), svc.Format(sum.Expense), svc.Format(sum.Investment), svc.Format(sum.Balance)})
	tw.Render()
	fmt.Fprintln(a.out)

	if len(sum.Distribution) > 0 {
		tw = a.ledgerTable()
		tw.AppendHeader(table.Row{"ARCA CLASS", "AMOUNT", "SHARE"})
		tw.SetColumnConfigs(numberCols(2, 3))
		for _, s := range sum.Distribution {
			tw.AppendRow(table.Row{s.Class, svc.Format(s.Amount), fmt.Sprintf("%.1f%%", s.Share*100)})
		}
		tw.Render()
		fmt.Fprintln(a.out)
	}

	if len(sum.Monthly) > 0 {
		tw = a.ledgerTable()
		tw.AppendHeader(table.Row{"MONTH", "INCOME", "EXPENSE", "INVESTMENT", "NET WORTH"})
		tw.SetColumnConfigs(numberCols(2, 3, 4, 5))
		for _, m := range sum.Monthly {
			tw.AppendRow(table.Row{m.Month, svc.Format(m.Income), svc.Format(m.Expense), svc.Format(m.Investment), svc.Format(m.NetWorth)})
		}
		tw.Render()
		fmt.Fprintln(a.out)
	}

	tw = a.ledgerTable()
	tw.AppendHeader(table.Row{"GOAL", "CURRENT", "TARGET", "PROGRESS"})
	tw.SetColumnConfigs(numberCols(2, 3, 4))
	for _, g := range sum.Goals {
		tw.AppendRow(table.Row{g.Name, svc.Format(g.Current), svc.Format(g.Target), fmt.Sprintf("%.1f%%", g.Progress*100)})
	}
	tw.Render()

	if len(sum.Budgets) > 0 {
		fmt.Fprintln(a.out)
		tw = a.ledgerTable()
		tw.AppendHeader(table.Row{"BUDGET", "MONTH", "SPENT", "LIMIT", "REMAINING"})
		tw.SetColumnConfigs(numberCols(3, 4, 5))
		for _, b := range sum.Budgets {
			rem := svc.Format(b.Remaining)
			if b.Over && !a.noColor {
				rem = text.Colors{text.FgRed}.Sprint(rem)
			}
			tw.AppendRow(table.Row{b.Category, b.Month, svc.Format(b.Spent), svc.Format(b.Limit), rem})
		}
		tw.Render()
	}
}

func newLedgerGoalCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "goal", Short: "Manage financial goals"}
	var deadline string
	set := &cobra.Command{
		Use:   "set <NAME> <TARGET>",
		Short: "Create or update a goal target",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := decimal.NewFromString(args[1])
			if err != nil {
				return fmt.Errorf("bad target %q", args[1])
			}
			g := ledger.Goal{Name: args[0], Target: target}
			if deadline != "" {
				d, err := parseDate(deadline)
				if err != nil {
					return err
				}
				g.Deadline = &d
			}
			svc, closeFn, err := a.ledgerService(cmd)
			if err != nil {
				return err
			}
			defer closeFn()
			return svc.Store.SaveGoal(ctxOf(cmd), g)
		},
	}
	set.Flags().StringVar(&deadline, "deadline", "", "target date YYYY-MM-DD")

	list := &cobra.Command{
		Use:   "list",
		Short: "List goals, defaults included",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := a.ledgerService(cmd)
			if err != nil {
				return err
			}
			defer closeFn()
			goals, err := svc.Goals(ctxOf(cmd))
			if err != nil {
				return err
			}
			if a.format == "json" {
				return render.JSON(a.out, goals, a.pretty)
			}
			tw := a.ledgerTable()
			tw.AppendHeader(table.Row{"GOAL", "TARGET", "DEADLINE"})
			tw.SetColumnConfigs(numberCols(2))
			for _, g := range goals {
				dl := ""
				if g.Deadline != nil {
					dl = g.Deadline.Format(dateFlagLayout)
				}
				tw.AppendRow(table.Row{g.Name, svc.Format(g.Target), dl})
			}
			tw.Render()
			return nil
		},
	}
	cmd.AddCommand(set, list)
	return cmd
}

func newLedgerBudgetCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "budget", Short: "Manage monthly expense budgets"}
	set := &cobra.Command{
		Use:   "set <CATEGORY> <LIMIT>",
		Short: "Create or update a monthly budget",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, err := decimal.NewFromString(args[1])
			if err != nil {
				return fmt.Errorf("bad limit %q", args[1])
			}
			svc, closeFn, err := a.ledgerService(cmd)
			if err != nil {
				return err
			}
			defer closeFn()
			return svc.Store.SaveBudget(ctxOf(cmd), ledger.Budget{Category: args[0], Limit: limit})
		},
	}
	list := &cobra.Command{
		Use:   "list",
		Short: "List budgets",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := a.ledgerService(cmd)
			if err != nil {
				return err
			}
			defer closeFn()
			budgets, err := svc.Store.Budgets(ctxOf(cmd))
			if err != nil {
				return err
			}
			if a.format == "json" {
				return render.JSON(a.out, budgets, a.pretty)
			}
			tw := a.ledgerTable()
			tw.AppendHeader(table.Row{"CATEGORY", "MONTHLY LIMIT"})
			tw.SetColumnConfigs(numberCols(2))
			for _, b := range budgets {
				tw.AppendRow(table.Row{b.Category, svc.Format(b.Limit)})
			}
			tw.Render()
			return nil
		},
	}
	cmd.AddCommand(set, list)
	return cmd
}
