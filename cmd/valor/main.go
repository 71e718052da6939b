package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/komsit37/valor/pkg/valor/columns"
	"github.com/komsit37/valor/pkg/valor/config"
	"github.com/komsit37/valor/pkg/valor/render"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// app carries what every command shares. cfg and log are ready once the
// root PersistentPreRunE has run.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	log     *slog.Logger
	out     io.Writer
	errOut  io.Writer

	format      string
	json        bool
	pretty      bool
	columns     string
	maxColWidth int
	noColor     bool
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{v: config.New(), out: out, errOut: errOut}

	root := &cobra.Command{
		Use:           "valor",
		Short:         "Value Brazilian listed companies from CVM filings and track a personal ledger",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.v, a.cfgFile)
			if err != nil {
				return err
			}
			a.cfg = cfg
			if a.json {
				a.format = "json"
			}
			a.log = config.NewLogger(cfg.Log, a.errOut)
			slog.SetDefault(a.log)
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default ./valor.yaml)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "text", "log format: text or json")
	pf.String("data-dir", "", "directory with extracted CVM DFP csv files")
	pf.String("tickers", "", "ticker map file or directory")
	pf.StringVarP(&a.format, "format", "o", "table", "output: table, json or tickers")
	pf.BoolVar(&a.json, "json", false, "shorthand for --format json")
	pf.BoolVar(&a.pretty, "pretty", false, "indent JSON output")
	pf.StringVarP(&a.columns, "columns", "c", "", "comma separated columns; @name expands a column set")
	pf.IntVar(&a.maxColWidth, "max-col-width", 0, "maximum column width (default 40)")
	pf.BoolVar(&a.noColor, "no-color", false, "disable colored values")

	for key, flag := range map[string]string{
		"log.level":    "log-level",
		"log.format":   "log-format",
		"data.dir":     "data-dir",
		"data.tickers": "tickers",
	} {
		_ = a.v.BindPFlag(key, pf.Lookup(flag))
	}

	root.AddCommand(
		newValueCmd(a),
		newRankCmd(a),
		newHealthCmd(a),
		newLedgerCmd(a),
		newFilingsCmd(a),
		newColumnsCmd(a),
	)
	return root
}

func (a *app) renderOptions() render.Options {
	return render.Options{
		Columns:     columns.Split(a.columns),
		Color:       !a.noColor && a.format == "table",
		PrettyJSON:  a.pretty,
		MaxColWidth: a.maxColWidth,
		Width:       detectTerminalWidth(),
	}
}

// summaryOut keeps stdout machine readable for json and tickers output.
func (a *app) summaryOut() io.Writer {
	if a.format == "table" {
		return a.out
	}
	return a.errOut
}

func checkFormat(f string) error {
	switch f {
	case "table", "json", "tickers":
		return nil
	}
	return fmt.Errorf("unknown format %q (want table, json or tickers)", f)
}

func ctxOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
