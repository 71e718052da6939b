package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/komsit37/valor/pkg/valor/columns"
	"github.com/komsit37/valor/pkg/valor/valuation"
)

// signed columns are colored green or red by sign when color is on.
var signed = map[string]bool{"mos": true, "spread": true, "eva": true, "efv": true, "treasury": true}

type TableRenderer[T any] struct {
	Registry *columns.Registry[T]
}

func (r TableRenderer[T]) Render(w io.Writer, rows []T, opts Options) error {
	cols, err := r.Registry.Resolve(opts.Columns)
	if err != nil {
		return err
	}
	tw := newTable(w, opts.Width)

	hdr := make(table.Row, len(cols))
	cfgs := make([]table.ColumnConfig, 0, len(cols))
	for i, c := range cols {
		hdr[i] = c.Header
		cfg := table.ColumnConfig{Number: i + 1, WidthMax: colWidth(opts.MaxColWidth)}
		if c.Numeric {
			cfg.Align = text.AlignRight
			cfg.AlignHeader = text.AlignRight
		}
		cfgs = append(cfgs, cfg)
	}
	tw.AppendHeader(hdr)
	tw.SetColumnConfigs(cfgs)

	for _, it := range rows {
		row := make(table.Row, len(cols))
		for i, c := range cols {
			v := c.Value(it)
			if opts.Color && signed[c.Key] && v != "" {
				if strings.HasPrefix(v, "-") {
					v = text.Colors{text.FgRed}.Sprint(v)
				} else {
					v = text.Colors{text.FgGreen}.Sprint(v)
				}
			}
			row[i] = v
		}
		tw.AppendRow(row)
	}
	tw.Render()
	return nil
}

// Failures lists skipped companies with their reason.
func Failures(w io.Writer, failures []*valuation.Failure, width int) {
	if len(failures) == 0 {
		return
	}
	tw := newTable(w, width)
	tw.AppendHeader(table.Row{"TICKER", "REASON"})
	for _, f := range failures {
		tw.AppendRow(table.Row{f.Ticker, string(f.Reason)})
	}
	tw.Render()
}

// Summary prints the batch summary line.
func Summary(w io.Writer, line string) {
	fmt.Fprintln(w, text.Bold.Sprint(line))
}

// newTable applies the shared style. A positive width caps the row length
// to the terminal.
func newTable(w io.Writer, width int) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleColoredDark)
	tw.Style().Options.DrawBorder = false
	tw.Style().Options.SeparateRows = false
	tw.Style().Options.SeparateColumns = false
	if width > 0 {
		tw.SetAllowedRowLength(width)
	}
	return tw
}

func colWidth(n int) int {
	if n <= 0 {
		return 40
	}
	return n
}
