package render

import (
	"fmt"
	"io"
	"strings"
)

// TickerRenderer prints the tickers of all rows on one comma separated line.
type TickerRenderer[T any] struct {
	Ticker func(T) string
}

func (r TickerRenderer[T]) Render(w io.Writer, rows []T, _ Options) error {
	out := make([]string, 0, len(rows))
	for _, it := range rows {
		if t := strings.TrimSpace(r.Ticker(it)); t != "" {
			out = append(out, t)
		}
	}
	_, err := fmt.Fprintln(w, strings.Join(out, ","))
	return err
}
