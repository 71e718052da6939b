// Package render writes result rows as tables, JSON or ticker lists.
package render

import (
	"io"

	"github.com/komsit37/valor/pkg/valor/columns"
)

// Renderer writes a batch of result rows.
type Renderer[T any] interface {
	Render(w io.Writer, rows []T, opts Options) error
}

type Options struct {
	Columns     []string
	Color       bool
	PrettyJSON  bool
	MaxColWidth int
	// Width is the terminal width; 0 leaves rows unbounded.
	Width int
}

// Format picks the renderer for a --format value: "table" (default),
// "json" or "tickers".
func Format[T any](name string, reg *columns.Registry[T], ticker func(T) string) Renderer[T] {
	switch name {
	case "json":
		return JSONRenderer[T]{}
	case "tickers":
		return TickerRenderer[T]{Ticker: ticker}
	}
	return TableRenderer[T]{Registry: reg}
}
