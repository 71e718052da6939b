package render

import (
	"encoding/json"
	"io"
)

// JSONRenderer encodes rows with their own json tags; column selection does
// not apply.
type JSONRenderer[T any] struct{}

func (JSONRenderer[T]) Render(w io.Writer, rows []T, opts Options) error {
	return JSON(w, rows, opts.PrettyJSON)
}

func JSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
