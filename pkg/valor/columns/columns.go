// Package columns defines the printable columns of valuation and health
// results and the named sets they can be requested by.
package columns

import (
	"fmt"
	"sort"
	"strings"
)

// Column renders one field of a result row.
type Column[T any] struct {
	Key    string
	Header string
	// Numeric columns are right aligned.
	Numeric bool
	Value   func(T) string
}

// Registry holds the columns and sets available for one result type.
type Registry[T any] struct {
	defs    map[string]Column[T]
	aliases map[string]string
	sets    map[string][]string
	// Default is used when no columns are requested.
	Default []string
}

func NewRegistry[T any](cols ...Column[T]) *Registry[T] {
	r := &Registry[T]{
		defs:    make(map[string]Column[T], len(cols)),
		aliases: map[string]string{},
		sets:    map[string][]string{},
	}
	for _, c := range cols {
		if c.Header == "" {
			c.Header = strings.ToUpper(c.Key)
		}
		r.defs[c.Key] = c
	}
	return r
}

// Alias makes name resolve to key.
func (r *Registry[T]) Alias(name, key string) *Registry[T] {
	r.aliases[name] = key
	return r
}

// Set registers a named group of columns.
func (r *Registry[T]) Set(name string, keys ...string) *Registry[T] {
	r.sets[name] = keys
	return r
}

func (r *Registry[T]) Canonical(name string) (string, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if k, ok := r.aliases[name]; ok {
		name = k
	}
	_, ok := r.defs[name]
	return name, ok
}

// Keys lists every column key, sorted.
func (r *Registry[T]) Keys() []string {
	out := make([]string, 0, len(r.defs))
	for k := range r.defs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (r *Registry[T]) SetNames() []string {
	out := make([]string, 0, len(r.sets))
	for k := range r.sets {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Resolve turns a request like ["ticker", "@risk", "eva"] into columns.
// Names prefixed with @ expand to sets. Duplicates keep the first
// occurrence. An empty request resolves to Default.
func (r *Registry[T]) Resolve(names []string) ([]Column[T], error) {
	if len(names) == 0 {
		names = r.Default
	}
	seen := map[string]struct{}{}
	out := make([]Column[T], 0, len(names))
	add := func(name string) error {
		key, ok := r.Canonical(name)
		if !ok {
			return &UnknownColumnError{Name: name, Available: r.Keys()}
		}
		if _, dup := seen[key]; dup {
			return nil
		}
		seen[key] = struct{}{}
		out = append(out, r.defs[key])
		return nil
	}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if set, ok := strings.CutPrefix(n, "@"); ok {
			keys, found := r.sets[set]
			if !found {
				return nil, &UnknownSetError{Name: set, Available: r.SetNames()}
			}
			for _, k := range keys {
				if err := add(k); err != nil {
					return nil, err
				}
			}
			continue
		}
		if err := add(n); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Split parses a comma separated --columns flag.
func Split(flag string) []string {
	if strings.TrimSpace(flag) == "" {
		return nil
	}
	parts := strings.Split(flag, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

type UnknownColumnError struct {
	Name      string
	Available []string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("unknown column: %s; available: %s", e.Name, strings.Join(e.Available, ", "))
}

type UnknownSetError struct {
	Name      string
	Available []string
}

func (e *UnknownSetError) Error() string {
	return fmt.Sprintf("unknown column set: %s; available: %s", e.Name, strings.Join(e.Available, ", "))
}
