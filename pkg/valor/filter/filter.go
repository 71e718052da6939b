// Package filter selects tickers for batch runs.
package filter

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// Filter matches a ticker.
type Filter interface {
	Match(ticker string) bool
}

// Parse builds a filter from an expression:
//   - comma-separated tickers: "PETR4,VALE3"
//   - glob: "PETR*" or "????3"
//   - regex: "/^B.*4$/"
//   - anything else: case-insensitive prefix, so "itub" selects ITUB3 and ITUB4
//
// Ticker and glob matching ignore case.
func Parse(expr string) (Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Always(true), nil
	}
	if strings.HasPrefix(expr, "/") && strings.HasSuffix(expr, "/") && len(expr) > 2 {
		re, err := regexp.Compile(expr[1 : len(expr)-1])
		if err != nil {
			return nil, fmt.Errorf("filter: %w", err)
		}
		return Regex{re: re}, nil
	}
	if strings.Contains(expr, ",") {
		set := map[string]struct{}{}
		for _, p := range strings.Split(expr, ",") {
			p = strings.ToUpper(strings.TrimSpace(p))
			if p != "" {
				set[p] = struct{}{}
			}
		}
		return TickerSet{set: set}, nil
	}
	if strings.ContainsAny(expr, "*?[") {
		pattern := strings.ToUpper(expr)
		if _, err := filepath.Match(pattern, ""); err != nil {
			return nil, fmt.Errorf("filter: bad glob %q: %w", expr, err)
		}
		return Glob{pattern: pattern}, nil
	}
	return Prefix{prefix: strings.ToUpper(expr)}, nil
}

type Always bool

func (a Always) Match(string) bool { return bool(a) }

type TickerSet struct{ set map[string]struct{} }

func (e TickerSet) Match(ticker string) bool {
	_, ok := e.set[strings.ToUpper(ticker)]
	return ok
}

func (e TickerSet) String() string { return fmt.Sprintf("tickers:%d", len(e.set)) }

type Glob struct{ pattern string }

func (g Glob) Match(ticker string) bool {
	ok, _ := filepath.Match(g.pattern, strings.ToUpper(ticker))
	return ok
}

func (g Glob) String() string { return "glob:" + g.pattern }

type Regex struct{ re *regexp.Regexp }

func (r Regex) Match(ticker string) bool { return r.re.MatchString(ticker) }

func (r Regex) String() string { return "regex:" + r.re.String() }

// Prefix matches the ticker root, ignoring case.
type Prefix struct{ prefix string }

func (p Prefix) Match(ticker string) bool {
	return strings.HasPrefix(strings.ToUpper(ticker), p.prefix)
}

func (p Prefix) String() string { return "prefix:" + p.prefix }
