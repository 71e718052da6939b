package source

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/komsit37/valor/pkg/valor/types"
)

// YAMLTickers loads the ticker map from a YAML file or, recursively, from
// every .yaml/.yml/.csv file of a directory.
//
// YAML format:
//
//	companies:
//	  - cvm: 9512
//	    name: PETROBRAS
//	    tickers: [PETR3, PETR4]
//
// CSV files use the CVM mapping layout CD_CVM;Ticker;Nome_Empresa.
type YAMLTickers struct {
	Path string
}

func (s YAMLTickers) Load(ctx context.Context) ([]types.TickerEntry, error) {
	info, err := os.Stat(s.Path)
	if err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}

	files := []string{s.Path}
	if info.IsDir() {
		files = files[:0]
		err := filepath.WalkDir(s.Path, func(p string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			switch strings.ToLower(filepath.Ext(d.Name())) {
			case ".yaml", ".yml", ".csv":
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("source: %w", err)
		}
		sort.Strings(files)
	}

	var all []types.TickerEntry
	for _, full := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(full)
		if err != nil {
			return nil, fmt.Errorf("source: %w", err)
		}
		var entries []types.TickerEntry
		if strings.EqualFold(filepath.Ext(full), ".csv") {
			entries, err = parseTickerCSV(bytes.NewReader(data))
		} else {
			entries, err = parseTickerYAML(data)
		}
		if err != nil {
			return nil, fmt.Errorf("source: %s: %w", full, err)
		}
		all = append(all, entries...)
	}
	return Dedup(all), nil
}

type yamlCompany struct {
	CVM     any      `yaml:"cvm"`
	Name    string   `yaml:"name"`
	Ticker  string   `yaml:"ticker"`
	Tickers []string `yaml:"tickers"`
}

func parseTickerYAML(data []byte) ([]types.TickerEntry, error) {
	var root struct {
		Companies []yamlCompany `yaml:"companies"`
	}
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if root.Companies == nil {
		return nil, fmt.Errorf("invalid yaml: missing 'companies'")
	}
	var out []types.TickerEntry
	for i, c := range root.Companies {
		if c.CVM == nil {
			return nil, fmt.Errorf("invalid yaml: company %d has no 'cvm'", i)
		}
		code := fmt.Sprint(c.CVM)
		tickers := c.Tickers
		if c.Ticker != "" {
			tickers = append([]string{c.Ticker}, tickers...)
		}
		for _, t := range tickers {
			out = append(out, types.TickerEntry{Company: code, Ticker: t, Name: c.Name})
		}
	}
	return out, nil
}

func parseTickerCSV(r io.Reader) ([]types.TickerEntry, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	recs, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	col := map[string]int{}
	for i, h := range recs[0] {
		col[strings.ToUpper(strings.TrimSpace(h))] = i
	}
	ci, ok1 := col["CD_CVM"]
	ti, ok2 := col["TICKER"]
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("invalid csv: want CD_CVM and Ticker columns")
	}
	ni, hasName := col["NOME_EMPRESA"]
	out := make([]types.TickerEntry, 0, len(recs)-1)
	for _, rec := range recs[1:] {
		if ci >= len(rec) || ti >= len(rec) {
			continue
		}
		e := types.TickerEntry{Company: rec[ci], Ticker: rec[ti]}
		if hasName && ni < len(rec) {
			e.Name = rec[ni]
		}
		out = append(out, e)
	}
	return out, nil
}
