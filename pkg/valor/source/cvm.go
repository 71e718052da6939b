package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/charmap"

	"github.com/komsit37/valor/pkg/valor/history"
	"github.com/komsit37/valor/pkg/valor/types"
)

// CVMDir reads extracted DFP files named
// dfp_cia_aberta_<TAG>_con_<year>.csv from Dir. Files are ';' separated and
// ISO-8859-1 encoded; only the accounts the models use are kept.
type CVMDir struct {
	Dir    string
	Now    func() time.Time
	Logger *slog.Logger
}

var ErrNoFilings = errors.New("source: no DFP files found")

// FileName is the extracted CSV name of one statement and year.
func FileName(kind types.StatementKind, year int) string {
	return fmt.Sprintf("dfp_cia_aberta_%s_con_%d.csv", kind.Tag(), year)
}

// Years returns the window [now−years, now−1]: the current year has no
// annual filing yet.
func Years(now time.Time, years int) []int {
	out := make([]int, 0, years)
	for y := now.Year() - years; y < now.Year(); y++ {
		out = append(out, y)
	}
	return out
}

func (s CVMDir) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s CVMDir) Load(ctx context.Context, years int) (*history.Tables, error) {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	keep := accountSet()
	tables := history.NewTables()
	found := 0
	for _, kind := range types.Statements {
		for _, y := range Years(now(), years) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			path := filepath.Join(s.Dir, FileName(kind, y))
			f, err := os.Open(path)
			if errors.Is(err, os.ErrNotExist) {
				s.logger().Debug("dfp file missing", "path", path)
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("source: %w", err)
			}
			rows, err := ParseDFP(f, keep)
			f.Close()
			if err != nil {
				return nil, fmt.Errorf("source: %s: %w", path, err)
			}
			found++
			tables.Append(kind, rows...)
			s.logger().Debug("dfp file loaded", "path", path, "rows", len(rows))
		}
	}
	if found == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoFilings, s.Dir)
	}
	return tables, nil
}

var dfpColumns = []string{"CD_CVM", "DT_REFER", "ORDEM_EXERC", "CD_CONTA", "VL_CONTA"}

// ParseDFP decodes one ISO-8859-1 DFP CSV. When keep is non-nil only those
// accounts are returned. Values in thousands (ESCALA_MOEDA = MIL) are
// scaled to units. Rows with unparseable dates or values are skipped.
func ParseDFP(r io.Reader, keep map[types.AccountCode]struct{}) ([]types.FilingRow, error) {
	cr := csv.NewReader(charmap.ISO8859_1.NewDecoder().Reader(r))
	cr.Comma = ';'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := map[string]int{}
	for i, h := range header {
		col[strings.TrimPrefix(strings.TrimSpace(h), "\ufeff")] = i
	}
	for _, c := range dfpColumns {
		if _, ok := col[c]; !ok {
			return nil, fmt.Errorf("missing column %s", c)
		}
	}
	scaleCol, hasScale := col["ESCALA_MOEDA"]

	var out []types.FilingRow
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		field := func(i int) string {
			if i < len(rec) {
				return strings.TrimSpace(rec[i])
			}
			return ""
		}
		code := types.AccountCode(field(col["CD_CONTA"]))
		if keep != nil {
			if _, ok := keep[code]; !ok {
				continue
			}
		}
		date, err := time.Parse("2006-01-02", field(col["DT_REFER"]))
		if err != nil {
			continue
		}
		v, err := strconv.ParseFloat(field(col["VL_CONTA"]), 64)
		if err != nil {
			continue
		}
		if hasScale && strings.EqualFold(field(scaleCol), "MIL") {
			v *= 1000
		}
		out = append(out, types.FilingRow{
			Company: NormalizeCompany(field(col["CD_CVM"])),
			Account: code,
			RefDate: date,
			Order:   types.Order(strings.ToUpper(field(col["ORDEM_EXERC"]))),
			Value:   v,
		})
	}
	return out, nil
}
