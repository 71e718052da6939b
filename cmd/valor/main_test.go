package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komsit37/valor/pkg/valor/ledger"
	"github.com/komsit37/valor/pkg/valor/source"
	"github.com/komsit37/valor/pkg/valor/types"
)

func TestFindTicker(t *testing.T) {
	entries := []types.TickerEntry{
		{Company: "9512", Ticker: "PETR4"},
		{Company: "4170", Ticker: "VALE3"},
	}
	e, ok := findTicker(entries, " vale3.sa ", ".SA")
	require.True(t, ok)
	assert.Equal(t, "4170", e.Company)

	_, ok = findTicker(entries, "ITUB4", ".SA")
	assert.False(t, ok)
}

func TestCheckFormat(t *testing.T) {
	for _, f := range []string{"table", "json", "tickers"} {
		assert.NoError(t, checkFormat(f))
	}
	assert.Error(t, checkFormat("csv"))
}

// execute runs the root command against a config that keeps the ledger in dir.
func execute(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cfg := filepath.Join(dir, "valor.yaml")
	if _, err := os.Stat(cfg); os.IsNotExist(err) {
		body := "ledger:\n  driver: sqlite\n  dsn: " + filepath.Join(dir, "ledger.db") + "\nlog:\n  level: warn\n"
		require.NoError(t, os.WriteFile(cfg, []byte(body), 0o644))
	}
	var out, errOut bytes.Buffer
	root := newRootCmd(&out, &errOut)
	root.SetArgs(append([]string{"--config", cfg, "--no-color"}, args...))
	root.SetOut(&errOut)
	root.SetErr(&errOut)
	err := root.Execute()
	return out.String(), err
}

func TestLedgerCommands(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(t, dir, "ledger", "add", "--date", "2025-01-05", "-t", "income", "--category", "Salary", "-a", "5000")
	require.NoError(t, err)
	_, err = execute(t, dir, "ledger", "add", "--date", "2025-01-10", "-t", "expense", "--category", "Food", "-a", "800.50")
	require.NoError(t, err)
	id, err := execute(t, dir, "ledger", "add", "--date", "2025-01-12", "-t", "investment", "--category", ledger.ClassCash, "-a", "1000")
	require.NoError(t, err)

	out, err := execute(t, dir, "-o", "json", "ledger", "list")
	require.NoError(t, err)
	var txs []ledger.Transaction
	require.NoError(t, json.Unmarshal([]byte(out), &txs))
	require.Len(t, txs, 3)
	assert.Equal(t, "2025-01-12", txs[0].Date.Format(dateFlagLayout))

	out, err = execute(t, dir, "--json", "ledger", "summary")
	require.NoError(t, err)
	var sum ledger.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &sum))
	assert.Equal(t, "3199.5", sum.Balance.String())

	_, err = execute(t, dir, "ledger", "delete", strings.TrimSpace(id))
	require.NoError(t, err)
	out, err = execute(t, dir, "-o", "json", "ledger", "list", "-t", "investment")
	require.NoError(t, err)
	txs = nil
	require.NoError(t, json.Unmarshal([]byte(out), &txs))
	assert.Empty(t, txs)

	_, err = execute(t, dir, "ledger", "add", "-t", "expense", "--category", "Food", "--amount=-3")
	assert.Error(t, err)
	_, err = execute(t, dir, "ledger", "add", "-t", "gift", "--category", "Food", "-a", "3")
	assert.Error(t, err)
}

func TestLedgerGoalsAndBudgets(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(t, dir, "ledger", "goal", "set", ledger.GoalEmergency, "4000", "--deadline", "2026-12-31")
	require.NoError(t, err)
	out, err := execute(t, dir, "-o", "json", "ledger", "goal", "list")
	require.NoError(t, err)
	var goals []ledger.Goal
	require.NoError(t, json.Unmarshal([]byte(out), &goals))
	require.Len(t, goals, 2)

	_, err = execute(t, dir, "ledger", "budget", "set", "Food", "900")
	require.NoError(t, err)
	out, err = execute(t, dir, "ledger", "budget", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Food")
	assert.Contains(t, out, "R$900,00")
}

func TestFilingsImportNeedsDSN(t *testing.T) {
	_, err := execute(t, t.TempDir(), "filings", "import")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "data.dsn")
}

func TestFilingsStatAccounts(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "cvm")
	require.NoError(t, os.MkdirAll(data, 0o755))
	year := time.Now().Year() - 1
	header := "CNPJ_CIA;DT_REFER;VERSAO;DENOM_CIA;CD_CVM;GRUPO_DFP;MOEDA;ESCALA_MOEDA;ORDEM_EXERC;DT_INI_EXERC;DT_FIM_EXERC;CD_CONTA;DS_CONTA;VL_CONTA;ST_CONTA_FIXA\n"
	line := func(cvm, code string) string {
		// 0xDA is Ú in ISO-8859-1.
		return fmt.Sprintf("x;%d-12-31;1;Co;%s;g;REAL;UNIDADE;\xdaLTIMO;%d-01-01;%d-12-31;%s;conta;100;S\n", year, cvm, year, year, code)
	}
	body := header + line("001", string(types.EBIT)) + line("002", string(types.EBIT)) + line("002", string(types.NetRevenue))
	require.NoError(t, os.WriteFile(filepath.Join(data, source.FileName(types.Income, year)), []byte(body), 0o644))

	cfg := "data:\n  dir: " + data + "\nledger:\n  driver: memory\nlog:\n  level: warn\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "valor.yaml"), []byte(cfg), 0o644))

	out, err := execute(t, dir, "filings", "stat", "--accounts")
	require.NoError(t, err)
	assert.Contains(t, out, "2 companies")
	assert.Contains(t, out, string(types.EBIT)+"       2 of 2 companies")
	assert.Contains(t, out, string(types.NetRevenue)+"       1 of 2 companies")
	assert.Contains(t, out, string(types.Inventories)+"    0 of 2 companies")
}

func TestColumnsCommand(t *testing.T) {
	out, err := execute(t, t.TempDir(), "columns")
	require.NoError(t, err)
	assert.Contains(t, out, "fair_price")
	assert.Contains(t, out, "fleuriet")
}
