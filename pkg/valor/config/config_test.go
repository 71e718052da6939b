package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komsit37/valor/pkg/valor/types"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, "./data/cvm", cfg.Data.Dir)
	assert.Equal(t, types.DefaultParams(), cfg.Valuation.Params())
	assert.Equal(t, "self", cfg.Valuation.Leverage)
	assert.Equal(t, "^BVSP", cfg.Market.Index)
	assert.Equal(t, ".SA", cfg.Market.Suffix)
	assert.Equal(t, 10*time.Second, cfg.Market.Timeout)
	assert.Equal(t, 15*time.Minute, cfg.Market.CacheTTL)
	assert.Equal(t, 1178, cfg.Rates.Series)
	assert.InDelta(t, 0.105, cfg.Rates.Fallback, 1e-12)
	assert.Equal(t, 4, cfg.Batch.Workers)
	assert.Equal(t, 30*time.Second, cfg.Batch.ItemTimeout)
	assert.Equal(t, "sqlite", cfg.Ledger.Driver)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "valor.yaml"), []byte(`
valuation:
  growth: 0.03
  leverage: peer
  peer_de: 0.5
batch:
  workers: 8
`), 0o644))
	t.Setenv("VALOR_MARKET_SUFFIX", ".XX")
	t.Setenv("VALOR_BATCH_WORKERS", "2")

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.InDelta(t, 0.03, cfg.Valuation.Growth, 1e-12)
	assert.Equal(t, "peer", cfg.Valuation.Leverage)
	assert.InDelta(t, 0.5, cfg.Valuation.PeerDE, 1e-12)
	assert.Equal(t, ".XX", cfg.Market.Suffix)
	assert.Equal(t, 2, cfg.Batch.Workers)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("VALOR_LEDGER_DRIVER=memory\n"), 0o644))
	t.Cleanup(func() { _ = os.Unsetenv("VALOR_LEDGER_DRIVER") })

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Ledger.Driver)
}

func TestLoadRejectsInvalid(t *testing.T) {
	chdir(t, t.TempDir())
	for key, val := range map[string]string{
		"VALOR_LOG_FORMAT":              "xml",
		"VALOR_VALUATION_LEVERAGE":      "magic",
		"VALOR_VALUATION_GROWTH":        "1.2",
		"VALOR_VALUATION_BETA_LOOKBACK": "3",
	} {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			_, err := Load(New(), "")
			require.Error(t, err)
		})
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(Log{Format: "json", Level: "warn"}, &buf)
	log.Info("hidden")
	log.Warn("shown", "ticker", "PETR4")
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"ticker":"PETR4"`)

	buf.Reset()
	NewLogger(Log{Format: "text", Level: "bogus"}, &buf).Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")
}
