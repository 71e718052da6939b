// Package config loads runtime settings from valor.yaml, .env and VALOR_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/komsit37/valor/pkg/valor/types"
)

const EnvPrefix = "VALOR"

type Config struct {
	Data      Data      `mapstructure:"data"`
	Valuation Valuation `mapstructure:"valuation"`
	Market    Market    `mapstructure:"market"`
	Rates     Rates     `mapstructure:"rates"`
	Batch     Batch     `mapstructure:"batch"`
	Ledger    Ledger    `mapstructure:"ledger"`
	Log       Log       `mapstructure:"log"`
}

type Data struct {
	Dir     string `mapstructure:"dir"`
	Tickers string `mapstructure:"tickers"`
	DSN     string `mapstructure:"dsn"`
}

type Valuation struct {
	Growth         float64 `mapstructure:"growth"`
	AveragingYears int     `mapstructure:"averaging_years"`
	BetaLookback   int     `mapstructure:"beta_lookback"`
	HistoryYears   int     `mapstructure:"history_years"`
	Leverage       string  `mapstructure:"leverage" validate:"oneof=self peer none"`
	PeerDE         float64 `mapstructure:"peer_de" validate:"gte=0"`
}

// Params converts the valuation section to model parameters.
func (v Valuation) Params() types.Params {
	return types.Params{
		GrowthRate:        v.Growth,
		AveragingYears:    v.AveragingYears,
		BetaLookbackYears: v.BetaLookback,
		HistoryYears:      v.HistoryYears,
	}
}

type Market struct {
	Index     string        `mapstructure:"index"`
	Suffix    string        `mapstructure:"suffix"`
	Timeout   time.Duration `mapstructure:"timeout" validate:"gt=0"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`
	CacheSize int           `mapstructure:"cache_size" validate:"gte=0"`
	RedisAddr string        `mapstructure:"redis_addr"`
}

type Rates struct {
	Series   int     `mapstructure:"series" validate:"gt=0"`
	Fallback float64 `mapstructure:"fallback"`
}

type Batch struct {
	Workers     int           `mapstructure:"workers" validate:"gte=1"`
	ItemTimeout time.Duration `mapstructure:"item_timeout"`
}

type Ledger struct {
	Driver string `mapstructure:"driver" validate:"oneof=sqlite postgres memory"`
	DSN    string `mapstructure:"dsn"`
}

type Log struct {
	Format string `mapstructure:"format" validate:"oneof=text json"`
	Level  string `mapstructure:"level"`
}

var defaults = map[string]any{
	"data.dir":                  "./data/cvm",
	"data.tickers":              "./data/tickers.yaml",
	"data.dsn":                  "",
	"valuation.growth":          0.04,
	"valuation.averaging_years": 3,
	"valuation.beta_lookback":   5,
	"valuation.history_years":   5,
	"valuation.leverage":        "self",
	"valuation.peer_de":         0.0,
	"market.index":              "^BVSP",
	"market.suffix":             ".SA",
	"market.timeout":            "10s",
	"market.cache_ttl":          "15m",
	"market.cache_size":         512,
	"market.redis_addr":         "",
	"rates.series":              1178,
	"rates.fallback":            0.105,
	"batch.workers":             4,
	"batch.item_timeout":        "30s",
	"ledger.driver":             "sqlite",
	"ledger.dsn":                "valor-ledger.db",
	"log.format":                "text",
	"log.level":                 "info",
}

// New returns a viper instance with defaults and environment binding
// (data.dir is read from VALOR_DATA_DIR). Commands bind their flags to it
// before calling Load.
func New() *viper.Viper {
	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads .env (when present), then the config file, and decodes the
// result. An empty file looks for valor.yaml in the working directory and
// tolerates its absence.
func Load(v *viper.Viper, file string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: .env: %w", err)
	}
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", file, err)
		}
	} else {
		v.SetConfigName("valor")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return nil, fmt.Errorf("config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.Valuation.Params().Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// NewLogger builds the process logger. Output goes to w so stdout stays
// reserved for tables and JSON.
func NewLogger(cfg Log, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
