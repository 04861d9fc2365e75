package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tradesim/tradesim/internal/core"
)

type Config struct {
	Backtest BacktestConfig `mapstructure:"backtest"`
	Data     DataConfig     `mapstructure:"data"`
	Strategy StrategyConfig `mapstructure:"strategy"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type BacktestConfig struct {
	Symbol       string    `mapstructure:"symbol"`
	StartingCash float64   `mapstructure:"starting_cash"`
	Resolution   string    `mapstructure:"resolution"`
	Start        time.Time `mapstructure:"start"`
	End          time.Time `mapstructure:"end"`
}

type DataConfig struct {
	CSVPath string `mapstructure:"csv_path"`
}

type StrategyConfig struct {
	Name   string         `mapstructure:"name"`
	Params map[string]any `mapstructure:"params"`
}

type StorageConfig struct {
	DSN string `mapstructure:"dsn"`
}

type LoggingConfig struct {
	Mode string `mapstructure:"mode"` // "development" or "production"
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Load reads configuration from file
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.SetEnvPrefix("TRADESIM")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Backtest: BacktestConfig{
			StartingCash: 100000,
			Resolution:   "daily",
		},
		Strategy: StrategyConfig{
			Name: "sma-cross",
			Params: map[string]any{
				"fast":     10,
				"slow":     30,
				"quantity": 100.0,
				"stop_pct": 0.02,
			},
		},
		Storage: StorageConfig{
			DSN: "tradesim.db",
		},
		Logging: LoggingConfig{
			Mode: "production",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Backtest.Symbol == "" {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("backtest symbol is required"))
	}
	if c.Backtest.StartingCash <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("starting_cash must be positive, got %f", c.Backtest.StartingCash))
	}
	if _, err := core.ParseResolution(c.Backtest.Resolution); err != nil {
		return core.WrapError(core.ErrConfigInvalid, err)
	}
	if !c.Backtest.Start.IsZero() && !c.Backtest.End.IsZero() && c.Backtest.End.Before(c.Backtest.Start) {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("backtest end %s precedes start %s",
				c.Backtest.End.Format(time.RFC3339), c.Backtest.Start.Format(time.RFC3339)))
	}
	if c.Data.CSVPath == "" {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("data csv_path is required"))
	}
	if c.Strategy.Name == "" {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("strategy name is required"))
	}

	return nil
}
