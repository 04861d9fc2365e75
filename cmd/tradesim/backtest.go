package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tradesim/tradesim/internal/backtest"
	"github.com/tradesim/tradesim/internal/config"
	"github.com/tradesim/tradesim/internal/core"
	"github.com/tradesim/tradesim/internal/feed"
	"github.com/tradesim/tradesim/internal/logger"
	"github.com/tradesim/tradesim/internal/metrics"
	"github.com/tradesim/tradesim/internal/report"
	"github.com/tradesim/tradesim/internal/storage/results"
	"github.com/tradesim/tradesim/internal/strategy"
)

var (
	backtestSymbol string
	backtestFrom   string
	backtestTo     string
	backtestData   string
	backtestNoSave bool
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run a backtest",
	Long:  "Replay historical data through the configured strategy and show performance statistics",
	RunE:  runBacktest,
}

func init() {
	backtestCmd.Flags().StringVar(&backtestSymbol, "symbol", "", "Symbol to backtest (overrides config)")
	backtestCmd.Flags().StringVar(&backtestFrom, "from", "", "Start date YYYY-MM-DD (overrides config)")
	backtestCmd.Flags().StringVar(&backtestTo, "to", "", "End date YYYY-MM-DD (overrides config)")
	backtestCmd.Flags().StringVar(&backtestData, "data", "", "Bar CSV file (overrides config)")
	backtestCmd.Flags().BoolVar(&backtestNoSave, "no-save", false, "Skip persisting the run")

	rootCmd.AddCommand(backtestCmd)
}

func runBacktest(cmd *cobra.Command, args []string) error {
	log, err := buildLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	if backtestSymbol != "" {
		cfg.Backtest.Symbol = backtestSymbol
	}
	if backtestData != "" {
		cfg.Data.CSVPath = backtestData
	}
	if backtestFrom != "" {
		from, err := time.Parse("2006-01-02", backtestFrom)
		if err != nil {
			return fmt.Errorf("invalid from date format (expected YYYY-MM-DD): %w", err)
		}
		cfg.Backtest.Start = from
	}
	if backtestTo != "" {
		to, err := time.Parse("2006-01-02", backtestTo)
		if err != nil {
			return fmt.Errorf("invalid to date format (expected YYYY-MM-DD): %w", err)
		}
		cfg.Backtest.End = to
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	resolution, err := core.ParseResolution(cfg.Backtest.Resolution)
	if err != nil {
		return err
	}

	strat, err := buildStrategy(cfg.Strategy)
	if err != nil {
		return err
	}

	var reg *metrics.Registry
	if cfg.Metrics.Enabled {
		reg = metrics.NewRegistry()
	}

	provider := feed.NewCSVProvider(cfg.Data.CSVPath)
	engine := backtest.New(provider, reg, log)

	result, err := engine.Run(cmd.Context(), strat, backtest.Config{
		Symbol:       cfg.Backtest.Symbol,
		StartingCash: cfg.Backtest.StartingCash,
		Resolution:   resolution,
		Start:        cfg.Backtest.Start,
		End:          cfg.Backtest.End,
	})
	if err != nil {
		return fmt.Errorf("running backtest: %w", err)
	}

	report.NewConsole(os.Stdout).Render(result)

	if backtestNoSave {
		return nil
	}
	return saveRun(cmd, cfg, result, log)
}

func saveRun(cmd *cobra.Command, cfg *config.Config, result *backtest.Result, log *zap.Logger) error {
	store, err := results.NewSQLiteStore(cfg.Storage.DSN)
	if err != nil {
		return fmt.Errorf("opening results store: %w", err)
	}
	defer store.Close()

	run := results.Run{
		ID:           uuid.NewString(),
		Strategy:     result.Strategy,
		Symbol:       result.Symbol,
		StartDate:    result.StartDate,
		EndDate:      result.EndDate,
		StartingCash: cfg.Backtest.StartingCash,
		FinalEquity:  result.FinalEquity,
		Bars:         result.Bars,
		Orders:       result.Orders,
		Fills:        result.FilledCount(),
		CreatedAt:    time.Now().UTC(),
	}
	if overall, ok := result.Report.Overall(); ok {
		run.Metrics = overall
	}

	if err := store.SaveRun(cmd.Context(), run); err != nil {
		return fmt.Errorf("saving run: %w", err)
	}

	log.Info("run saved", zap.String("id", run.ID), zap.String("dsn", cfg.Storage.DSN))
	return nil
}

func buildLogger() (*zap.Logger, error) {
	mode := "production"
	if debug {
		mode = "development"
	}
	return logger.New(mode)
}

func loadConfig(log *zap.Logger) (*config.Config, error) {
	if cfgFile == "" {
		log.Warn("no config file specified, using defaults")
		return config.Defaults(), nil
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// buildStrategy instantiates the configured strategy by name. Params
// come from YAML so numbers may arrive as int or float64.
func buildStrategy(cfg config.StrategyConfig) (strategy.Strategy, error) {
	switch cfg.Name {
	case "sma-cross":
		fast := intParam(cfg.Params, "fast", 10)
		slow := intParam(cfg.Params, "slow", 30)
		quantity := int64(intParam(cfg.Params, "quantity", 100))
		stopPct := floatParam(cfg.Params, "stop_pct", 0.02)
		if fast <= 0 || slow <= fast {
			return nil, fmt.Errorf("sma-cross requires 0 < fast < slow, got fast=%d slow=%d", fast, slow)
		}
		return strategy.NewSMACross(fast, slow, quantity, stopPct), nil
	}
	return nil, fmt.Errorf("unknown strategy %q", cfg.Name)
}

func intParam(params map[string]any, key string, fallback int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return fallback
}

func floatParam(params map[string]any, key string, fallback float64) float64 {
	switch v := params[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return fallback
}
