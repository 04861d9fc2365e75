package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a zap logger for the given mode, "development" or
// "production". An empty mode defaults to production.
func New(mode string) (*zap.Logger, error) {
	switch mode {
	case "development":
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return cfg.Build()
	case "", "production":
		return zap.NewProductionConfig().Build()
	}
	return nil, fmt.Errorf("unknown logging mode %q", mode)
}

// Must creates a logger or panics
func Must(mode string) *zap.Logger {
	log, err := New(mode)
	if err != nil {
		panic(err)
	}
	return log
}
